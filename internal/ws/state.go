package ws

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/armio/internal/anim"
	diag "github.com/coreman2200/armio/internal/diagnostics"
	"github.com/coreman2200/armio/internal/display"
	"github.com/coreman2200/armio/internal/led"
	"github.com/coreman2200/armio/internal/selftest"
	"github.com/coreman2200/armio/internal/show"
)

// client is one websocket connection. gorilla allows a single concurrent writer.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(typ int, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	return c.conn.WriteMessage(typ, b)
}

// State hosts one engine. Every engine, ring, player and self-test access happens
// under mu, so the engine itself stays single-threaded.
type State struct {
	mu     sync.RWMutex
	Engine *anim.Engine
	Ring   *display.Ring
	Player *show.Player
	Driver led.Driver
	Tick   time.Duration

	CurrentDriver string

	levels      []uint8
	frameID     uint64
	writeErrs   int
	startTime   time.Time
	clients     map[*websocket.Conn]*client
	diagClients map[*websocket.Conn]*client
	owned       map[uint64]*display.Component // components lit for control ops, by handle id
	borrowers   map[uint64][]anim.Handle      // fades started on an owned component, by owner id

	testRunner *selftest.Runner
}

func NewState(eng *anim.Engine, player *show.Player, drv led.Driver, tick time.Duration) *State {
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ring := eng.Ring()
	return &State{
		Engine:      eng,
		Ring:        ring,
		Player:      player,
		Driver:      drv,
		Tick:        tick,
		levels:      make([]uint8, ring.Size()),
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]*client{},
		diagClients: map[*websocket.Conn]*client{},
		owned:       map[uint64]*display.Component{},
		borrowers:   map[uint64][]anim.Handle{},
	}
}

// RunTickLoop steps the engine once per Tick until ctx is done.
func (s *State) RunTickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step runs one tick: a self-test frame when one is active, otherwise player, engine
// tic and frame composition. The frame goes to the driver and every /ws client.
func (s *State) Step() {
	s.mu.Lock()
	if s.testRunner != nil {
		if !s.testRunner.Step(s.levels) {
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete",
				Evidence: map[string]any{"test": string(s.testRunner.Kind()), "steps": s.testRunner.Steps()},
			})
			s.testRunner = nil
		}
	} else {
		if s.Player != nil {
			s.Player.Tick()
		}
		s.Engine.Tic()
		s.Ring.Frame(s.levels)
	}
	s.frameID++
	id := s.frameID
	buf := append([]uint8{}, s.levels...)
	drv := s.Driver
	s.mu.Unlock()

	if drv != nil {
		if err := drv.Write(buf); err != nil {
			s.writeErrs++
			if s.writeErrs == 1 || s.writeErrs%1000 == 0 {
				log.Warn().Err(err).Int("errors", s.writeErrs).Str("driver", s.CurrentDriver).Msg("driver write failed")
			}
		}
	}
	s.broadcastFrame(id, buf)
}

// Fault pushes an engine or display fault to /diag clients. It runs inside engine
// calls, so the caller already holds mu.
func (s *State) Fault(err error) {
	s.pushDiag(diag.FromError(err))
}

func (s *State) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.HandleFramesWS)
	r.HandleFunc("/diag", s.HandleDiagWS)
	r.HandleFunc("/control", s.HandleControlWS)
	r.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/anim/{id:[0-9]+}", s.HandleAnim).Methods(http.MethodGet)
	return r
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *State) accept(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]*client) *client {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("upgrade failed")
		return nil
	}
	c := &client{id: xid.New().String(), conn: conn}
	if set != nil {
		s.mu.Lock()
		set[conn] = c
		s.mu.Unlock()
	}
	log.Debug().Str("session", c.id).Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("client connected")
	return c
}

// drain reads until the peer goes away, then drops it from set.
func (s *State) drain(c *client, set map[*websocket.Conn]*client) {
	defer func() {
		s.mu.Lock()
		delete(set, c.conn)
		s.mu.Unlock()
		c.conn.Close()
		log.Debug().Str("session", c.id).Msg("client gone")
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	c := s.accept(w, r, s.clients)
	if c == nil {
		return
	}
	s.sendTopology(c)
	go s.drain(c, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	c := s.accept(w, r, s.diagClients)
	if c == nil {
		return
	}
	s.mu.RLock()
	usage := []diag.Diagnostic{
		diag.PoolUsage("anim", s.Engine.Active(), s.Engine.Capacity()),
		diag.PoolUsage("display", s.Ring.InUse(), s.Ring.Capacity()),
	}
	s.mu.RUnlock()
	for _, d := range usage {
		b, _ := json.Marshal(d)
		_ = c.send(websocket.TextMessage, b)
	}
	go s.drain(c, s.diagClients)
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	c := s.accept(w, r, nil)
	if c == nil {
		return
	}
	defer c.conn.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		var rep Reply
		if err := json.Unmarshal(data, &cmd); err != nil {
			rep = Reply{Error: "bad command: " + err.Error()}
		} else {
			log.Debug().Str("session", c.id).Str("op", cmd.Op).Msg("control")
			rep = s.Apply(cmd)
		}
		b, _ := json.Marshal(rep)
		if err := c.send(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"frame_id":   s.frameID,
		"uptime_s":   time.Since(s.startTime).Seconds(),
		"ticks":      s.Engine.Ticks(),
		"active":     s.Engine.Active(),
		"free":       s.Engine.Free(),
		"components": s.Ring.InUse(),
		"size":       s.Ring.Size(),
		"tick_ms":    s.Tick.Milliseconds(),
		"driver":     s.CurrentDriver,
	}
	if s.Player != nil {
		resp["show"] = s.Player.State
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleAnim reports one animation by handle id.
func (s *State) HandleAnim(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h := anim.HandleFromID(id)

	s.mu.RLock()
	defer s.mu.RUnlock()
	kind, ok := s.Engine.Kind(h)
	if !ok {
		http.Error(w, "no such animation", http.StatusNotFound)
		return
	}
	resp := map[string]any{
		"handle":   id,
		"kind":     kind.String(),
		"finished": s.Engine.IsFinished(h),
	}
	if c := s.Engine.Component(h); c != nil {
		resp["pos"] = c.Pos()
		resp["brightness"] = c.Brightness()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) sendTopology(c *client) {
	s.mu.RLock()
	top := map[string]any{
		"size":           s.Ring.Size(),
		"max_brightness": s.Ring.MaxBrightness(),
		"tick_ms":        s.Tick.Milliseconds(),
		"driver":         s.CurrentDriver,
		"session":        c.id,
	}
	s.mu.RUnlock()
	b, _ := json.Marshal(top)
	_ = c.send(websocket.TextMessage, b)
}

// broadcastFrame sends an 8 byte big-endian frame id followed by one level per position.
func (s *State) broadcastFrame(id uint64, levels []uint8) {
	b := make([]byte, 8+len(levels))
	binary.BigEndian.PutUint64(b, id)
	copy(b[8:], levels)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if err := c.send(websocket.BinaryMessage, b); err != nil {
			log.Debug().Err(err).Str("session", c.id).Msg("write frame")
		}
	}
}

// pushDiag must be called with mu held.
func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	for _, c := range s.diagClients {
		_ = c.send(websocket.TextMessage, b)
	}
}
