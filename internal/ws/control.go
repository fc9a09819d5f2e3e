package ws

import (
	"fmt"

	"github.com/coreman2200/armio/internal/anim"
	diag "github.com/coreman2200/armio/internal/diagnostics"
	"github.com/coreman2200/armio/internal/display"
	"github.com/coreman2200/armio/internal/selftest"
	"github.com/coreman2200/armio/internal/show"
)

// Command is one /control message. Fields an op does not use are ignored.
type Command struct {
	Op         string `json:"op"` // swirl | rotate | random | fade_in | fade_out | stop | release | reset | selftest | show
	Pos        int    `json:"pos,omitempty"`
	Length     int    `json:"length,omitempty"`
	Brightness int    `json:"brightness,omitempty"`
	Interval   int    `json:"interval,omitempty"`
	Duration   int    `json:"duration,omitempty"`
	Distance   int    `json:"distance,omitempty"`
	Clockwise  bool   `json:"clockwise,omitempty"`
	Handle     uint64 `json:"handle,omitempty"`
	Name       string `json:"name,omitempty"` // self-test kind, or show file ("startup" for the boot show)
}

type Reply struct {
	OK     bool   `json:"ok"`
	Handle uint64 `json:"handle,omitempty"`
	Error  string `json:"error,omitempty"`
	Active int    `json:"active"`
	Free   int    `json:"free"`
}

// Apply runs one control command against the engine.
func (s *State) Apply(cmd Command) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.apply(cmd)
	rep := Reply{OK: err == nil, Active: s.Engine.Active(), Free: s.Engine.Free()}
	if err != nil {
		rep.Error = err.Error()
		s.pushDiag(diag.Diagnostic{
			Severity: diag.Warn, Code: "CONTROL.REJECTED", Summary: "Control command rejected",
			Detail: err.Error(), Evidence: map[string]any{"op": cmd.Op},
		})
	}
	if !h.IsZero() {
		rep.Handle = h.ID()
	}
	return rep
}

func (s *State) apply(cmd Command) (anim.Handle, error) {
	switch cmd.Op {
	case "swirl":
		h := s.Engine.Swirl(cmd.Pos, cmd.Length, cmd.Interval, cmd.Distance, cmd.Clockwise)
		if h.IsZero() {
			return h, fmt.Errorf("swirl not started")
		}
		return h, nil

	case "rotate", "random", "fade_in":
		bright := cmd.Brightness
		if cmd.Op == "fade_in" {
			bright = 0
		}
		c := s.light(cmd.Pos, cmd.Length, bright, cmd.Clockwise)
		if c == nil {
			return anim.Handle{}, fmt.Errorf("no free display component")
		}
		var h anim.Handle
		switch cmd.Op {
		case "rotate":
			h = s.Engine.Rotate(c, cmd.Clockwise, cmd.Interval, cmd.Duration)
		case "random":
			h = s.Engine.Random(c, cmd.Interval, cmd.Duration)
		default:
			h = s.Engine.FadeIn(c, cmd.Brightness, cmd.Interval)
		}
		return s.own(h, c)

	case "fade_out":
		// fade a component lit by an earlier control op, or light a fresh one
		if cmd.Handle != 0 {
			c, ok := s.owned[cmd.Handle]
			if !ok {
				return anim.Handle{}, fmt.Errorf("animation %d has no component to fade", cmd.Handle)
			}
			h := s.Engine.FadeOut(c, cmd.Interval)
			if h.IsZero() {
				return h, fmt.Errorf("fade_out not started")
			}
			s.borrowers[cmd.Handle] = append(s.borrowers[cmd.Handle], h)
			return h, nil
		}
		c := s.light(cmd.Pos, cmd.Length, cmd.Brightness, cmd.Clockwise)
		if c == nil {
			return anim.Handle{}, fmt.Errorf("no free display component")
		}
		return s.own(s.Engine.FadeOut(c, cmd.Interval), c)

	case "stop":
		s.Engine.Stop(anim.HandleFromID(cmd.Handle))
		return anim.Handle{}, nil

	case "release":
		h := anim.HandleFromID(cmd.Handle)
		if !s.Engine.Valid(h) {
			return anim.Handle{}, fmt.Errorf("no animation %d", cmd.Handle)
		}
		s.Engine.Release(h)
		if c, ok := s.owned[cmd.Handle]; ok {
			// fades borrowing the component go first
			for _, b := range s.borrowers[cmd.Handle] {
				if s.Engine.Valid(b) {
					s.Engine.Release(b)
				}
			}
			delete(s.borrowers, cmd.Handle)
			s.Ring.Release(c)
			delete(s.owned, cmd.Handle)
		}
		return anim.Handle{}, nil

	case "reset":
		s.reset()
		return anim.Handle{}, nil

	case "selftest":
		k, err := selftest.Parse(cmd.Name)
		if err != nil {
			return anim.Handle{}, err
		}
		s.testRunner = selftest.NewRunner(selftest.Plan{Kind: k, Level: uint8(s.Ring.MaxBrightness())})
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: cmd.Name})
		return anim.Handle{}, nil

	case "show":
		if s.Player == nil {
			return anim.Handle{}, fmt.Errorf("no show player")
		}
		prog := show.Startup(s.Ring.Size())
		if cmd.Name != "" && cmd.Name != "startup" {
			p, err := show.Load(cmd.Name)
			if err != nil {
				return anim.Handle{}, err
			}
			prog = p
		}
		if err := s.Player.Load(prog); err != nil {
			return anim.Handle{}, err
		}
		s.Player.Start()
		return anim.Handle{}, nil
	}
	return anim.Handle{}, fmt.Errorf("unknown op %q", cmd.Op)
}

// light acquires a point, or a snake when length > 1.
func (s *State) light(pos, length, brightness int, headLast bool) *display.Component {
	if length > 1 {
		return s.Ring.NewSnake(pos, length, brightness, headLast)
	}
	return s.Ring.NewPoint(pos, brightness)
}

func (s *State) own(h anim.Handle, c *display.Component) (anim.Handle, error) {
	if h.IsZero() {
		s.Ring.Release(c)
		return h, fmt.Errorf("animation not started")
	}
	s.owned[h.ID()] = c
	return h, nil
}

// reset drops every animation and component, show cues included.
func (s *State) reset() {
	if s.Player != nil {
		s.Player.Stop()
	}
	s.Engine.Reset()
	s.Ring.Reset()
	clear(s.owned)
	clear(s.borrowers)
	s.testRunner = nil
}
