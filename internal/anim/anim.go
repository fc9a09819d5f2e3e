// Package anim runs tick-driven animations over display components.
//
// An Engine owns a fixed pool of animation records and an index-linked registry of the
// active ones. Constructors (Rotate, Random, Fade, Swirl, ...) take a record from the pool
// and link it into the registry; Tic advances every enabled record by one tick and
// dispatches a step when its interval elapses.
//
// The Engine performs no locking. Exactly one goroutine may call into it at a time, and
// nothing may call back into it while Tic is running.
package anim

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/coreman2200/armio/internal/arena"
	"github.com/coreman2200/armio/internal/display"
	"github.com/coreman2200/armio/internal/fault"
)

// Infinite is the duration (or fade cycle count) of an animation that runs until stopped.
const Infinite = -1

const DefaultCapacity = 16

var (
	ErrPoolExhausted = fault.New(fault.AnimAllocFail, "animation pool exhausted")
	ErrInvalidKind   = fault.New(fault.AnimBadType, "invalid animation kind")
	ErrReentrant     = fault.New(fault.AssertionFail, "animation registry touched during tic")
	ErrNoComponent   = fault.New(fault.AssertionFail, "animation needs a display component")
)

// Kind is the effect an animation applies on each step.
type Kind uint8

const (
	unused Kind = iota
	RotateCW
	RotateCCW
	Random
	Fade
)

func (k Kind) String() string {
	switch k {
	case RotateCW:
		return "rotate_cw"
	case RotateCCW:
		return "rotate_ccw"
	case Random:
		return "random"
	case Fade:
		return "fade"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Ownership says who frees an animation's component.
type Ownership uint8

const (
	Borrowed Ownership = iota // caller keeps the component
	Owned                     // released with the animation
)

type compRef struct {
	c   *display.Component
	own Ownership
}

type record struct {
	kind        Kind
	comp        compRef
	enabled     bool
	autorelease bool

	interval  int // ticks per step
	counter   int // ticks since last step
	remaining int // ticks left, or Infinite

	step       int // rotate only
	brightFrom int // fade only
	brightTo   int
	halfCycles int

	prev, next int // registry links
}

// Handle refers to an animation until it is released.
type Handle struct {
	idx int
	gen uint32
}

// IsZero reports whether h was never issued (failed creation).
func (h Handle) IsZero() bool { return h.gen == 0 }

// ID packs h into an integer for use outside the process (control sockets, logs).
func (h Handle) ID() uint64 { return uint64(h.gen)<<32 | uint64(uint32(h.idx)) }

// HandleFromID reverses Handle.ID.
func HandleFromID(id uint64) Handle {
	return Handle{idx: int(uint32(id)), gen: uint32(id >> 32)}
}

// Options configures an Engine. Zero values take defaults.
type Options struct {
	Capacity int
	Seed     int64
	Fatal    fault.Handler
	Logger   *zerolog.Logger
}

// Engine is one animation context: a record pool plus the registry of active records.
type Engine struct {
	ring  *display.Ring
	recs  *arena.Pool[record]
	gens  []uint32
	head  int
	rng   *rand.Rand
	fatal fault.Handler
	log   zerolog.Logger

	inTic bool
	ticks uint64
}

// New creates an Engine animating components of ring, with an empty pool and registry.
func New(ring *display.Ring, opts Options) *Engine {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Fatal == nil {
		opts.Fatal = fault.Terminate
	}
	l := zerolog.Nop()
	if opts.Logger != nil {
		l = *opts.Logger
	}
	e := &Engine{
		ring:  ring,
		recs:  arena.New[record](opts.Capacity),
		gens:  make([]uint32, opts.Capacity),
		head:  none,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		fatal: opts.Fatal,
		log:   l.With().Str("component", "anim").Logger(),
	}
	for i := range e.gens {
		e.gens[i] = 1
	}
	return e
}

// Reset stops and drops every animation, freeing owned components, and invalidates
// all outstanding handles.
func (e *Engine) Reset() {
	if e.inTic {
		e.fatal(ErrReentrant)
		return
	}
	e.recs.Each(func(idx int, r *record) {
		if r.comp.own == Owned && r.comp.c != nil {
			e.ring.Release(r.comp.c)
		}
		e.bump(idx)
	})
	e.recs.Reset()
	e.head = none
	e.log.Debug().Msg("engine reset")
}

func (e *Engine) Ring() *display.Ring { return e.ring }
func (e *Engine) Active() int         { return e.recs.Len() }
func (e *Engine) Free() int           { return e.recs.Free() }
func (e *Engine) Capacity() int       { return e.recs.Cap() }
func (e *Engine) Ticks() uint64       { return e.ticks }

// IsFinished reports whether the animation is disabled. Released or never-issued
// handles count as finished.
func (e *Engine) IsFinished(h Handle) bool {
	r, ok := e.lookup(h)
	if !ok {
		return true
	}
	return !r.enabled
}

// Valid reports whether h still refers to an allocated record. Swirls stop being valid
// on the tic after they finish.
func (e *Engine) Valid(h Handle) bool {
	_, ok := e.lookup(h)
	return ok
}

// Kind returns the effect of a live animation.
func (e *Engine) Kind(h Handle) (Kind, bool) {
	r, ok := e.lookup(h)
	if !ok {
		return unused, false
	}
	return r.kind, true
}

// Component returns the display component a live animation drives.
func (e *Engine) Component(h Handle) *display.Component {
	r, ok := e.lookup(h)
	if !ok {
		return nil
	}
	return r.comp.c
}

// Stop disables the animation. Its record and component stay allocated until Release,
// except for self-owned animations such as swirls, which the next Tic reaps.
func (e *Engine) Stop(h Handle) {
	if e.inTic {
		e.fatal(ErrReentrant)
		return
	}
	r, ok := e.lookup(h)
	if !ok {
		e.log.Warn().Uint64("handle", h.ID()).Msg("stop on stale handle")
		return
	}
	r.enabled = false
}

// Release unlinks the animation, returns its record to the pool and, when the
// component is owned, releases the component too. h is invalid afterwards.
func (e *Engine) Release(h Handle) {
	if e.inTic {
		e.fatal(ErrReentrant)
		return
	}
	if _, ok := e.lookup(h); !ok {
		e.log.Warn().Uint64("handle", h.ID()).Msg("release on stale handle")
		return
	}
	e.retire(h.idx)
}

func (e *Engine) lookup(h Handle) (*record, bool) {
	if h.gen == 0 || !e.recs.InUse(h.idx) || e.gens[h.idx] != h.gen {
		return nil, false
	}
	return e.recs.At(h.idx), true
}

func (e *Engine) bump(idx int) {
	e.gens[idx]++
	if e.gens[idx] == 0 {
		e.gens[idx] = 1
	}
}
