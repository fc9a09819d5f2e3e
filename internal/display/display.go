// Package display models the LED ring as a set of Display Components.
//
// A Component is a lit shape with a ring position and a brightness level. Components
// are carved from a fixed pool owned by the Ring; Frame composes every visible
// component into one brightness level per ring position for an output driver.
package display

import (
	"github.com/coreman2200/armio/internal/arena"
	"github.com/coreman2200/armio/internal/fault"
)

const (
	RingSize      = 60  // positions on the watch face
	MaxBrightness = 100 // brightest level a component can hold
	DefaultPool   = 16
)

var (
	ErrPoolExhausted = fault.New(fault.DispAllocFail, "display component pool exhausted")
	ErrBadComponent  = fault.New(fault.DispClearBadCompType, "component not owned by ring")
	ErrBadKind       = fault.New(fault.DispDrawBadCompType, "unknown component kind")
)

// Kind selects how a Component is drawn.
type Kind uint8

const (
	kindUnused Kind = iota
	Point
	Snake
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Snake:
		return "snake"
	default:
		return "unused"
	}
}

// Component is one lit shape on the ring.
type Component struct {
	kind       Kind
	ring       *Ring
	idx        int
	pos        int
	length     int
	brightness int
	headLast   bool
	visible    bool
}

func (c *Component) Kind() Kind      { return c.kind }
func (c *Component) Pos() int        { return c.pos }
func (c *Component) Len() int        { return c.length }
func (c *Component) Brightness() int { return c.brightness }
func (c *Component) Visible() bool   { return c.visible }
func (c *Component) Show()           { c.visible = true }
func (c *Component) Hide()           { c.visible = false }

// SetPos moves the component, wrapping at the ring boundary in both directions.
func (c *Component) SetPos(p int) {
	c.pos = wrap(p, c.ring.size)
}

// SetBrightness clamps b into [0, ring max brightness].
func (c *Component) SetBrightness(b int) {
	if b < 0 {
		b = 0
	}
	if b > c.ring.maxBright {
		b = c.ring.maxBright
	}
	c.brightness = b
}

// Config sizes a Ring. Zero fields take the package defaults.
type Config struct {
	Size          int
	MaxBrightness int
	Capacity      int
	Fatal         fault.Handler
}

// Ring owns the component pool and the ring geometry.
type Ring struct {
	size      int
	maxBright int
	comps     *arena.Pool[Component]
	fatal     fault.Handler
}

func NewRing(cfg Config) *Ring {
	if cfg.Size <= 0 {
		cfg.Size = RingSize
	}
	if cfg.MaxBrightness <= 0 {
		cfg.MaxBrightness = MaxBrightness
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultPool
	}
	if cfg.Fatal == nil {
		cfg.Fatal = fault.Terminate
	}
	return &Ring{
		size:      cfg.Size,
		maxBright: cfg.MaxBrightness,
		comps:     arena.New[Component](cfg.Capacity),
		fatal:     cfg.Fatal,
	}
}

func (r *Ring) Size() int          { return r.size }
func (r *Ring) MaxBrightness() int { return r.maxBright }
func (r *Ring) InUse() int         { return r.comps.Len() }
func (r *Ring) Capacity() int      { return r.comps.Cap() }

// NewPoint acquires a single-element component. On pool exhaustion the fault is
// reported and nil is returned.
func (r *Ring) NewPoint(pos, brightness int) *Component {
	return r.acquire(Point, pos, 1, brightness, false)
}

// NewSnake acquires a run of length positions starting at start. Brightness is graded
// from the given level at the head to its lowest at the tail; headLast puts the head at
// the highest position of the run (the leading edge of a clockwise rotation).
func (r *Ring) NewSnake(start, length, brightness int, headLast bool) *Component {
	if length < 1 {
		length = 1
	}
	if length > r.size {
		length = r.size
	}
	return r.acquire(Snake, start, length, brightness, headLast)
}

func (r *Ring) acquire(kind Kind, pos, length, brightness int, headLast bool) *Component {
	idx, ok := r.comps.Acquire()
	if !ok {
		r.fatal(ErrPoolExhausted)
		return nil
	}
	c := r.comps.At(idx)
	*c = Component{
		kind:     kind,
		ring:     r,
		idx:      idx,
		length:   length,
		headLast: headLast,
		visible:  true,
	}
	c.SetPos(pos)
	c.SetBrightness(brightness)
	return c
}

// Release returns c to the pool. c must not be used afterwards.
func (r *Ring) Release(c *Component) {
	if c == nil || c.ring != r || !r.comps.InUse(c.idx) || r.comps.At(c.idx) != c {
		r.fatal(ErrBadComponent)
		return
	}
	r.comps.Release(c.idx)
}

// Reset drops every component.
func (r *Ring) Reset() {
	r.comps.Reset()
}

// Frame composes visible components into dst, one level per position; overlapping
// components keep the brighter level. dst is reused when it has room.
func (r *Ring) Frame(dst []uint8) []uint8 {
	if cap(dst) < r.size {
		dst = make([]uint8, r.size)
	}
	dst = dst[:r.size]
	for i := range dst {
		dst[i] = 0
	}
	r.comps.Each(func(_ int, c *Component) {
		if !c.visible {
			return
		}
		switch c.kind {
		case Point:
			lift(dst, c.pos, c.brightness)
		case Snake:
			for d := 0; d < c.length; d++ {
				off := d
				if c.headLast {
					off = c.length - 1 - d
				}
				lift(dst, wrap(c.pos+off, r.size), gradeLevel(c.brightness, c.length, d))
			}
		default:
			r.fatal(ErrBadKind)
		}
	})
	return dst
}

// gradeLevel is the level of the element d steps behind the head of a run.
func gradeLevel(head, length, d int) int {
	if head <= 0 {
		return 0
	}
	lvl := head * (length - d) / length
	if lvl < 1 {
		lvl = 1
	}
	return lvl
}

func lift(dst []uint8, pos, lvl int) {
	if lvl > 255 {
		lvl = 255
	}
	if uint8(lvl) > dst[pos] {
		dst[pos] = uint8(lvl)
	}
}

func wrap(p, n int) int {
	p %= n
	if p < 0 {
		p += n
	}
	return p
}
