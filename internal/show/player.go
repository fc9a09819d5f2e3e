package show

import (
	"errors"
	"slices"

	"github.com/coreman2200/armio/internal/anim"
	"github.com/coreman2200/armio/internal/display"
)

type liveCue struct {
	cue  int
	h    anim.Handle
	comp *display.Component // lit by the player; nil for swirls
}

// Player runs a Program on an engine, one call to Tick per engine tic.
type Player struct {
	State PlayerState

	eng   *anim.Engine
	prog  Program
	now   int // ticks since start
	next  int // next cue to fire
	live  []liveCue
	hooks Hooks
}

// NewPlayer constructs a Player with provided hooks.
func NewPlayer(eng *anim.Engine, h Hooks) *Player {
	return &Player{State: Idle, eng: eng, hooks: h}
}

// Load replaces the current program, stopping whatever ran before.
func (p *Player) Load(prog Program) error {
	if len(prog.Cues) == 0 {
		return errors.New("program has no cues")
	}
	p.Stop()
	prog.Cues = slices.Clone(prog.Cues)
	slices.SortStableFunc(prog.Cues, func(a, b Cue) int { return a.At - b.At })
	p.prog = prog
	return nil
}

func (p *Player) Program() Program { return p.prog }
func (p *Player) Now() int         { return p.now }
func (p *Player) Live() int        { return len(p.live) }

func (p *Player) Start() {
	if p.State == Running || len(p.prog.Cues) == 0 {
		return
	}
	p.State = Running
}

func (p *Player) Pause() {
	if p.State == Running {
		p.State = Paused
	}
}

func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop releases every running cue and rewinds to the start.
func (p *Player) Stop() {
	for _, l := range p.live {
		p.drop(l)
	}
	p.live = p.live[:0]
	p.State = Idle
	p.now = 0
	p.next = 0
}

// Tick fires due cues, reaps finished ones and advances the clock.
func (p *Player) Tick() {
	if p.State != Running {
		return
	}
	for p.next < len(p.prog.Cues) && p.prog.Cues[p.next].At <= p.now {
		p.fire(p.next)
		p.next++
	}

	live := p.live[:0]
	for _, l := range p.live {
		if p.eng.IsFinished(l.h) {
			p.drop(l)
			continue
		}
		live = append(live, l)
	}
	p.live = live

	if p.next >= len(p.prog.Cues) && len(p.live) == 0 {
		if p.prog.Loop {
			p.now, p.next = 0, 0
			return
		}
		p.State = Idle
		p.now, p.next = 0, 0
		if p.hooks.OnDone != nil {
			p.hooks.OnDone()
		}
		return
	}
	p.now++
}

func (p *Player) fire(i int) {
	c := p.prog.Cues[i]
	ring := p.eng.Ring()

	var comp *display.Component
	if c.Effect != Swirl {
		bright := c.Brightness
		if c.Effect == FadeIn {
			bright = 0
		}
		if c.Length > 1 {
			comp = ring.NewSnake(c.Pos, c.Length, bright, c.Clockwise)
		} else {
			comp = ring.NewPoint(c.Pos, bright)
		}
		if comp == nil {
			return
		}
	}

	var h anim.Handle
	switch c.Effect {
	case Swirl:
		h = p.eng.Swirl(c.Pos, c.Length, c.Interval, c.Distance, c.Clockwise)
	case Rotate:
		h = p.eng.Rotate(comp, c.Clockwise, c.Interval, c.Duration)
	case Random:
		h = p.eng.Random(comp, c.Interval, c.Duration)
	case Fade:
		h = p.eng.Fade(comp, c.Brightness, c.BrightEnd, c.Interval, c.Cycles)
	case FadeIn:
		h = p.eng.FadeIn(comp, c.Brightness, c.Interval)
	case FadeOut:
		h = p.eng.FadeOut(comp, c.Interval)
	}
	if h.IsZero() {
		if comp != nil {
			ring.Release(comp)
		}
		return
	}
	p.live = append(p.live, liveCue{cue: i, h: h, comp: comp})
	if p.hooks.OnCue != nil {
		p.hooks.OnCue(c, h.ID())
	}
}

func (p *Player) drop(l liveCue) {
	if p.eng.Valid(l.h) {
		p.eng.Release(l.h)
	}
	if l.comp != nil {
		p.eng.Ring().Release(l.comp)
	}
}
