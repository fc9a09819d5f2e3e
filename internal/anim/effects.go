package anim

import "github.com/coreman2200/armio/internal/display"

// Rotate moves c one position per step, clockwise (increasing position) or
// counter-clockwise, for duration ticks or Infinite.
func (e *Engine) Rotate(c *display.Component, clockwise bool, interval, duration int) Handle {
	return e.RotateBy(c, clockwise, 1, interval, duration)
}

// RotateBy is Rotate with a step of more than one position.
func (e *Engine) RotateBy(c *display.Component, clockwise bool, step, interval, duration int) Handle {
	h, r := e.create(rotateKind(clockwise), compRef{c: c, own: Borrowed}, interval, duration)
	if r != nil {
		r.step = max(step, 1)
	}
	return h
}

// Random jumps c to a new random position every step.
func (e *Engine) Random(c *display.Component, interval, duration int) Handle {
	h, _ := e.create(Random, compRef{c: c, own: Borrowed}, interval, duration)
	return h
}

// Fade ramps c's brightness from brightFrom to brightTo, one level per step. cycles
// counts half-cycles: 1 is a single ramp, 2 goes there and back, Infinite pulses
// until stopped.
func (e *Engine) Fade(c *display.Component, brightFrom, brightTo, interval, cycles int) Handle {
	maxB := e.ring.MaxBrightness()
	brightFrom = clamp(brightFrom, 0, maxB)
	brightTo = clamp(brightTo, 0, maxB)
	if cycles != Infinite && cycles < 1 {
		cycles = 1
	}

	duration := Infinite
	if cycles != Infinite {
		duration = cycles * abs(brightTo-brightFrom) * normInterval(interval)
	}
	h, r := e.create(Fade, compRef{c: c, own: Borrowed}, interval, duration)
	if r == nil {
		return h
	}
	r.brightFrom = brightFrom
	r.brightTo = brightTo
	r.halfCycles = cycles
	c.SetBrightness(brightFrom)
	return h
}

// FadeIn is a single ramp from dark up to brightness.
func (e *Engine) FadeIn(c *display.Component, brightness, interval int) Handle {
	return e.Fade(c, 0, brightness, interval, 1)
}

// FadeOut is a single ramp from c's current brightness down to dark.
func (e *Engine) FadeOut(c *display.Component, interval int) Handle {
	if c == nil {
		e.fatal(ErrNoComponent)
		return Handle{}
	}
	return e.Fade(c, c.Brightness(), 0, interval, 1)
}

// Swirl builds a comet-shaped snake of length positions at start, brightest at its
// leading end, and spins it distance steps. The snake and the animation are owned by
// the engine and released together when it finishes or is stopped.
func (e *Engine) Swirl(start, length, interval, distance int, clockwise bool) Handle {
	if e.inTic {
		e.fatal(ErrReentrant)
		return Handle{}
	}
	snake := e.ring.NewSnake(start, length, e.ring.MaxBrightness(), clockwise)
	if snake == nil {
		return Handle{}
	}

	duration := Infinite
	if distance != Infinite {
		duration = distance * normInterval(interval)
	}
	h, r := e.create(rotateKind(clockwise), compRef{c: snake, own: Owned}, interval, duration)
	if r == nil {
		e.ring.Release(snake)
		return h
	}
	r.step = 1
	r.autorelease = true
	return h
}

func rotateKind(clockwise bool) Kind {
	if clockwise {
		return RotateCW
	}
	return RotateCCW
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
