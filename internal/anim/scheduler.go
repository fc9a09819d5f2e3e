package anim

// Tic advances every enabled animation by one tick. It is the only walker of the
// registry; records that finish on this tick and release themselves are unlinked
// during the same pass.
func (e *Engine) Tic() {
	e.inTic = true
	defer func() { e.inTic = false }()
	e.ticks++

	for idx := e.head; idx != none; {
		r := e.recs.At(idx)
		next := r.next
		if r.enabled {
			e.advance(r)
		}
		// swirls stopped since the last tic are reaped here too
		if !r.enabled && r.autorelease {
			e.retire(idx)
		}
		idx = next
	}
}

func (e *Engine) advance(r *record) {
	r.counter++
	if r.counter >= r.interval {
		r.counter = 0
		e.step(r)
	}
	if r.remaining == Infinite {
		return
	}
	r.remaining--
	if r.remaining <= 0 {
		r.remaining = 0
		r.enabled = false
	}
}

func (e *Engine) step(r *record) {
	switch r.kind {
	case RotateCW:
		stepRotate(r, r.step)
	case RotateCCW:
		stepRotate(r, -r.step)
	case Random:
		e.stepRandom(r)
	case Fade:
		stepFade(r)
	default:
		r.enabled = false
		e.fatal(ErrInvalidKind)
	}
}
