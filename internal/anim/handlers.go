package anim

func stepRotate(r *record, delta int) {
	c := r.comp.c
	c.SetPos(c.Pos() + delta)
}

// stepRandom jumps to a uniformly drawn position other than the current one.
func (e *Engine) stepRandom(r *record) {
	c := r.comp.c
	n := e.ring.Size()
	if n < 2 {
		return
	}
	p := e.rng.Intn(n - 1)
	if p >= c.Pos() {
		p++
	}
	c.SetPos(p)
}

// stepFade moves brightness one level toward brightTo. On arrival it either turns
// around for the next half-cycle or, on the last one, finishes the record on this tick.
func stepFade(r *record) {
	c := r.comp.c
	b := c.Brightness()
	switch {
	case b < r.brightTo:
		b++
	case b > r.brightTo:
		b--
	}
	c.SetBrightness(b)
	if b != r.brightTo {
		return
	}
	if r.halfCycles == Infinite || r.halfCycles > 1 {
		r.brightFrom, r.brightTo = r.brightTo, r.brightFrom
		if r.halfCycles != Infinite {
			r.halfCycles--
		}
		return
	}
	r.remaining = 1
}
