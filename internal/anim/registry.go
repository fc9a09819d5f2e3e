package anim

const none = -1

// create takes a record from the pool, initializes its timing, and links it at the
// registry head. It returns a nil record when the fault handler returned instead of
// terminating.
func (e *Engine) create(kind Kind, ref compRef, interval, duration int) (Handle, *record) {
	if e.inTic {
		e.fatal(ErrReentrant)
		return Handle{}, nil
	}
	if ref.c == nil {
		e.fatal(ErrNoComponent)
		return Handle{}, nil
	}
	idx, ok := e.recs.Acquire()
	if !ok {
		e.fatal(ErrPoolExhausted)
		return Handle{}, nil
	}
	r := e.recs.At(idx)
	*r = record{
		kind:      kind,
		comp:      ref,
		enabled:   true,
		interval:  normInterval(interval),
		remaining: duration,
		prev:      none,
		next:      none,
	}
	if duration != Infinite && duration <= 0 {
		r.remaining = 0
		r.enabled = false
	}
	e.link(idx)

	h := Handle{idx: idx, gen: e.gens[idx]}
	e.log.Debug().
		Str("kind", kind.String()).
		Int("slot", idx).
		Int("interval", r.interval).
		Int("duration", duration).
		Msg("animation started")
	return h, r
}

// retire unlinks idx and frees it, along with its component when owned.
func (e *Engine) retire(idx int) {
	r := e.recs.At(idx)
	e.unlink(idx)
	if r.comp.own == Owned && r.comp.c != nil {
		e.ring.Release(r.comp.c)
	}
	e.log.Debug().Str("kind", r.kind.String()).Int("slot", idx).Msg("animation released")
	e.recs.Release(idx)
	e.bump(idx)
}

func (e *Engine) link(idx int) {
	r := e.recs.At(idx)
	r.prev = none
	r.next = e.head
	if e.head != none {
		e.recs.At(e.head).prev = idx
	}
	e.head = idx
}

func (e *Engine) unlink(idx int) {
	r := e.recs.At(idx)
	if r.prev != none {
		e.recs.At(r.prev).next = r.next
	} else {
		e.head = r.next
	}
	if r.next != none {
		e.recs.At(r.next).prev = r.prev
	}
	r.prev, r.next = none, none
}

func normInterval(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
