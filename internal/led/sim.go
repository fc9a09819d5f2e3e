package led

import (
	"github.com/rs/zerolog"
)

// Sim is a headless Driver that keeps the last frame and logs a compact summary of
// each one at debug level.
type Sim struct {
	Count int
	Last  []uint8
	log   zerolog.Logger
}

func NewSim(l zerolog.Logger) *Sim {
	return &Sim{log: l.With().Str("driver", "sim").Logger()}
}

func (d *Sim) Write(levels []uint8) error {
	d.Count++
	d.Last = append(d.Last[:0], levels...)
	lit, peak, peakAt := 0, uint8(0), -1
	for i, l := range levels {
		if l == 0 {
			continue
		}
		lit++
		if l > peak {
			peak, peakAt = l, i
		}
	}
	d.log.Debug().
		Int("frame", d.Count).
		Int("lit", lit).
		Uint8("peak", peak).
		Int("peak_at", peakAt).
		Msg("frame")
	return nil
}

func (d *Sim) Close() error {
	for i := range d.Last {
		d.Last[i] = 0
	}
	return nil
}
