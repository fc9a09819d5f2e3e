package main

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/armio/internal/anim"
	"github.com/coreman2200/armio/internal/config"
	"github.com/coreman2200/armio/internal/display"
	"github.com/coreman2200/armio/internal/fault"
	"github.com/coreman2200/armio/internal/led"
	"github.com/coreman2200/armio/internal/show"
)

// newEngine builds the ring and engine described by cfg. Faults go to fatal.
func newEngine(cfg *config.Config, fatal fault.Handler) *anim.Engine {
	ring := display.NewRing(display.Config{
		Size:          cfg.Ring.Size,
		MaxBrightness: cfg.Ring.MaxBrightness,
		Capacity:      cfg.Components,
		Fatal:         fatal,
	})
	l := log.Logger
	return anim.New(ring, anim.Options{
		Capacity: cfg.Capacity,
		Seed:     cfg.Seed,
		Fatal:    fatal,
		Logger:   &l,
	})
}

func newPlayer(eng *anim.Engine, onDone func()) *show.Player {
	return show.NewPlayer(eng, show.Hooks{
		OnCue: func(c show.Cue, id uint64) {
			log.Debug().Str("cue", c.Name).Str("effect", string(c.Effect)).Uint64("handle", id).Msg("cue fired")
		},
		OnDone: func() {
			log.Info().Msg("show finished")
			if onDone != nil {
				onDone()
			}
		},
	})
}

// loadShow returns the program named by path; "" and "startup" are the boot show.
func loadShow(path string, ringSize int) (show.Program, error) {
	if path == "" || path == "startup" {
		return show.Startup(ringSize), nil
	}
	return show.Load(path)
}

// blankOnExit turns the ring off and closes drv when the process terminates in error.
func blankOnExit(drv led.Driver, size int) {
	fault.OnExit(func() {
		_ = drv.Write(make([]uint8, size))
		_ = drv.Close()
	})
}

func tickPeriod(cfg *config.Config) time.Duration {
	return time.Duration(cfg.TickMS) * time.Millisecond
}
