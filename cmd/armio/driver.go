package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/coreman2200/armio/internal/config"
	"github.com/coreman2200/armio/internal/led"
)

// openDriver opens the configured output. Hardware drivers that fail to come up fall
// back to the simulator, as does an unknown name.
func openDriver(cfg *config.Config) (led.Driver, string) {
	switch cfg.Driver {
	case "sim":
		return led.NewSim(log.Logger), "sim"

	case "nrz":
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Str("driver", "nrz").Msg("periph host init failed; falling back to SIM")
			return led.NewSim(log.Logger), "sim"
		}
		freq := physic.Frequency(cfg.SPI.FreqKHz) * physic.KiloHertz
		drv, err := led.OpenNRZ(cfg.SPI.Port, cfg.Ring.Size, cfg.Ring.MaxBrightness, freq)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "nrz").
				Str("port", cfg.SPI.Port).
				Int("freq_khz", cfg.SPI.FreqKHz).
				Msg("SPI init failed; falling back to SIM")
			return led.NewSim(log.Logger), "sim"
		}
		drv.SetGamma(cfg.SPI.Gamma)
		drv.SetLimiter(led.Limiter{ChanMA: cfg.SPI.ChanMA, BudgetMA: cfg.SPI.BudgetMA})
		return drv, "nrz"

	case "matrix":
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Str("driver", "matrix").Msg("periph host init failed; falling back to SIM")
			return led.NewSim(log.Logger), "sim"
		}
		dwell := time.Duration(cfg.Matrix.DwellUs) * time.Microsecond
		drv, err := led.OpenMatrix(cfg.Matrix.BankPins, cfg.Matrix.SegmentPins, cfg.Ring.MaxBrightness, dwell)
		if err != nil {
			log.Warn().Err(err).Str("driver", "matrix").Msg("GPIO init failed; falling back to SIM")
			return led.NewSim(log.Logger), "sim"
		}
		if drv.Count() < cfg.Ring.Size {
			log.Warn().Int("leds", drv.Count()).Int("ring", cfg.Ring.Size).Msg("matrix smaller than ring; falling back to SIM")
			_ = drv.Close()
			return led.NewSim(log.Logger), "sim"
		}
		return drv, "matrix"

	case "terminal":
		drv, err := led.OpenTerminal(cfg.Ring.MaxBrightness)
		if err != nil {
			log.Warn().Err(err).Str("driver", "terminal").Msg("terminal init failed; falling back to SIM")
			return led.NewSim(log.Logger), "sim"
		}
		return drv, "terminal"

	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using SIM")
		return led.NewSim(log.Logger), "sim"
	}
}
