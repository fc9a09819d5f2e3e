package main

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/armio/internal/fault"
	"github.com/coreman2200/armio/internal/show"
)

var showCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Play a show program on the configured driver until it ends.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var showCheckCmd = &cobra.Command{
	Use:   "check file...",
	Short: "Validate show programs without playing them.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(os.Stdout, "info")
		for _, a := range args {
			p, err := show.Load(a)
			if err != nil {
				return err
			}
			log.Info().Str("file", a).Int("cues", len(p.Cues)).Bool("loop", p.Loop).Msg("show ok")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showCheckCmd)
	showCmd.Flags().Int("max-ticks", 0, "stop after this many ticks (0 runs to the end)")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(os.Stdout, cfg.LogLevel)

	name := cfg.Show
	if len(args) > 0 {
		name = args[0]
	}
	prog, err := loadShow(name, cfg.Ring.Size)
	if err != nil {
		return err
	}
	if prog.Seed != 0 && !cmd.Flags().Changed("seed") {
		cfg.Seed = prog.Seed
	}
	maxTicks, _ := cmd.Flags().GetInt("max-ticks")

	drv, selected := openDriver(cfg)
	blankOnExit(drv, cfg.Ring.Size)
	defer drv.Close()

	eng := newEngine(cfg, fault.Terminate)
	done := false
	player := newPlayer(eng, func() { done = true })
	if err := player.Load(prog); err != nil {
		return err
	}
	player.Start()
	log.Info().Str("show", name).Str("driver", selected).Int("cues", len(prog.Cues)).Msg("show starting")

	ticker := time.NewTicker(tickPeriod(cfg))
	defer ticker.Stop()
	levels := make([]uint8, eng.Ring().Size())
	for range ticker.C {
		player.Tick()
		eng.Tic()
		eng.Ring().Frame(levels)
		if err := drv.Write(levels); err != nil {
			return err
		}
		if done || (maxTicks > 0 && eng.Ticks() >= uint64(maxTicks)) {
			break
		}
	}
	player.Stop()
	return drv.Write(make([]uint8, cfg.Ring.Size))
}
