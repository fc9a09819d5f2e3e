package main

import (
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/armio/internal/fault"
	"github.com/coreman2200/armio/internal/led"
)

var simCmd = &cobra.Command{
	Use:   "sim [show]",
	Short: "Preview a show on the terminal. Esc or q quits.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSim,
}

func init() {
	rootCmd.AddCommand(simCmd)
	simCmd.Flags().String("log-file", "", "write logs here instead of discarding them")
	simCmd.Flags().Bool("hold", false, "keep the preview open after the show finishes")
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the screen owns stdout
	var out io.Writer = io.Discard
	if p, _ := cmd.Flags().GetString("log-file"); p != "" {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	setupLogging(out, cfg.LogLevel)

	name := cfg.Show
	if len(args) > 0 {
		name = args[0]
	}
	prog, err := loadShow(name, cfg.Ring.Size)
	if err != nil {
		return err
	}

	term, err := led.OpenTerminal(cfg.Ring.MaxBrightness)
	if err != nil {
		return err
	}
	defer term.Close()
	fault.OnExit(func() { term.Close() })

	done := false
	eng := newEngine(cfg, fault.Terminate)
	player := newPlayer(eng, func() { done = true })
	if err := player.Load(prog); err != nil {
		return err
	}
	player.Start()
	hold, _ := cmd.Flags().GetBool("hold")

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := term.Screen().PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(tickPeriod(cfg))
	defer ticker.Stop()
	levels := make([]uint8, eng.Ring().Size())
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return nil
				}
			case *tcell.EventResize:
				term.Screen().Sync()
			}

		case <-ticker.C:
			player.Tick()
			eng.Tic()
			eng.Ring().Frame(levels)
			if err := term.Write(levels); err != nil {
				return err
			}
			if done && !hold {
				log.Info().Uint64("ticks", eng.Ticks()).Msg("preview finished")
				return nil
			}
		}
	}
}
