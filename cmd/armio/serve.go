package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/armio/internal/fault"
	"github.com/coreman2200/armio/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine and serve frames and control over websockets.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "HTTP listen address")
	serveCmd.Flags().String("show", "", "show program to start with (default: the startup swirl)")
	serveCmd.Flags().Bool("no-show", false, "start with an empty ring")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(os.Stdout, cfg.LogLevel)
	if cmd.Flags().Changed("addr") {
		cfg.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("show") {
		cfg.Show, _ = cmd.Flags().GetString("show")
	}

	// ---- Engine and host state ----
	var state *ws.State
	fatal := func(err error) {
		if state != nil {
			state.Fault(err)
		}
		fault.Terminate(err)
	}
	eng := newEngine(cfg, fatal)
	drv, selected := openDriver(cfg)
	blankOnExit(drv, cfg.Ring.Size)

	state = ws.NewState(eng, newPlayer(eng, nil), drv, tickPeriod(cfg))
	state.CurrentDriver = selected

	if noShow, _ := cmd.Flags().GetBool("no-show"); !noShow {
		rep := state.Apply(ws.Command{Op: "show", Name: cfg.Show})
		if !rep.OK {
			log.Warn().Str("show", cfg.Show).Str("error", rep.Error).Msg("show not started")
		}
	}

	// ---- HTTP routes ----
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(state.Router()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run tick loop & server ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go state.RunTickLoop(ctx)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", selected).Int("tick_ms", cfg.TickMS).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server crashed")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-ch:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	_ = srv.Close()
	_ = drv.Write(make([]uint8, cfg.Ring.Size))
	return drv.Close()
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
