// Command armio runs the LED ring animation engine: as a websocket-controlled service,
// as a terminal preview, or headless against a driver for self-tests and shows.
package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/armio/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "armio",
	Short: "Animation engine for a 60 LED watch ring.",
	Long: `armio drives the animation engine of a 60 LED ring watch face. It ticks ` +
		`rotate, random, fade and swirl effects and writes the composed frames to a ` +
		`simulated, SPI, GPIO matrix or terminal output.`,
	SilenceUsage: true,
}

func init() {
	addConfigFlags(rootCmd)
}

// addConfigFlags defines the flags loadConfig reads.
func addConfigFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("config", "armio.yaml", "path to config file")
	f.String("env", ".env", "dotenv file with ARMIO_* overrides")
	f.String("driver", "", "driver: sim | nrz | matrix | terminal")
	f.Int("tick-ms", 0, "engine tick period in milliseconds")
	f.Int64("seed", 0, "random effect seed")
	f.String("log-level", "", "trace | debug | info | warn | error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(out io.Writer, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// loadConfig layers defaults, the config file, the env file and process environment,
// then any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		if !os.IsNotExist(err) || flags.Changed("config") {
			return nil, err
		}
		cfg = config.Default()
	}

	envPath, _ := flags.GetString("env")
	env, err := config.Env(envPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}

	if flags.Changed("driver") {
		cfg.Driver, _ = flags.GetString("driver")
	}
	if flags.Changed("tick-ms") {
		cfg.TickMS, _ = flags.GetInt("tick-ms")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	return cfg, cfg.Validate()
}
