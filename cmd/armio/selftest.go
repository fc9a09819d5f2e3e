package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/armio/internal/selftest"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest [index_sweep|all_on|bank_walk]...",
	Short: "Light test patterns on the configured driver.",
	RunE:  runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
	selftestCmd.Flags().Int("step-ms", 100, "time each pattern frame stays lit")
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(os.Stdout, cfg.LogLevel)

	kinds := selftest.Kinds
	if len(args) > 0 {
		kinds = nil
		for _, a := range args {
			k, err := selftest.Parse(a)
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
	}
	stepMS, _ := cmd.Flags().GetInt("step-ms")
	step := time.Duration(stepMS) * time.Millisecond

	drv, selected := openDriver(cfg)
	blankOnExit(drv, cfg.Ring.Size)
	defer drv.Close()

	levels := make([]uint8, cfg.Ring.Size)
	for _, k := range kinds {
		r := selftest.NewRunner(selftest.Plan{
			Kind:     k,
			Level:    uint8(cfg.Ring.MaxBrightness),
			BankSize: len(cfg.Matrix.SegmentPins),
		})
		log.Info().Str("test", string(k)).Str("driver", selected).Msg("self-test running")
		for r.Step(levels) {
			if err := drv.Write(levels); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			time.Sleep(step)
		}
		log.Info().Str("test", string(k)).Int("frames", r.Steps()).Msg("self-test done")
	}
	return drv.Write(make([]uint8, cfg.Ring.Size))
}
