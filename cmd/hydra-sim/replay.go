package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydra-sim/internal/config"
	"hydra-sim/internal/logging"
	"hydra-sim/internal/sim"
	"hydra-sim/internal/station"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a JSONL snapshot log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if replayInput == "" {
			return fmt.Errorf("--input is required")
		}
		w, err := newWriters(writerOptions{
			station:   station.Config{Name: "replay"},
			env:       replayEnv(),
			printOnly: replayPrintOnly,
		})
		if err != nil {
			return err
		}
		defer w.cleanup()
		ctx := logging.NewContext(cmd.Context(), logging.New(rootLogLevel))
		return sim.ReplayLogFile(ctx, replayInput, w.snapshots, replaySpeed)
	},
}

// replayEnv drops the log file settings so a replay never appends to the log
// it is reading.
func replayEnv() config.Env {
	env := appEnv
	env.LogFile = ""
	env.AnomalyLogFile = ""
	return env
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to a JSONL log (.gz is decompressed)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 replays without delay)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", true, "Print to STDOUT instead of GreptimeDB")
}
