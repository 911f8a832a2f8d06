package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"hydra-sim/internal/sim"
)

var (
	exportStation stationFlags
	exportTicks   int
	exportOut     string
	exportGzip    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Simulate a number of ticks and export the histories as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := exportStation.resolve(cmd, appCfg.Registry())
		if err != nil {
			return err
		}
		sess := sim.NewSession(st, sim.WithHistoryLen(appCfg.HistoryLen), sim.WithAnomalyLogLen(appCfg.AnomalyLogLen))
		sess.RunN(cmd.Context(), exportTicks)

		var out io.Writer = os.Stdout
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := sess.WriteCSV(out, exportGzip); err != nil {
			return err
		}
		slog.Info("exported histories", "station", st.Name, "ticks", exportTicks, "out", exportOut, "gzip", exportGzip)
		return nil
	},
}

func init() {
	exportStation.register(exportCmd)
	exportCmd.Flags().IntVar(&exportTicks, "ticks", 60, "Ticks to simulate before exporting")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: STDOUT)")
	exportCmd.Flags().BoolVar(&exportGzip, "gzip", false, "Gzip-compress the CSV")
}
