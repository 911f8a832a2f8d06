package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"hydra-sim/internal/dashboard"
)

var dashboardOut string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render the Grafana dashboard for the GreptimeDB tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := dashboard.Render(dashboardOut, appEnv.SnapshotTable, appEnv.AnomalyTable); err != nil {
			return err
		}
		slog.Info("rendered dashboards", "out", dashboardOut, "snapshot_table", appEnv.SnapshotTable, "anomaly_table", appEnv.AnomalyTable)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVarP(&dashboardOut, "out", "o", "build", "Output directory for rendered dashboards")
}
