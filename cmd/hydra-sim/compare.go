package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hydra-sim/internal/analytics"
	"hydra-sim/internal/sim"
)

var compareTicks int

var compareCmd = &cobra.Command{
	Use:   "compare <station> <other>",
	Short: "Compare sampled averages of two stations",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := appCfg.Registry()
		a, err := lookupStation(reg, args[0])
		if err != nil {
			return err
		}
		b, err := lookupStation(reg, args[1])
		if err != nil {
			return err
		}
		ha := sim.SampleComparison(a, compareTicks, appCfg.HistoryLen)
		hb := sim.SampleComparison(b, compareTicks, appCfg.HistoryLen)
		rows := analytics.CompareStations(ha, hb, a.Name, b.Name)

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "METRIC\t%s\t%s\tDELTA\tBETTER\n", a.Name, b.Name)
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Metric, r.StationA, r.StationB, r.Delta, r.Winner)
		}
		return tw.Flush()
	},
}

func init() {
	compareCmd.Flags().IntVar(&compareTicks, "ticks", sim.DefaultComparisonTicks, "Ticks to sample per station")
}
