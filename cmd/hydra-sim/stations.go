package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List known stations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tLAT\tLON\tALT\tSEED\tCLIMATE\tIRRADIANCE\tMEMBRANE")
		for _, st := range appCfg.Registry().List() {
			def := ""
			if st.Name == appCfg.DefaultStation {
				def = " *"
			}
			fmt.Fprintf(tw, "%s%s\t%.2f\t%.2f\t%d\t%d\t%s\t%.0f\t%.1f\n",
				st.Name, def, st.Lat, st.Lon, st.AltitudeM, st.Seed, st.Climate().Zone, st.IrradianceBase, st.MembraneBase)
		}
		return tw.Flush()
	},
}
