// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"hydra-sim/internal/station"
	"hydra-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// gradeColors maps WQI grades to terminal colors.
var gradeColors = map[string]string{
	"A": colorGreen,
	"B": colorCyan,
	"C": colorYellow,
	"D": colorMagenta,
	"F": colorRed,
}

// severityColors maps anomaly severities to terminal colors.
var severityColors = []string{colorGray, colorYellow, colorMagenta, colorRed}

func gradeColor(g string) string {
	if c, ok := gradeColors[g]; ok {
		return c
	}
	return colorGray
}

func severityColor(sev int) string {
	if sev < 0 || sev >= len(severityColors) {
		return colorRed
	}
	return severityColors[sev]
}

// ColorStdoutWriter prints snapshot rows using ANSI colors.
type ColorStdoutWriter struct {
	station station.Config
	out     io.Writer
	once    sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(st station.Config) *ColorStdoutWriter {
	return &ColorStdoutWriter{station: st, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.station.Name == "" {
		return
	}
	cl := w.station.Climate()
	fmt.Fprintln(w.out, "Station:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", w.station.Name)
	fmt.Fprintf(tw, "Seed:\t%d\n", w.station.Seed)
	fmt.Fprintf(tw, "Coordinates:\t%.4f, %.4f\n", w.station.Lat, w.station.Lon)
	fmt.Fprintf(tw, "Altitude (m):\t%d\n", w.station.AltitudeM)
	fmt.Fprintf(tw, "Climate:\t%s (noise %.1f, fail %.2f, cycle %d)\n", cl.Zone, cl.NoiseFactor, cl.FailRate, cl.CyclePeriod)
	fmt.Fprintf(tw, "Baselines:\t%.0f W/m², %.0f %%\n", w.station.IrradianceBase, w.station.MembraneBase)
	tw.Flush()
	fmt.Fprintln(w.out)
}

func reading(r telemetry.Reading, format string) string {
	v, ok := r.Get()
	if !ok {
		return colorRed + "offline" + colorReset
	}
	return fmt.Sprintf(format, v)
}

// Write outputs a single snapshot row in colorized format.
func (w *ColorStdoutWriter) Write(row telemetry.SnapshotRow) error {
	w.once.Do(w.printOverview)

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%stick=%d%s ", colorBlue, row.Tick, colorReset)
	fmt.Fprintf(w.out, "%sirr=%.1f%s ", colorYellow, row.Irradiance, colorReset)
	fmt.Fprintf(w.out, "%sdesal=%.2f%s ", colorCyan, row.Desal, colorReset)
	fmt.Fprintf(w.out, "%smem=%.1f%s ", colorGreen, row.Membrane, colorReset)
	fmt.Fprintf(w.out, "%sbio=%.1f%s ", colorMagenta, row.Biofouling, colorReset)
	fmt.Fprintf(w.out, "ph=%s ", reading(row.PH, "%.2f"))
	fmt.Fprintf(w.out, "turb=%s ", reading(row.Turbidity, "%.2f"))
	fmt.Fprintf(w.out, "metal=%s ", reading(row.HeavyMetal, "%.4f"))
	fmt.Fprintf(w.out, "%swqi=%.1f(%s)%s", gradeColor(row.Grade), row.WQI, row.Grade, colorReset)
	if row.Countermeasure {
		fmt.Fprintf(w.out, " %sQQ%s", colorMagenta, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple snapshot rows.
func (w *ColorStdoutWriter) WriteBatch(rows []telemetry.SnapshotRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAnomaly prints an anomaly colored by severity.
func (w *ColorStdoutWriter) WriteAnomaly(row telemetry.AnomalyRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sANOMALY%s tick=%d type=%s severity=%d\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		severityColor(row.Severity), colorReset, row.Tick, row.Category, row.Severity)
	return nil
}

// WriteAnomalies prints multiple anomalies.
func (w *ColorStdoutWriter) WriteAnomalies(rows []telemetry.AnomalyRow) error {
	for _, r := range rows {
		_ = w.WriteAnomaly(r)
	}
	return nil
}
