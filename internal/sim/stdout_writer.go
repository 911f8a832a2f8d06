// Writer implementation printing telemetry to STDOUT
package sim

import (
	"io"
	"os"

	"golang.org/x/term"

	"hydra-sim/internal/station"
	"hydra-sim/internal/telemetry"
)

// StdoutWriter prints colorized rows on a terminal and JSON lines otherwise.
type StdoutWriter struct {
	colorize bool
	color    *ColorStdoutWriter
	json     *JSONStdoutWriter
}

// NewStdoutWriter picks the output format from whether STDOUT is a terminal.
func NewStdoutWriter(st station.Config) *StdoutWriter {
	return newStdoutWriter(os.Stdout, st, term.IsTerminal(int(os.Stdout.Fd())))
}

func newStdoutWriter(out io.Writer, st station.Config, colorize bool) *StdoutWriter {
	return &StdoutWriter{
		colorize: colorize,
		color:    &ColorStdoutWriter{station: st, out: out},
		json:     &JSONStdoutWriter{out: out},
	}
}

// Write outputs a single snapshot row.
func (w *StdoutWriter) Write(row telemetry.SnapshotRow) error {
	if w.colorize {
		return w.color.Write(row)
	}
	return w.json.Write(row)
}

// WriteAnomaly outputs a single anomaly row.
func (w *StdoutWriter) WriteAnomaly(row telemetry.AnomalyRow) error {
	if w.colorize {
		return w.color.WriteAnomaly(row)
	}
	return w.json.WriteAnomaly(row)
}

// WriteAnomalies outputs multiple anomaly rows.
func (w *StdoutWriter) WriteAnomalies(rows []telemetry.AnomalyRow) error {
	if w.colorize {
		return w.color.WriteAnomalies(rows)
	}
	return w.json.WriteAnomalies(rows)
}
