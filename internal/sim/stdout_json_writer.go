package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"hydra-sim/internal/telemetry"
)

// JSONStdoutWriter prints snapshot and anomaly rows as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs a snapshot row in JSON format.
func (w *JSONStdoutWriter) Write(row telemetry.SnapshotRow) error { return w.encode(row) }

// WriteBatch outputs multiple snapshot rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.SnapshotRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAnomaly outputs an anomaly row in JSON format.
func (w *JSONStdoutWriter) WriteAnomaly(row telemetry.AnomalyRow) error { return w.encode(row) }

// WriteAnomalies outputs multiple anomaly rows in JSON format.
func (w *JSONStdoutWriter) WriteAnomalies(rows []telemetry.AnomalyRow) error {
	for _, r := range rows {
		if err := w.WriteAnomaly(r); err != nil {
			return err
		}
	}
	return nil
}
