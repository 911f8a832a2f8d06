package sim

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"hydra-sim/internal/station"
	"hydra-sim/internal/telemetry"
)

func TestStdoutWriterJSONFallback(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newStdoutWriter(buf, station.Default(), false)
	row := telemetry.SnapshotRow{Station: "s", Tick: 1, PH: telemetry.Offline(), Timestamp: time.Unix(0, 0)}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(out, "{") {
		t.Fatalf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"ph":null`) {
		t.Fatalf("offline pH should encode as null: %q", out)
	}
}

func TestStdoutWriterColorized(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newStdoutWriter(buf, station.Default(), true)
	row := sampleSnapshotRow()
	row.HeavyMetal = telemetry.Offline()
	row.Countermeasure = true
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()
	if strings.Count(output, "Station:") != 1 {
		t.Fatalf("overview should print exactly once: %q", output)
	}
	if !strings.Contains(output, station.Default().Name) || !strings.Contains(output, "Tropical") {
		t.Fatalf("overview missing station details: %q", output)
	}
	if !strings.Contains(output, "\x1b[") {
		t.Fatalf("expected color codes in output: %q", output)
	}
	if !strings.Contains(output, "metal="+colorRed+"offline") {
		t.Fatalf("offline probe not marked: %q", output)
	}
	if !strings.Contains(output, "QQ") {
		t.Fatalf("countermeasure marker missing: %q", output)
	}
}

func TestStdoutWriterAnomalies(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newStdoutWriter(buf, station.Config{}, true)
	rows := []telemetry.AnomalyRow{
		{Tick: 3, Category: "HEAVY_METAL", Severity: 3},
		{Tick: 3, Category: "PH_OFFLINE", Severity: 1},
	}
	if err := w.WriteAnomalies(rows); err != nil {
		t.Fatalf("WriteAnomalies: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "ANOMALY") != 2 || !strings.Contains(out, colorRed+"ANOMALY") {
		t.Fatalf("unexpected anomaly output: %q", out)
	}

	buf.Reset()
	jw := newStdoutWriter(buf, station.Config{}, false)
	if err := jw.WriteAnomaly(rows[0]); err != nil {
		t.Fatalf("WriteAnomaly: %v", err)
	}
	if !strings.Contains(buf.String(), `"category":"HEAVY_METAL"`) {
		t.Fatalf("unexpected JSON anomaly: %q", buf.String())
	}
}
