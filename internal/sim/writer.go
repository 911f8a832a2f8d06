package sim

import (
	"hydra-sim/internal/analytics"
	"hydra-sim/internal/telemetry"
)

// SnapshotWriter is an interface to support different output writers.
type SnapshotWriter interface {
	Write(telemetry.SnapshotRow) error
}

// AnomalyWriter handles classified anomaly rows.
type AnomalyWriter interface {
	WriteAnomaly(telemetry.AnomalyRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.SnapshotRow) error
}

// Optional: Anomaly writers may support batch mode
type batchAnomalyWriter interface {
	WriteAnomalies([]telemetry.AnomalyRow) error
}

// ReportWriter receives the per-tick analytics report and reasoning lines.
type ReportWriter interface {
	WriteReport(analytics.Report, []string) error
}

// AdminStatusWriter allows writers to receive admin UI status updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// writeSnapshots sends rows to w, in one batch when supported.
func writeSnapshots(w SnapshotWriter, rows []telemetry.SnapshotRow) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(rows)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// writeAnomalies sends rows to w, in one batch when supported.
func writeAnomalies(w AnomalyWriter, rows []telemetry.AnomalyRow) error {
	if bw, ok := w.(batchAnomalyWriter); ok {
		return bw.WriteAnomalies(rows)
	}
	for _, r := range rows {
		if err := w.WriteAnomaly(r); err != nil {
			return err
		}
	}
	return nil
}
