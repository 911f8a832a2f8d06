package sim

import (
	"errors"

	"hydra-sim/internal/analytics"
	"hydra-sim/internal/telemetry"
)

// MultiWriter fans snapshot, anomaly and report rows out to several writers.
// Every writer is tried; failures are joined into one error.
type MultiWriter struct {
	writers        []SnapshotWriter
	anomalyWriters []AnomalyWriter
	reportWriters  []ReportWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws []SnapshotWriter, aws []AnomalyWriter, rws []ReportWriter) *MultiWriter {
	return &MultiWriter{writers: ws, anomalyWriters: aws, reportWriters: rws}
}

// Add registers w for every writer interface it implements.
func (mw *MultiWriter) Add(w any) {
	if sw, ok := w.(SnapshotWriter); ok {
		mw.writers = append(mw.writers, sw)
	}
	if aw, ok := w.(AnomalyWriter); ok {
		mw.anomalyWriters = append(mw.anomalyWriters, aw)
	}
	if rw, ok := w.(ReportWriter); ok {
		mw.reportWriters = append(mw.reportWriters, rw)
	}
}

// Write sends a snapshot row to all writers.
func (mw *MultiWriter) Write(row telemetry.SnapshotRow) error {
	var errs []error
	for _, w := range mw.writers {
		errs = append(errs, w.Write(row))
	}
	return errors.Join(errs...)
}

// WriteBatch sends multiple snapshot rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.SnapshotRow) error {
	var errs []error
	for _, w := range mw.writers {
		errs = append(errs, writeSnapshots(w, rows))
	}
	return errors.Join(errs...)
}

// WriteAnomaly sends an anomaly row to all anomaly writers.
func (mw *MultiWriter) WriteAnomaly(row telemetry.AnomalyRow) error {
	var errs []error
	for _, w := range mw.anomalyWriters {
		errs = append(errs, w.WriteAnomaly(row))
	}
	return errors.Join(errs...)
}

// WriteAnomalies sends multiple anomalies to all anomaly writers, using batch if supported.
func (mw *MultiWriter) WriteAnomalies(rows []telemetry.AnomalyRow) error {
	var errs []error
	for _, w := range mw.anomalyWriters {
		errs = append(errs, writeAnomalies(w, rows))
	}
	return errors.Join(errs...)
}

// WriteReport forwards the tick report to all report writers.
func (mw *MultiWriter) WriteReport(r analytics.Report, reasoning []string) error {
	var errs []error
	for _, w := range mw.reportWriters {
		errs = append(errs, w.WriteReport(r, reasoning))
	}
	return errors.Join(errs...)
}

// SetAdminStatus forwards admin status to writers that display it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.writers {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}
