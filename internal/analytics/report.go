package analytics

import (
	"hydra-sim/internal/anomaly"
	"hydra-sim/internal/telemetry"
)

// Report bundles the analytics derived for the latest tick.
type Report struct {
	Station     string            `json:"station"`
	Tick        int               `json:"tick"`
	WQI         WQI               `json:"wqi"`
	WHOStatus   Status            `json:"who_status"`
	WHOChecks   []Check           `json:"who_checks"`
	Efficiency  telemetry.Reading `json:"efficiency"`
	Maintenance Forecast          `json:"maintenance"`
	Summary     []SummaryItem     `json:"summary"`
	Alerts      []Alert           `json:"alerts"`
}

// BuildReport derives the per-tick analytics from the latest snapshot, the
// session histories and the anomaly log.
func BuildReport(station string, s telemetry.Snapshot, h *telemetry.Histories, log *anomaly.Log) Report {
	status, checks := CheckWHO(s.Sensors.PH(), s.Sensors.Turbidity(), s.Sensors.HeavyMetal())
	return Report{
		Station:     station,
		Tick:        s.Tick,
		WQI:         SnapshotWQI(s),
		WHOStatus:   status,
		WHOChecks:   checks,
		Efficiency:  EnergyEfficiency(s.Solar.OutputRate(), s.Solar.Irradiance()),
		Maintenance: PredictMaintenance(h.Series(telemetry.MetricMembrane), DefaultMaintenanceThreshold),
		Summary:     Summary(h, log.Total(), s.Tick),
		Alerts:      AlertSummary(log.Events(), AlertWindow, AlertMinSeverity, AlertLimit),
	}
}
