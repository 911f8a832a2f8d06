package telemetry

import "time"

// SnapshotRow is the flattened per-tick record handed to writers and sinks.
type SnapshotRow struct {
	RunID          string    `json:"run_id"`     // TAG
	Station        string    `json:"station"`    // TAG
	Tick           int       `json:"tick"`       // FIELD
	Irradiance     float64   `json:"irradiance"` // FIELD
	Desal          float64   `json:"desal"`
	Membrane       float64   `json:"membrane"`
	Biofouling     float64   `json:"biofouling"`
	Countermeasure bool      `json:"countermeasure"`
	PH             Reading   `json:"ph"`
	Turbidity      Reading   `json:"turbidity"`
	HeavyMetal     Reading   `json:"heavy_metal"`
	WQI            float64   `json:"wqi"`
	Grade          string    `json:"grade"`
	Efficiency     Reading   `json:"efficiency"`
	Timestamp      time.Time `json:"ts"` // TIME INDEX
}

// NewSnapshotRow flattens a snapshot. Derived analytics fields are left for
// the caller to fill.
func NewSnapshotRow(runID, station string, s Snapshot) SnapshotRow {
	return SnapshotRow{
		RunID:          runID,
		Station:        station,
		Tick:           s.Tick,
		Irradiance:     s.Solar.Irradiance(),
		Desal:          s.Solar.OutputRate(),
		Membrane:       s.Defense.Membrane(),
		Biofouling:     s.Defense.Biofouling(),
		Countermeasure: s.Defense.Countermeasure(),
		PH:             s.Sensors.PH(),
		Turbidity:      s.Sensors.Turbidity(),
		HeavyMetal:     s.Sensors.HeavyMetal(),
		Timestamp:      s.Timestamp,
	}
}

// Snapshot rebuilds the snapshot a row was flattened from, re-applying bounds.
func (r SnapshotRow) Snapshot() Snapshot {
	return Snapshot{
		Solar:     NewSolarState(r.Irradiance, r.Desal),
		Defense:   NewDefenseState(r.Membrane, r.Biofouling, r.Countermeasure),
		Sensors:   NewSensorState(r.PH, r.Turbidity, r.HeavyMetal),
		Tick:      r.Tick,
		Timestamp: r.Timestamp,
	}
}

// AnomalyRow records one classified anomaly.
type AnomalyRow struct {
	RunID     string    `json:"run_id"`
	Station   string    `json:"station"`
	Tick      int       `json:"tick"`
	Category  string    `json:"category"`
	Severity  int       `json:"severity"`
	Timestamp time.Time `json:"ts"`
}

// Default GreptimeDB tables.
const (
	SnapshotTableName = "hydra_snapshots"
	AnomalyTableName  = "hydra_anomalies"
)

func (SnapshotRow) TableName() string { return SnapshotTableName }

func (AnomalyRow) TableName() string { return AnomalyTableName }
