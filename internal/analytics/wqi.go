// Package analytics holds the derived metrics computed from snapshots and
// rolling histories. Every function is pure; offline readings are excluded
// explicitly and never counted as zero.
package analytics

import "hydra-sim/internal/telemetry"

// NeutralColor tags a WQI with no data behind it.
const NeutralColor = "#505068"

// WQI is a water quality index result.
type WQI struct {
	Score float64 `json:"score"`
	Grade string  `json:"grade"`
	Color string  `json:"color"`
}

type gradeBand struct {
	min   float64
	grade string
	color string
}

var gradeBands = []gradeBand{
	{90, "A", "#39ff14"},
	{70, "B", "#00f0ff"},
	{50, "C", "#ffd700"},
	{30, "D", "#ff8c00"},
	{0, "F", "#ff073a"},
}

type wqiChannel struct {
	reading telemetry.Reading
	weight  float64
	score   func(float64) float64
}

// ComputeWQI scores the three probes into a 0-100 index. Weights are
// renormalized over the channels that are present.
func ComputeWQI(ph, turbidity, heavyMetal telemetry.Reading) WQI {
	channels := []wqiChannel{
		{ph, 0.35, func(v float64) float64 {
			dev := max(0, abs(v-7.5)-1)
			return max(0, 100-15*dev)
		}},
		{turbidity, 0.35, func(v float64) float64 { return max(0, 100-10*v) }},
		{heavyMetal, 0.30, func(v float64) float64 { return max(0, 100-2000*v) }},
	}

	var sum, weights float64
	for _, c := range channels {
		v, ok := c.reading.Get()
		if !ok {
			continue
		}
		sum += c.score(v) * c.weight
		weights += c.weight
	}
	if weights == 0 {
		return WQI{Score: 0, Grade: "N/A", Color: NeutralColor}
	}

	score := min(100, max(0, sum/weights))
	for _, b := range gradeBands {
		if score >= b.min {
			return WQI{Score: score, Grade: b.grade, Color: b.color}
		}
	}
	last := gradeBands[len(gradeBands)-1]
	return WQI{Score: score, Grade: last.grade, Color: last.color}
}

// SnapshotWQI scores the sensors of a snapshot.
func SnapshotWQI(s telemetry.Snapshot) WQI {
	return ComputeWQI(s.Sensors.PH(), s.Sensors.Turbidity(), s.Sensors.HeavyMetal())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
