package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"hydra-sim/internal/telemetry"
)

const (
	// DefaultMaintenanceThreshold is the membrane integrity (%) that triggers service.
	DefaultMaintenanceThreshold = 80.0
	// MinMaintenanceSamples is the number of present samples the regression needs.
	MinMaintenanceSamples = 10
)

// Forecast is the membrane maintenance projection. TicksRemaining is nil
// when no forecast can be made.
type Forecast struct {
	TicksRemaining *int    `json:"ticks_remaining"`
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept"`
}

// Due reports whether maintenance is due now.
func (f Forecast) Due() bool { return f.TicksRemaining != nil && *f.TicksRemaining == 0 }

// PredictMaintenance fits an OLS line through the present membrane samples
// and projects when it crosses threshold. Offline samples are dropped and the
// remaining ones reindexed 0..n-1.
func PredictMaintenance(history *telemetry.History, threshold float64) Forecast {
	y := history.Present()
	n := len(y)
	if n < MinMaintenanceSamples {
		return Forecast{}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	// A zero denominator yields NaN.
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(slope) || math.IsNaN(intercept) {
		return Forecast{Intercept: y[n-1]}
	}

	f := Forecast{Slope: slope, Intercept: intercept}
	if slope >= 0 {
		return f
	}

	current := slope*float64(n-1) + intercept
	ticks := 0
	if current > threshold {
		ticks = ticksUntil((threshold-current)/slope)
	}
	f.TicksRemaining = &ticks
	return f
}

// ticksUntil truncates a non-negative tick estimate, saturating at MaxInt.
func ticksUntil(t float64) int {
	switch {
	case math.IsNaN(t) || t <= 0:
		return 0
	case t >= math.MaxInt:
		return math.MaxInt
	}
	return int(t)
}
