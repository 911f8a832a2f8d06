// Snapshot types for the three HYDRA subsystems.
//
// Each state is immutable and clamps its fields to physical bounds on
// construction, so every snapshot satisfies the bounds regardless of how the
// simulator produced the raw values:
//
//	irradiance  [0, 1400] W/m²     output rate [0, ∞) L/hr
//	membrane    [0, 100] %         biofouling  [0, 100] %
//	pH          [0, 14]            turbidity   [0, ∞) NTU
//	heavy metal [0, ∞) PPM
package telemetry

import (
	"math"
	"time"
)

// Physical bounds.
const (
	MaxIrradiance = 1400.0
	MaxPercent    = 100.0
	MaxPH         = 14.0
)

// SolarState is the solar core: irradiance and desalination output.
type SolarState struct {
	irradiance float64
	outputRate float64
}

// NewSolarState clamps irradiance to [0, 1400] and output to [0, ∞).
func NewSolarState(irradiance, outputRate float64) SolarState {
	return SolarState{
		irradiance: clamp(irradiance, 0, MaxIrradiance),
		outputRate: clamp(outputRate, 0, math.Inf(1)),
	}
}

func (s SolarState) Irradiance() float64 { return s.irradiance }
func (s SolarState) OutputRate() float64 { return s.outputRate }

// DefenseState is the biological defense: membrane integrity and biofouling.
type DefenseState struct {
	membrane       float64
	biofouling     float64
	countermeasure bool
}

// NewDefenseState clamps membrane and biofouling to [0, 100].
func NewDefenseState(membrane, biofouling float64, countermeasure bool) DefenseState {
	return DefenseState{
		membrane:       clamp(membrane, 0, MaxPercent),
		biofouling:     clamp(biofouling, 0, MaxPercent),
		countermeasure: countermeasure,
	}
}

func (d DefenseState) Membrane() float64 { return d.membrane }
func (d DefenseState) Biofouling() float64 { return d.biofouling }
func (d DefenseState) Countermeasure() bool { return d.countermeasure }

// SensorState holds the water quality probes; any channel may be offline.
type SensorState struct {
	ph         Reading
	turbidity  Reading
	heavyMetal Reading
}

// NewSensorState clamps present readings; offline readings stay offline.
func NewSensorState(ph, turbidity, heavyMetal Reading) SensorState {
	return SensorState{
		ph:         ph.Map(func(v float64) float64 { return clamp(v, 0, MaxPH) }),
		turbidity:  turbidity.Map(func(v float64) float64 { return clamp(v, 0, math.Inf(1)) }),
		heavyMetal: heavyMetal.Map(func(v float64) float64 { return clamp(v, 0, math.Inf(1)) }),
	}
}

func (s SensorState) PH() Reading { return s.ph }
func (s SensorState) Turbidity() Reading { return s.turbidity }
func (s SensorState) HeavyMetal() Reading { return s.heavyMetal }

// Snapshot is the full system state for one tick. Ticks start at 1.
// Timestamp is informational and not part of the deterministic sequence.
type Snapshot struct {
	Solar     SolarState
	Defense   DefenseState
	Sensors   SensorState
	Tick      int
	Timestamp time.Time
}

// SameState reports whether two snapshots carry identical physical values and tick.
func (s Snapshot) SameState(o Snapshot) bool {
	return s.Tick == o.Tick && s.Solar == o.Solar && s.Defense == o.Defense && s.Sensors == o.Sensors
}

// clamp bounds v to [lo, hi]; NaN collapses to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
