// Simulator producing deterministic HYDRA station snapshots
package sim

import (
	"math"
	"math/rand/v2"
	"time"

	"hydra-sim/internal/station"
	"hydra-sim/internal/telemetry"
)

// Fallbacks used when no station is given.
const (
	DefaultSeed     = 42
	DefaultLatitude = 18.5883
)

// Simulator advances a station one tick at a time. It owns its generator and
// is not safe for concurrent use; callers serialize Step.
type Simulator struct {
	station station.Config
	climate station.Climate
	irrBase float64
	memBase float64
	rng     *rand.Rand
	tick    int
	now     func() time.Time
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithClock overrides the wall clock used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator creates a simulator for the given station. Zero baselines fall
// back to the defaults.
func NewSimulator(cfg station.Config, opts ...Option) *Simulator {
	s := &Simulator{
		station: cfg,
		climate: cfg.Climate(),
		irrBase: cfg.IrradianceBase,
		memBase: cfg.MembraneBase,
		rng:     newRand(cfg.Seed),
		now:     time.Now,
	}
	if s.irrBase == 0 {
		s.irrBase = station.DefaultIrradianceBase
	}
	if s.memBase == 0 {
		s.memBase = station.DefaultMembraneBase
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewDefaultSimulator uses seed 42, the default baselines and a tropical climate.
func NewDefaultSimulator(opts ...Option) *Simulator {
	return NewSimulator(station.Config{
		Name:           station.DefaultName,
		Seed:           DefaultSeed,
		Lat:            DefaultLatitude,
		IrradianceBase: station.DefaultIrradianceBase,
		MembraneBase:   station.DefaultMembraneBase,
	}, opts...)
}

func newRand(seed uint32) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// Station returns the simulated station.
func (s *Simulator) Station() station.Config { return s.station }

// Climate returns the resolved climate profile.
func (s *Simulator) Climate() station.Climate { return s.climate }

// Tick returns the number of steps taken so far.
func (s *Simulator) Tick() int { return s.tick }

// Step advances one tick and returns the new snapshot. The generator is
// drawn in a fixed order, so equal seeds give equal sequences.
func (s *Simulator) Step() telemetry.Snapshot {
	s.tick++
	t := float64(s.tick)
	nf := s.climate.NoiseFactor

	irradiance := s.irrBase + 500*wave(t, float64(s.climate.CyclePeriod)) + s.gauss(20*nf)
	irradiance = math.Max(0, irradiance)
	desal := irradiance*0.008 + s.gauss(0.1)

	membrane := s.memBase + 10*wave(t, 300) + s.gauss(1*nf)
	biofouling := 100 - membrane + s.gauss(2*nf)
	countermeasure := biofouling > 20

	ph := s.sensor(7.0+0.5*wave(t, 80)+s.gauss(0.1*nf), false)
	turbidity := s.sensor(2.0+1.5*wave(t, 150)+s.gauss(0.3*nf), true)
	heavyMetal := s.sensor(0.005+0.003*wave(t, 200)+s.gauss(0.001*nf), true)

	return telemetry.Snapshot{
		Solar:     telemetry.NewSolarState(irradiance, desal),
		Defense:   telemetry.NewDefenseState(membrane, biofouling, countermeasure),
		Sensors:   telemetry.NewSensorState(ph, turbidity, heavyMetal),
		Tick:      s.tick,
		Timestamp: s.now().UTC(),
	}
}

// sensor applies the per-channel offline draw after the value draw.
func (s *Simulator) sensor(v float64, nonNegative bool) telemetry.Reading {
	if nonNegative {
		v = math.Max(0, v)
	}
	if s.rng.Float64() < s.climate.FailRate {
		return telemetry.Offline()
	}
	return telemetry.Value(v)
}

func (s *Simulator) gauss(sigma float64) float64 {
	return s.rng.NormFloat64() * sigma
}

func wave(t, period float64) float64 {
	return math.Sin(2 * math.Pi * t / period)
}
