// Package reasoning produces the scripted reasoning trace shown next to the
// telemetry. Lines come from a declarative rule table keyed on the anomaly
// thresholds; the only state is a seeded generator for the flavour numbers.
package reasoning

import (
	"fmt"
	"math/rand/v2"
	"time"

	"hydra-sim/internal/anomaly"
	"hydra-sim/internal/ring"
	"hydra-sim/internal/telemetry"
)

// SeedOffset is added to the station seed so the trace never shares a
// sequence with the simulator.
const SeedOffset = 57

// PeakIrradiance marks the maximum desalination window.
const PeakIrradiance = 1100.0

// DefaultLogLen is the default reasoning log capacity.
const DefaultLogLen = 200

// Rule emits lines when its condition holds for a snapshot.
type Rule struct {
	Name  string
	When  func(telemetry.Snapshot) bool
	Lines func(e *Engine, s telemetry.Snapshot) []string
}

// Rules is evaluated in order after the heartbeat line.
var Rules = []Rule{
	{
		Name: "low-irradiance",
		When: func(s telemetry.Snapshot) bool { return s.Solar.Irradiance() < anomaly.LowIrradianceWm2 },
		Lines: func(_ *Engine, s telemetry.Snapshot) []string {
			return []string{
				fmt.Sprintf("⚠ LOW IRRADIANCE: %.0f W/m² — night cycle detected", s.Solar.Irradiance()),
				"QUERY (HELIOS)-[:POWERS]->(DESAL) → capacity reduced",
			}
		},
	},
	{
		Name: "peak-solar",
		When: func(s telemetry.Snapshot) bool { return s.Solar.Irradiance() > PeakIrradiance },
		Lines: func(_ *Engine, s telemetry.Snapshot) []string {
			return []string{fmt.Sprintf("PEAK SOLAR: %.0f W/m² — maximum desalination window", s.Solar.Irradiance())}
		},
	},
	{
		Name: "biofouling",
		When: func(s telemetry.Snapshot) bool { return s.Defense.Biofouling() > anomaly.BiofoulingPct },
		Lines: func(e *Engine, s telemetry.Snapshot) []string {
			lines := []string{
				fmt.Sprintf("⚠ BIOFOULING RISK: %.1f%% exceeds threshold(25%%)", s.Defense.Biofouling()),
				fmt.Sprintf("INFERENCE: Engage QuorumQuenching — confidence P=%.2f", e.uniform(0.82, 0.97)),
			}
			if s.Defense.Countermeasure() {
				lines = append(lines, "✓ QQ_STATUS: ACTIVE — suppressing biofilm AHL signals")
			}
			return lines
		},
	},
	{
		Name: "membrane",
		When: func(s telemetry.Snapshot) bool { return s.Defense.Membrane() < anomaly.MembranePct },
		Lines: func(_ *Engine, s telemetry.Snapshot) []string {
			return []string{fmt.Sprintf("⚠ MEMBRANE DEGRADATION: %.1f%% — maintenance required", s.Defense.Membrane())}
		},
	},
	{
		Name: "ph-offline",
		When: func(s telemetry.Snapshot) bool { return !s.Sensors.PH().Present() },
		Lines: func(*Engine, telemetry.Snapshot) []string {
			return []string{"✗ SENSOR FAULT: pH probe — NaN/None boundary triggered"}
		},
	},
	{
		Name: "ph-range",
		When: func(s telemetry.Snapshot) bool {
			v, ok := s.Sensors.PH().Get()
			return ok && (v < anomaly.PHLow || v > anomaly.PHHigh)
		},
		Lines: func(e *Engine, s telemetry.Snapshot) []string {
			chain := e.intn(2, 5)
			p := e.uniform(0.60, 0.92)
			return []string{
				fmt.Sprintf("⚠ pH ANOMALY: %.2f outside safe band [6.5–8.5]", s.Sensors.PH().Or(0)),
				fmt.Sprintf("CAUSAL CHAIN: %d nodes → mineral runoff (P=%.2f)", chain, p),
			}
		},
	},
	{
		Name: "turbidity-offline",
		When: func(s telemetry.Snapshot) bool { return !s.Sensors.Turbidity().Present() },
		Lines: func(*Engine, telemetry.Snapshot) []string {
			return []string{"✗ SENSOR FAULT: turbidity probe offline"}
		},
	},
	{
		Name: "turbidity-spike",
		When: func(s telemetry.Snapshot) bool { return s.Sensors.Turbidity().Or(0) > anomaly.TurbiditySpikeNTU },
		Lines: func(_ *Engine, s telemetry.Snapshot) []string {
			return []string{fmt.Sprintf("⚠ TURBIDITY SPIKE: %.2f NTU — sediment event probable", s.Sensors.Turbidity().Or(0))}
		},
	},
	{
		Name: "heavy-metal-offline",
		When: func(s telemetry.Snapshot) bool { return !s.Sensors.HeavyMetal().Present() },
		Lines: func(*Engine, telemetry.Snapshot) []string {
			return []string{"✗ SENSOR FAULT: heavy metal probe offline"}
		},
	},
	{
		Name: "heavy-metal",
		When: func(s telemetry.Snapshot) bool { return s.Sensors.HeavyMetal().Or(0) > anomaly.HeavyMetalPPM },
		Lines: func(_ *Engine, s telemetry.Snapshot) []string {
			return []string{fmt.Sprintf("⚠ HEAVY METAL: %.4f PPM > WHO limit", s.Sensors.HeavyMetal().Or(0))}
		},
	},
}

// Engine turns snapshots into reasoning lines and keeps a bounded log.
type Engine struct {
	rng *rand.Rand
	log *ring.Buffer[string]
	now func() time.Time
}

// NewEngine seeds the engine from the station seed.
func NewEngine(stationSeed uint32, capacity int) *Engine {
	seed := uint64(stationSeed) + SeedOffset
	return &Engine{
		rng: rand.New(rand.NewPCG(seed, seed)),
		log: ring.New[string](capacity),
		now: time.Now,
	}
}

// Analyze returns the lines for one tick and appends them to the log.
// The event count drives the synthesis line.
func (e *Engine) Analyze(s telemetry.Snapshot, events int) []string {
	ts := e.now().Format("15:04:05")
	var lines []string
	emit := func(l string) {
		line := fmt.Sprintf("[%s] %s", ts, l)
		lines = append(lines, line)
		e.log.Push(line)
	}

	emit(fmt.Sprintf("TRAVERSE neo4j://hydra/graph → %d nodes visited  tick=%d", e.intn(12, 47), s.Tick))
	for _, r := range Rules {
		if r.When(s) {
			for _, l := range r.Lines(e, s) {
				emit(l)
			}
		}
	}
	if events == 0 {
		emit(fmt.Sprintf("✓ SYSTEM NOMINAL — all %s graph nodes green", thousands(e.intn(13800, 14200))))
	} else {
		noun := "anomalies"
		if events == 1 {
			noun = "anomaly"
		}
		emit(fmt.Sprintf("SYNTHESIS: %d %s — escalation level %d", events, noun, anomaly.EscalationLevel(events)))
	}
	return lines
}

// Log returns the retained lines, oldest first.
func (e *Engine) Log() []string { return e.log.Slice() }

// Recent returns up to n newest lines.
func (e *Engine) Recent(n int) []string { return e.log.Tail(n) }

// intn draws uniformly from [lo, hi].
func (e *Engine) intn(lo, hi int) int { return lo + e.rng.IntN(hi-lo+1) }

func (e *Engine) uniform(lo, hi float64) float64 { return lo + e.rng.Float64()*(hi-lo) }

func thousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	return thousands(n/1000) + "," + s[len(s)-3:]
}
