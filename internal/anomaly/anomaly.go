// Package anomaly classifies snapshots into discrete alert events.
//
// Classification is stateless: every rule is evaluated against a single
// snapshot, and an event means "observed this tick", not a new edge.
package anomaly

import (
	"hydra-sim/internal/ring"
	"hydra-sim/internal/telemetry"
)

// Category labels an anomaly kind.
type Category string

const (
	LowIrradiance     Category = "LOW_IRRADIANCE"
	HighBiofouling    Category = "HIGH_BIOFOULING"
	LowMembrane       Category = "LOW_MEMBRANE"
	PHAnomaly         Category = "PH_ANOMALY"
	PHOffline         Category = "PH_OFFLINE"
	TurbiditySpike    Category = "TURBIDITY_SPIKE"
	TurbidityOffline  Category = "TURBIDITY_OFFLINE"
	HeavyMetal        Category = "HEAVY_METAL"
	HeavyMetalOffline Category = "HEAVY_METAL_OFFLINE"
)

// Severity tiers: 1 advisory, 2 warning, 3 critical.
type Severity int

const (
	SeverityAdvisory Severity = 1
	SeverityWarning  Severity = 2
	SeverityCritical Severity = 3
)

// Thresholds shared with the reasoning rules.
const (
	LowIrradianceWm2  = 200.0
	BiofoulingPct     = 25.0
	MembranePct       = 80.0
	PHLow             = 6.5
	PHHigh            = 8.5
	TurbiditySpikeNTU = 4.0
	HeavyMetalPPM     = 0.01
)

// Rule maps a condition over a snapshot to a category and severity.
type Rule struct {
	Category Category
	Severity Severity
	Match    func(telemetry.Snapshot) bool
}

// Rules is the category table, evaluated in order.
var Rules = []Rule{
	{LowIrradiance, SeverityAdvisory, func(s telemetry.Snapshot) bool {
		return s.Solar.Irradiance() < LowIrradianceWm2
	}},
	{HighBiofouling, SeverityWarning, func(s telemetry.Snapshot) bool {
		return s.Defense.Biofouling() > BiofoulingPct
	}},
	{LowMembrane, SeverityCritical, func(s telemetry.Snapshot) bool {
		return s.Defense.Membrane() < MembranePct
	}},
	{PHAnomaly, SeverityWarning, present(func(s telemetry.Snapshot) telemetry.Reading { return s.Sensors.PH() },
		func(v float64) bool { return v < PHLow || v > PHHigh })},
	{PHOffline, SeverityAdvisory, offline(func(s telemetry.Snapshot) telemetry.Reading { return s.Sensors.PH() })},
	{TurbiditySpike, SeverityWarning, present(func(s telemetry.Snapshot) telemetry.Reading { return s.Sensors.Turbidity() },
		func(v float64) bool { return v > TurbiditySpikeNTU })},
	{TurbidityOffline, SeverityAdvisory, offline(func(s telemetry.Snapshot) telemetry.Reading { return s.Sensors.Turbidity() })},
	{HeavyMetal, SeverityCritical, present(func(s telemetry.Snapshot) telemetry.Reading { return s.Sensors.HeavyMetal() },
		func(v float64) bool { return v > HeavyMetalPPM })},
	{HeavyMetalOffline, SeverityAdvisory, offline(func(s telemetry.Snapshot) telemetry.Reading { return s.Sensors.HeavyMetal() })},
}

func present(get func(telemetry.Snapshot) telemetry.Reading, bad func(float64) bool) func(telemetry.Snapshot) bool {
	return func(s telemetry.Snapshot) bool {
		v, ok := get(s).Get()
		return ok && bad(v)
	}
}

func offline(get func(telemetry.Snapshot) telemetry.Reading) func(telemetry.Snapshot) bool {
	return func(s telemetry.Snapshot) bool { return !get(s).Present() }
}


// Event is one classified anomaly.
type Event struct {
	Tick     int      `json:"tick"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
}

// Detect returns the events a snapshot triggers, in table order.
func Detect(s telemetry.Snapshot) []Event {
	var out []Event
	for _, r := range Rules {
		if r.Match(s) {
			out = append(out, Event{Tick: s.Tick, Category: r.Category, Severity: r.Severity})
		}
	}
	return out
}

// EscalationLevel caps the number of simultaneous anomalies at 4.
func EscalationLevel(n int) int {
	return min(n, 4)
}

// DefaultLogLen is the default anomaly log capacity.
const DefaultLogLen = 500

// Log is a bounded FIFO of events with a running total.
type Log struct {
	buf   *ring.Buffer[Event]
	total int
}

// NewLog returns an empty log.
func NewLog(capacity int) *Log {
	return &Log{buf: ring.New[Event](capacity)}
}

// Append records events and bumps the total.
func (l *Log) Append(events ...Event) {
	for _, e := range events {
		l.buf.Push(e)
	}
	l.total += len(events)
}

// Events returns the retained events, oldest first.
func (l *Log) Events() []Event { return l.buf.Slice() }

// Recent returns up to n newest events, oldest first.
func (l *Log) Recent(n int) []Event { return l.buf.Tail(n) }

// Len returns the number of retained events.
func (l *Log) Len() int { return l.buf.Len() }

// Total counts every event ever appended, evicted ones included.
func (l *Log) Total() int { return l.total }
