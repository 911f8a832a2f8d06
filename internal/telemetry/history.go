package telemetry

import "hydra-sim/internal/ring"

// DefaultHistoryLen is the default rolling window per metric.
const DefaultHistoryLen = 60

// Metric names a tracked series. The string is also the CSV column name.
type Metric string

const (
	MetricIrradiance Metric = "irradiance"
	MetricDesal      Metric = "desal"
	MetricMembrane   Metric = "membrane"
	MetricBiofouling Metric = "biofouling"
	MetricPH         Metric = "ph"
	MetricTurbidity  Metric = "turbidity"
	MetricHeavyMetal Metric = "heavy_metal"
	MetricWQI        Metric = "wqi"
	MetricEfficiency Metric = "efficiency"
)

// Metrics lists the tracked series in export order.
var Metrics = []Metric{
	MetricIrradiance, MetricDesal, MetricMembrane, MetricBiofouling,
	MetricPH, MetricTurbidity, MetricHeavyMetal,
	MetricWQI, MetricEfficiency,
}

// History is a bounded, chronological series of readings.
type History struct {
	buf *ring.Buffer[Reading]
}

// NewHistory returns an empty history with the given capacity.
func NewHistory(capacity int) *History {
	return &History{buf: ring.New[Reading](capacity)}
}

// Push appends a reading, evicting the oldest when full.
func (h *History) Push(r Reading) { h.buf.Push(r) }

// Len returns the number of stored readings, offline ones included.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return h.buf.Len()
}

// Cap returns the history capacity.
func (h *History) Cap() int { return h.buf.Cap() }

// At returns the i-th oldest reading.
func (h *History) At(i int) Reading { return h.buf.At(i) }

// Readings returns a chronological copy, offline entries included.
func (h *History) Readings() []Reading {
	if h == nil {
		return nil
	}
	return h.buf.Slice()
}

// Present returns the present values in order, offline entries skipped.
func (h *History) Present() []float64 {
	if h == nil {
		return nil
	}
	out := make([]float64, 0, h.buf.Len())
	for i := 0; i < h.buf.Len(); i++ {
		if v, ok := h.buf.At(i).Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Last returns the newest reading, offline when empty.
func (h *History) Last() Reading {
	if h == nil {
		return Offline()
	}
	r, _ := h.buf.Last()
	return r
}

// Histories is an ordered set of metric series. The zero value is an empty set.
type Histories struct {
	order  []Metric
	series map[Metric]*History
}

// NewHistories creates one series per metric, all with the same capacity.
// Without metrics it tracks every entry of Metrics.
func NewHistories(capacity int, metrics ...Metric) *Histories {
	if len(metrics) == 0 {
		metrics = Metrics
	}
	h := &Histories{series: make(map[Metric]*History, len(metrics))}
	for _, m := range metrics {
		h.Set(m, NewHistory(capacity))
	}
	return h
}

// Set installs a series, appending the metric to the order if new.
func (h *Histories) Set(m Metric, series *History) {
	if h.series == nil {
		h.series = make(map[Metric]*History)
	}
	if _, ok := h.series[m]; !ok {
		h.order = append(h.order, m)
	}
	h.series[m] = series
}

// Metrics returns the tracked metrics in order.
func (h *Histories) Metrics() []Metric {
	return append([]Metric(nil), h.order...)
}

// Series returns the series for m, or nil when untracked.
func (h *Histories) Series(m Metric) *History {
	if h == nil {
		return nil
	}
	return h.series[m]
}

// Push appends a reading to m when it is tracked.
func (h *Histories) Push(m Metric, r Reading) {
	if s := h.series[m]; s != nil {
		s.Push(r)
	}
}

// Record appends the raw snapshot fields. Derived series are left to the caller.
func (h *Histories) Record(s Snapshot) {
	h.Push(MetricIrradiance, Value(s.Solar.Irradiance()))
	h.Push(MetricDesal, Value(s.Solar.OutputRate()))
	h.Push(MetricMembrane, Value(s.Defense.Membrane()))
	h.Push(MetricBiofouling, Value(s.Defense.Biofouling()))
	h.Push(MetricPH, s.Sensors.PH())
	h.Push(MetricTurbidity, s.Sensors.Turbidity())
	h.Push(MetricHeavyMetal, s.Sensors.HeavyMetal())
}

// MaxLen returns the length of the longest series.
func (h *Histories) MaxLen() int {
	n := 0
	for _, s := range h.series {
		if s.Len() > n {
			n = s.Len()
		}
	}
	return n
}

// Clone returns a deep copy safe to hand to other goroutines.
func (h *Histories) Clone() *Histories {
	out := &Histories{series: make(map[Metric]*History, len(h.order))}
	for _, m := range h.order {
		src := h.series[m]
		dst := NewHistory(src.Cap())
		for _, r := range src.Readings() {
			dst.Push(r)
		}
		out.Set(m, dst)
	}
	return out
}
