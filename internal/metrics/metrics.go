// Package metrics exposes simulated station telemetry as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hydra-sim/internal/telemetry"
)

const namespace = "hydra"

// Collector records snapshots and anomalies on its own registry. It
// satisfies the sim snapshot and anomaly writer interfaces.
type Collector struct {
	registry *prometheus.Registry

	TicksTotal     *prometheus.CounterVec
	Reading        *prometheus.GaugeVec
	Countermeasure *prometheus.GaugeVec
	ProbeOffline   *prometheus.CounterVec
	AnomaliesTotal *prometheus.CounterVec
	WQI            *prometheus.HistogramVec
}

// NewCollector creates a collector on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		TicksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Simulation ticks by station",
			},
			[]string{"station"},
		),
		Reading: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reading",
				Help:      "Latest value per station and metric; offline probes keep their last value",
			},
			[]string{"station", "metric"},
		),
		Countermeasure: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "countermeasure_active",
				Help:      "1 while the biofouling countermeasure runs",
			},
			[]string{"station"},
		),
		ProbeOffline: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_offline_total",
				Help:      "Ticks on which a water quality probe reported no value",
			},
			[]string{"station", "probe"},
		),
		AnomaliesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "anomalies_total",
				Help:      "Classified anomalies by category and severity",
			},
			[]string{"station", "category", "severity"},
		),
		WQI: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wqi_score",
				Help:      "Distribution of water quality index scores",
				Buckets:   []float64{40, 60, 75, 90, 100},
			},
			[]string{"station"},
		),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) set(station string, m telemetry.Metric, r telemetry.Reading) {
	if v, ok := r.Get(); ok {
		c.Reading.WithLabelValues(station, string(m)).Set(v)
		return
	}
	switch m {
	case telemetry.MetricPH, telemetry.MetricTurbidity, telemetry.MetricHeavyMetal:
		c.ProbeOffline.WithLabelValues(station, string(m)).Inc()
	}
}

// Write records one snapshot row.
func (c *Collector) Write(row telemetry.SnapshotRow) error {
	st := row.Station
	c.TicksTotal.WithLabelValues(st).Inc()
	c.set(st, telemetry.MetricIrradiance, telemetry.Value(row.Irradiance))
	c.set(st, telemetry.MetricDesal, telemetry.Value(row.Desal))
	c.set(st, telemetry.MetricMembrane, telemetry.Value(row.Membrane))
	c.set(st, telemetry.MetricBiofouling, telemetry.Value(row.Biofouling))
	c.set(st, telemetry.MetricPH, row.PH)
	c.set(st, telemetry.MetricTurbidity, row.Turbidity)
	c.set(st, telemetry.MetricHeavyMetal, row.HeavyMetal)
	c.set(st, telemetry.MetricWQI, telemetry.Value(row.WQI))
	c.set(st, telemetry.MetricEfficiency, row.Efficiency)
	cm := 0.0
	if row.Countermeasure {
		cm = 1
	}
	c.Countermeasure.WithLabelValues(st).Set(cm)
	c.WQI.WithLabelValues(st).Observe(row.WQI)
	return nil
}

// WriteAnomaly counts one anomaly row.
func (c *Collector) WriteAnomaly(row telemetry.AnomalyRow) error {
	c.AnomaliesTotal.WithLabelValues(row.Station, row.Category, strconv.Itoa(row.Severity)).Inc()
	return nil
}
