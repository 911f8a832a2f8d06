package analytics

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"hydra-sim/internal/anomaly"
	"hydra-sim/internal/telemetry"
)

// SummaryItem is one labelled line of the session summary.
type SummaryItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary describes the session so far.
func Summary(h *telemetry.Histories, anomalyCount, tick int) []SummaryItem {
	irr := h.Series(telemetry.MetricIrradiance)
	return []SummaryItem{
		{"Ticks Elapsed", strconv.Itoa(tick)},
		{"Avg Irradiance", withUnit(avg1(irr), "W/m²")},
		{"Irradiance Range", minMax1(irr)},
		{"Avg Membrane", withUnit(avg1(h.Series(telemetry.MetricMembrane)), "%")},
		{"Avg pH", avg1(h.Series(telemetry.MetricPH))},
		{"Anomalies Detected", strconv.Itoa(anomalyCount)},
	}
}

func avg1(h *telemetry.History) string {
	m, ok := Mean(h)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", m)
}

func minMax1(h *telemetry.History) string {
	vals := h.Present()
	if len(vals) == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f – %.1f", slices.Min(vals), slices.Max(vals))
}

func withUnit(v, unit string) string {
	if v == "N/A" {
		return v
	}
	return v + " " + unit
}

// Alert aggregation defaults.
const (
	AlertWindow      = 50
	AlertMinSeverity = anomaly.SeverityWarning
	AlertLimit       = 5
)

// Alert is one aggregated banner entry.
type Alert struct {
	Category anomaly.Category `json:"category"`
	Severity anomaly.Severity `json:"severity"`
	Count    int              `json:"count"`
}

// AlertSummary groups the last window events by category, keeps those at or
// above minSeverity and returns the limit most pressing, by severity then count.
func AlertSummary(events []anomaly.Event, window int, minSeverity anomaly.Severity, limit int) []Alert {
	if window > 0 && len(events) > window {
		events = events[len(events)-window:]
	}

	var order []anomaly.Category
	byCat := make(map[anomaly.Category]*Alert)
	for _, e := range events {
		a, ok := byCat[e.Category]
		if !ok {
			a = &Alert{Category: e.Category}
			byCat[e.Category] = a
			order = append(order, e.Category)
		}
		a.Severity = max(a.Severity, e.Severity)
		a.Count++
	}

	var out []Alert
	for _, c := range order {
		if a := byCat[c]; a.Severity >= minSeverity {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
