package analytics

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"hydra-sim/internal/telemetry"
)

// Unavailable marks a delta or winner that cannot be determined.
const Unavailable = "—"

// Polarity says which direction of a metric is favorable.
type Polarity int

const (
	Neutral Polarity = iota
	HigherIsBetter
	LowerIsBetter
)

// ComparedMetric is one row definition of the station comparison.
type ComparedMetric struct {
	Label    string
	Metric   telemetry.Metric
	Unit     string
	Polarity Polarity
}

// ComparedMetrics is the fixed comparison table.
var ComparedMetrics = []ComparedMetric{
	{"Avg Irradiance", telemetry.MetricIrradiance, "W/m²", HigherIsBetter},
	{"Avg Membrane", telemetry.MetricMembrane, "%", HigherIsBetter},
	{"Avg pH", telemetry.MetricPH, "", Neutral},
	{"Avg Turbidity", telemetry.MetricTurbidity, "NTU", LowerIsBetter},
	{"Avg Heavy Metal", telemetry.MetricHeavyMetal, "PPM", LowerIsBetter},
	{"Avg WQI", telemetry.MetricWQI, "", HigherIsBetter},
}

// ComparisonRow is one formatted row of a station comparison.
type ComparisonRow struct {
	Metric   string `json:"metric"`
	StationA string `json:"station_a"`
	StationB string `json:"station_b"`
	Delta    string `json:"delta"`
	Winner   string `json:"winner"`
}

// Mean averages the present values of a series. ok is false without samples.
func Mean(h *telemetry.History) (mean float64, ok bool) {
	vals := h.Present()
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}

// CompareStations compares the means of two histories metric by metric.
// On a tie the B side wins a polarized metric.
func CompareStations(a, b *telemetry.Histories, nameA, nameB string) []ComparisonRow {
	rows := make([]ComparisonRow, 0, len(ComparedMetrics))
	for _, m := range ComparedMetrics {
		av, aok := Mean(a.Series(m.Metric))
		bv, bok := Mean(b.Series(m.Metric))

		row := ComparisonRow{
			Metric:   m.Label,
			StationA: formatMean(av, aok),
			StationB: formatMean(bv, bok),
			Delta:    Unavailable,
			Winner:   Unavailable,
		}
		if aok && bok {
			delta := av - bv
			row.Delta = strings.TrimSpace(fmt.Sprintf("%+.2f %s", delta, m.Unit))
			switch m.Polarity {
			case HigherIsBetter:
				row.Winner = pick(delta > 0, nameA, nameB)
			case LowerIsBetter:
				row.Winner = pick(delta < 0, nameA, nameB)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func formatMean(v float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
