package analytics

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydra-sim/internal/anomaly"
	"hydra-sim/internal/telemetry"
)

var (
	v   = telemetry.Value
	off = telemetry.Offline()
)

func TestWQIRenormalizesOverPresentChannels(t *testing.T) {
	got := ComputeWQI(v(7.5), v(0), off)
	assert.InDelta(t, 100.0, got.Score, 1e-9)
	assert.Equal(t, "A", got.Grade)

	// pH 9.5 scores 85, turbidity 2 scores 80. Counting the missing metal
	// channel as zero would give 57.75.
	got = ComputeWQI(v(9.5), v(2), off)
	assert.InDelta(t, (85*0.35+80*0.35)/0.70, got.Score, 1e-9)
	assert.Equal(t, "B", got.Grade)
	assert.Equal(t, "#00f0ff", got.Color)
}

func TestWQIAllOffline(t *testing.T) {
	assert.Equal(t, WQI{Score: 0, Grade: "N/A", Color: NeutralColor}, ComputeWQI(off, off, off))
}

func TestWQIGrades(t *testing.T) {
	tests := []struct {
		turbidity float64
		grade     string
		color     string
	}{
		{0.5, "A", "#39ff14"},
		{2.5, "B", "#00f0ff"},
		{4.5, "C", "#ffd700"},
		{6.5, "D", "#ff8c00"},
		{9.5, "F", "#ff073a"},
	}
	for _, tt := range tests {
		got := ComputeWQI(off, v(tt.turbidity), off)
		assert.Equal(t, tt.grade, got.Grade, "turbidity %v", tt.turbidity)
		assert.Equal(t, tt.color, got.Color, "turbidity %v", tt.turbidity)
	}
	assert.Equal(t, 0.0, ComputeWQI(off, v(50), v(1)).Score)
}

func TestWHOPrecedence(t *testing.T) {
	status, checks := CheckWHO(v(9.1), off, v(0.004))
	assert.Equal(t, StatusFail, status)
	require.Len(t, checks, 3)
	assert.Equal(t, Check{"pH", "9.10", StatusFail}, checks[0])
	assert.Equal(t, Check{"Turbidity", "N/A", StatusOffline}, checks[1])
	assert.Equal(t, Check{"Heavy Metal", "0.0040 PPM", StatusPass}, checks[2])

	status, _ = CheckWHO(v(7), v(0.5), v(0.001))
	assert.Equal(t, StatusPass, status)

	status, _ = CheckWHO(v(7), off, v(0.001))
	assert.Equal(t, StatusPartial, status)

	status, checks = CheckWHO(v(7), v(1.0), off)
	assert.Equal(t, StatusFail, status)
	assert.Equal(t, "1.00 NTU", checks[1].Value)
}

func series(f func(i int) float64, n int) *telemetry.History {
	h := telemetry.NewHistory(telemetry.DefaultHistoryLen)
	for i := 0; i < n; i++ {
		h.Push(v(f(i)))
	}
	return h
}

func TestMaintenanceIncreasingHasNoForecast(t *testing.T) {
	f := PredictMaintenance(series(func(i int) float64 { return 80 + float64(i) }, 12), DefaultMaintenanceThreshold)
	assert.Nil(t, f.TicksRemaining)
	assert.InDelta(t, 1.0, f.Slope, 1e-9)
}

func TestMaintenanceAlreadyBelowThreshold(t *testing.T) {
	f := PredictMaintenance(series(func(i int) float64 { return 79 - 0.1*float64(i) }, 15), DefaultMaintenanceThreshold)
	require.NotNil(t, f.TicksRemaining)
	assert.Equal(t, 0, *f.TicksRemaining)
	assert.True(t, f.Due())
}

func TestMaintenanceProjection(t *testing.T) {
	f := PredictMaintenance(series(func(i int) float64 { return 95 - 0.4*float64(i) }, 20), DefaultMaintenanceThreshold)
	require.NotNil(t, f.TicksRemaining)
	// Current fitted value 87.4, (80-87.4)/-0.4 = 18.5.
	assert.Equal(t, 18, *f.TicksRemaining)
	assert.InDelta(t, -0.4, f.Slope, 1e-9)
	assert.InDelta(t, 95, f.Intercept, 1e-9)
}

func TestMaintenanceTinySlopeSaturates(t *testing.T) {
	f := PredictMaintenance(series(func(i int) float64 { return -1e-25 * float64(i) }, 10), -1)
	require.NotNil(t, f.TicksRemaining)
	assert.Equal(t, math.MaxInt, *f.TicksRemaining)
	assert.False(t, f.Due())

	assert.Equal(t, 0, ticksUntil(math.NaN()))
	assert.Equal(t, 0, ticksUntil(-3))
	assert.Equal(t, 18, ticksUntil(18.5))
	assert.Equal(t, math.MaxInt, ticksUntil(math.Inf(1)))
}

func TestMaintenanceInsufficientData(t *testing.T) {
	f := PredictMaintenance(series(func(i int) float64 { return 95 - float64(i) }, 9), DefaultMaintenanceThreshold)
	assert.Equal(t, Forecast{}, f)
	assert.Equal(t, Forecast{}, PredictMaintenance(nil, DefaultMaintenanceThreshold))
}

func TestMaintenanceCompactsOfflineSamples(t *testing.T) {
	gappy := telemetry.NewHistory(telemetry.DefaultHistoryLen)
	for i := 0; i < 20; i++ {
		gappy.Push(v(95 - 0.4*float64(i)))
		if i%3 == 0 {
			gappy.Push(off)
		}
	}
	dense := series(func(i int) float64 { return 95 - 0.4*float64(i) }, 20)
	assert.Equal(t, PredictMaintenance(dense, 80), PredictMaintenance(gappy, 80))
}

func TestEnergyEfficiency(t *testing.T) {
	assert.False(t, EnergyEfficiency(1, 9.99).Present())
	got, ok := EnergyEfficiency(6.4, 800).Get()
	require.True(t, ok)
	assert.InDelta(t, 8.0, got, 1e-9)
}

func histories(values map[telemetry.Metric][]telemetry.Reading) *telemetry.Histories {
	h := telemetry.NewHistories(telemetry.DefaultHistoryLen)
	for m, rs := range values {
		for _, r := range rs {
			h.Push(m, r)
		}
	}
	return h
}

func rowFor(rows []ComparisonRow, label string) ComparisonRow {
	for _, r := range rows {
		if r.Metric == label {
			return r
		}
	}
	return ComparisonRow{}
}

func TestCompareStationsPolarity(t *testing.T) {
	a := histories(map[telemetry.Metric][]telemetry.Reading{
		telemetry.MetricMembrane:  {v(90), v(92)},
		telemetry.MetricTurbidity: {v(3), v(3)},
		telemetry.MetricPH:        {v(7.4), off},
		telemetry.MetricWQI:       {v(80)},
	})
	b := histories(map[telemetry.Metric][]telemetry.Reading{
		telemetry.MetricMembrane:  {v(85), v(87)},
		telemetry.MetricTurbidity: {v(1), v(2)},
		telemetry.MetricPH:        {v(7.0)},
		telemetry.MetricWQI:       {v(80)},
	})
	rows := CompareStations(a, b, "A", "B")
	require.Len(t, rows, 6)

	mem := rowFor(rows, "Avg Membrane")
	assert.Equal(t, ComparisonRow{"Avg Membrane", "91.00", "86.00", "+5.00 %", "A"}, mem)

	turb := rowFor(rows, "Avg Turbidity")
	assert.Equal(t, "B", turb.Winner)
	assert.Equal(t, "+1.50 NTU", turb.Delta)

	ph := rowFor(rows, "Avg pH")
	assert.Equal(t, Unavailable, ph.Winner)
	assert.Equal(t, "+0.40", ph.Delta)

	wqi := rowFor(rows, "Avg WQI")
	assert.Equal(t, "B", wqi.Winner, "ties go to the second station")
	assert.Equal(t, "+0.00", wqi.Delta)

	irr := rowFor(rows, "Avg Irradiance")
	assert.Equal(t, ComparisonRow{"Avg Irradiance", "N/A", "N/A", Unavailable, Unavailable}, irr)
}

func TestCompareStationsOneSideEmpty(t *testing.T) {
	a := histories(map[telemetry.Metric][]telemetry.Reading{telemetry.MetricHeavyMetal: {off, off}})
	b := histories(map[telemetry.Metric][]telemetry.Reading{telemetry.MetricHeavyMetal: {v(0.004)}})
	row := rowFor(CompareStations(a, b, "A", "B"), "Avg Heavy Metal")
	assert.Equal(t, ComparisonRow{"Avg Heavy Metal", "N/A", "0.00", Unavailable, Unavailable}, row)
}

func TestSummary(t *testing.T) {
	h := histories(map[telemetry.Metric][]telemetry.Reading{
		telemetry.MetricIrradiance: {v(100), v(300)},
		telemetry.MetricMembrane:   {v(85)},
	})
	got := Summary(h, 4, 2)
	assert.Equal(t, []SummaryItem{
		{"Ticks Elapsed", "2"},
		{"Avg Irradiance", "200.0 W/m²"},
		{"Irradiance Range", "100.0 – 300.0"},
		{"Avg Membrane", "85.0 %"},
		{"Avg pH", "N/A"},
		{"Anomalies Detected", "4"},
	}, got)
}

func TestAlertSummary(t *testing.T) {
	var events []anomaly.Event
	severityOf := func(c anomaly.Category) anomaly.Severity {
		for _, r := range anomaly.Rules {
			if r.Category == c {
				return r.Severity
			}
		}
		return 0
	}
	add := func(c anomaly.Category, n int) {
		for i := 0; i < n; i++ {
			events = append(events, anomaly.Event{Category: c, Severity: severityOf(c)})
		}
	}
	add(anomaly.LowIrradiance, 10)
	add(anomaly.HighBiofouling, 3)
	add(anomaly.PHAnomaly, 5)
	add(anomaly.HeavyMetal, 1)
	add(anomaly.PHOffline, 2)

	got := AlertSummary(events, AlertWindow, AlertMinSeverity, AlertLimit)
	assert.Equal(t, []Alert{
		{anomaly.HeavyMetal, 3, 1},
		{anomaly.PHAnomaly, 2, 5},
		{anomaly.HighBiofouling, 2, 3},
	}, got)

	got = AlertSummary(events, 3, AlertMinSeverity, AlertLimit)
	assert.Equal(t, []Alert{{anomaly.HeavyMetal, 3, 1}}, got)

	got = AlertSummary(events, AlertWindow, AlertMinSeverity, 1)
	assert.Len(t, got, 1)
}

func TestCSVRoundTripUnequalLengths(t *testing.T) {
	h := telemetry.NewHistories(telemetry.DefaultHistoryLen)
	h.Push(telemetry.MetricIrradiance, v(812.5))
	a, b := 0.1, 0.2
	h.Push(telemetry.MetricIrradiance, v(a+b))
	h.Push(telemetry.MetricIrradiance, v(790))
	h.Push(telemetry.MetricPH, v(7.05))
	h.Push(telemetry.MetricPH, off)
	h.Push(telemetry.MetricHeavyMetal, v(0.00512))

	out := BuildCSV(h)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "tick,irradiance,desal,membrane,biofouling,ph,turbidity,heavy_metal,wqi,efficiency", lines[0])
	assert.Equal(t, "2,0.30000000000000004,,,,,,,,", lines[2])

	back, err := ParseCSV(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, h.Metrics(), back.Metrics())
	for _, m := range h.Metrics() {
		orig := h.Series(m).Readings()
		got := back.Series(m).Readings()
		require.Len(t, got, 3, m)
		for i, r := range got {
			want := off
			if i < len(orig) {
				want = orig[i]
			}
			assert.Equal(t, want, r, "%s row %d", m, i+1)
		}
	}
}

func TestCSVEmptyHistories(t *testing.T) {
	h := telemetry.NewHistories(telemetry.DefaultHistoryLen, telemetry.MetricWQI)
	assert.Equal(t, "tick,wqi\n", BuildCSV(h))
}

func TestCSVGzipRoundTrip(t *testing.T) {
	h := telemetry.NewHistories(telemetry.DefaultHistoryLen)
	for i := 0; i < 5; i++ {
		h.Push(telemetry.MetricMembrane, v(85-float64(i)/3))
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, h, true))
	assert.NotContains(t, buf.String(), "membrane")

	back, err := ReadCSV(&buf, true)
	require.NoError(t, err)
	assert.Equal(t, h.Series(telemetry.MetricMembrane).Present(), back.Series(telemetry.MetricMembrane).Present())
}

func TestParseCSVRejectsMissingHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("a,b\n1,2\n"))
	assert.Error(t, err)
	_, err = ParseCSV(strings.NewReader("tick,ph\n1,abc\n"))
	assert.Error(t, err)
}

func TestBuildReport(t *testing.T) {
	s := telemetry.Snapshot{
		Solar:   telemetry.NewSolarState(800, 6.4),
		Defense: telemetry.NewDefenseState(85, 15, false),
		Sensors: telemetry.NewSensorState(v(7), v(0.5), v(0.004)),
		Tick:    1,
	}
	h := telemetry.NewHistories(telemetry.DefaultHistoryLen)
	h.Record(s)
	log := anomaly.NewLog(anomaly.DefaultLogLen)
	log.Append(anomaly.Detect(s)...)

	r := BuildReport("Nan", s, h, log)
	assert.Equal(t, "Nan", r.Station)
	assert.Equal(t, StatusPass, r.WHOStatus)
	assert.Equal(t, "A", r.WQI.Grade)
	assert.Nil(t, r.Maintenance.TicksRemaining)
	assert.Empty(t, r.Alerts)
	eff, ok := r.Efficiency.Get()
	require.True(t, ok)
	assert.InDelta(t, 8.0, eff, 1e-9)
}
