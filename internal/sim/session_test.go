package sim

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydra-sim/internal/analytics"
	"hydra-sim/internal/station"
	"hydra-sim/internal/telemetry"
)

type recordingWriter struct {
	mu        sync.Mutex
	rows      []telemetry.SnapshotRow
	anomalies []telemetry.AnomalyRow
	reports   []analytics.Report
	reasoning [][]string
}

func (w *recordingWriter) Write(r telemetry.SnapshotRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, r)
	return nil
}

func (w *recordingWriter) WriteAnomaly(r telemetry.AnomalyRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.anomalies = append(w.anomalies, r)
	return nil
}

func (w *recordingWriter) WriteReport(r analytics.Report, lines []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, r)
	w.reasoning = append(w.reasoning, lines)
	return nil
}

func newTestSession(opts ...SessionOption) *Session {
	opts = append([]SessionOption{WithSimulatorOptions(WithClock(fixedClock()))}, opts...)
	return NewSession(station.Default(), opts...)
}

func TestSessionTickPushesEveryMetric(t *testing.T) {
	s := newTestSession()
	s.RunN(context.Background(), 3)

	h := s.Histories()
	for _, m := range telemetry.Metrics {
		require.NotNil(t, h.Series(m), "metric %s", m)
		assert.Equal(t, 3, h.Series(m).Len(), "metric %s", m)
	}
}

func TestSessionHistoryBounded(t *testing.T) {
	s := newTestSession(WithHistoryLen(5))
	s.RunN(context.Background(), 12)

	h := s.Histories()
	assert.Equal(t, 5, h.MaxLen())
	row, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 12, row.Tick)
}

func TestSessionMatchesSimulator(t *testing.T) {
	s := newTestSession()
	sim := NewSimulator(station.Default(), WithClock(fixedClock()))
	for i := 0; i < 20; i++ {
		res := s.Tick(context.Background())
		require.True(t, res.Snapshot.SameState(sim.Step()), "tick %d", i+1)
	}
}

func TestSessionWriterFanOut(t *testing.T) {
	w := &recordingWriter{}
	s := newTestSession(WithWriter(w), WithAnomalyWriter(w), WithReportWriter(w))

	var events int
	for i := 0; i < 200; i++ {
		events += len(s.Tick(context.Background()).Events)
	}

	require.Len(t, w.rows, 200)
	assert.Len(t, w.reports, 200)
	assert.Len(t, w.anomalies, events)
	assert.Greater(t, events, 0, "200 ticks should raise at least one anomaly")

	runID := s.RunID()
	for _, r := range w.rows {
		assert.Equal(t, runID, r.RunID)
		assert.Equal(t, station.Default().Name, r.Station)
		assert.NotEmpty(t, r.Grade)
	}
	for _, lines := range w.reasoning {
		require.NotEmpty(t, lines)
		assert.Contains(t, lines[0], "TRAVERSE")
	}

	retained, total := s.Anomalies()
	assert.Equal(t, events, total)
	assert.Len(t, retained, events)
}

func TestSessionReportTracksLatestTick(t *testing.T) {
	s := newTestSession()
	_, ok := s.Latest()
	assert.False(t, ok)

	s.RunN(context.Background(), 15)
	r := s.Report()
	assert.Equal(t, 15, r.Tick)
	assert.Equal(t, station.Default().Name, r.Station)
	assert.Len(t, r.Summary, 6)
	assert.NotEmpty(t, s.ReasoningLog())
}

func TestSessionReset(t *testing.T) {
	s := newTestSession()
	s.RunN(context.Background(), 5)
	before := s.RunID()

	other := station.Presets()[2]
	s.Reset(other)

	assert.NotEqual(t, before, s.RunID())
	assert.Equal(t, other.Name, s.Station().Name)
	_, ok := s.Latest()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Histories().MaxLen())
	_, total := s.Anomalies()
	assert.Zero(t, total)

	res := s.Tick(context.Background())
	assert.Equal(t, 1, res.Row.Tick)
}

func TestSessionRecentTails(t *testing.T) {
	s := newTestSession()
	s.RunN(context.Background(), 200)

	events, total := s.Anomalies()
	require.NotEmpty(t, events)
	recent, recentTotal := s.RecentAnomalies(3)
	assert.Equal(t, total, recentTotal)
	assert.Equal(t, events[len(events)-3:], recent)
	none, _ := s.RecentAnomalies(0)
	assert.Empty(t, none)

	lines := s.ReasoningLog()
	require.Greater(t, len(lines), 5)
	assert.Equal(t, lines[len(lines)-5:], s.RecentReasoning(5))
	assert.Equal(t, lines, s.RecentReasoning(len(lines)+10))
}

func TestSampleComparisonIsolated(t *testing.T) {
	s := newTestSession()
	s.RunN(context.Background(), 4)

	other := station.Presets()[1]
	a := SampleComparison(other, 10, 0)
	b := SampleComparison(other, 10, 0)
	assert.Equal(t, a.Series(telemetry.MetricIrradiance).Readings(), b.Series(telemetry.MetricIrradiance).Readings())
	assert.Equal(t, DefaultComparisonTicks, SampleComparison(other, 0, 0).MaxLen())

	assert.Equal(t, 4, s.Histories().MaxLen(), "sampling must not touch the session")
	row, _ := s.Latest()
	assert.Equal(t, 4, row.Tick)
}

func TestSessionCompare(t *testing.T) {
	s := newTestSession()
	s.RunN(context.Background(), 10)

	rows := s.Compare(station.Presets()[1], 10)
	require.Len(t, rows, len(analytics.ComparedMetrics))
	for _, r := range rows {
		assert.NotEqual(t, analytics.Unavailable, r.StationA, r.Metric)
		assert.NotEqual(t, analytics.Unavailable, r.StationB, r.Metric)
	}
}

func TestSessionWriteCSV(t *testing.T) {
	s := newTestSession()
	s.RunN(context.Background(), 3)

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf, false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "tick,"))
}

func TestSessionRunStopsAtBudget(t *testing.T) {
	s := newTestSession(WithTickInterval(time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Run(ctx, 3)
	row, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 3, row.Tick)
}

func TestSessionRunStopsOnCancel(t *testing.T) {
	s := newTestSession(WithTickInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 0)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
