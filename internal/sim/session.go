package sim

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"hydra-sim/internal/analytics"
	"hydra-sim/internal/anomaly"
	"hydra-sim/internal/logging"
	"hydra-sim/internal/reasoning"
	"hydra-sim/internal/station"
	"hydra-sim/internal/telemetry"
)

// DefaultComparisonTicks is how long a comparison station is sampled.
const DefaultComparisonTicks = 30

// Session is the caller-owned state around one simulator: rolling histories,
// the anomaly and reasoning logs, the latest report and the output writers.
// Reads are safe from other goroutines while Run ticks.
type Session struct {
	mu        sync.RWMutex
	runID     string
	sim       *Simulator
	histories *telemetry.Histories
	anomalies *anomaly.Log
	reasoning *reasoning.Engine
	last      telemetry.SnapshotRow
	report    analytics.Report
	ticked    bool

	writeMu       sync.Mutex
	writer        SnapshotWriter
	anomalyWriter AnomalyWriter
	reportWriter  ReportWriter

	tickInterval  time.Duration
	historyLen    int
	anomalyLogLen int
	reasoningLen  int
	simOpts       []Option
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithWriter sets the snapshot writer.
func WithWriter(w SnapshotWriter) SessionOption { return func(s *Session) { s.writer = w } }

// WithAnomalyWriter sets the anomaly writer.
func WithAnomalyWriter(w AnomalyWriter) SessionOption {
	return func(s *Session) { s.anomalyWriter = w }
}

// WithReportWriter sets the writer receiving per-tick reports.
func WithReportWriter(w ReportWriter) SessionOption {
	return func(s *Session) { s.reportWriter = w }
}

// WithTickInterval sets the Run ticker period.
func WithTickInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.tickInterval = d }
}

// WithHistoryLen sets the rolling history capacity per metric.
func WithHistoryLen(n int) SessionOption { return func(s *Session) { s.historyLen = n } }

// WithAnomalyLogLen sets the anomaly log capacity.
func WithAnomalyLogLen(n int) SessionOption { return func(s *Session) { s.anomalyLogLen = n } }

// WithSimulatorOptions passes options to every simulator the session creates.
func WithSimulatorOptions(opts ...Option) SessionOption {
	return func(s *Session) { s.simOpts = append(s.simOpts, opts...) }
}

// NewSession creates a session for the given station.
func NewSession(cfg station.Config, opts ...SessionOption) *Session {
	s := &Session{
		tickInterval:  time.Second,
		historyLen:    telemetry.DefaultHistoryLen,
		anomalyLogLen: anomaly.DefaultLogLen,
		reasoningLen:  reasoning.DefaultLogLen,
	}
	for _, o := range opts {
		o(s)
	}
	s.reset(cfg)
	return s
}

func (s *Session) reset(cfg station.Config) {
	s.runID = uuid.NewString()
	s.sim = NewSimulator(cfg, s.simOpts...)
	s.histories = telemetry.NewHistories(s.historyLen)
	s.anomalies = anomaly.NewLog(s.anomalyLogLen)
	s.reasoning = reasoning.NewEngine(cfg.Seed, s.reasoningLen)
	s.last = telemetry.SnapshotRow{}
	s.report = analytics.Report{Station: cfg.Name}
	s.ticked = false
}

// Reset switches the session to another station and clears all state.
func (s *Session) Reset(cfg station.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(cfg)
}

// TickResult is what one tick produced.
type TickResult struct {
	Snapshot  telemetry.Snapshot
	Row       telemetry.SnapshotRow
	Events    []anomaly.Event
	Reasoning []string
	Report    analytics.Report
}

// Tick advances the simulator once, updates the histories and logs, and
// forwards the results to the writers. Writer errors are logged, never returned.
func (s *Session) Tick(ctx context.Context) TickResult {
	s.mu.Lock()
	res := s.advance()
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.emit(ctx, res)
	return res
}

func (s *Session) advance() TickResult {
	snap := s.sim.Step()
	name := s.sim.Station().Name

	events := anomaly.Detect(snap)
	s.anomalies.Append(events...)
	lines := s.reasoning.Analyze(snap, len(events))

	row := recordTick(s.histories, snap)
	row.RunID = s.runID
	row.Station = name

	s.last = row
	s.report = analytics.BuildReport(name, snap, s.histories, s.anomalies)
	s.ticked = true

	return TickResult{Snapshot: snap, Row: row, Events: events, Reasoning: lines, Report: s.report}
}

// recordTick pushes a snapshot and its derived WQI and efficiency into h.
func recordTick(h *telemetry.Histories, snap telemetry.Snapshot) telemetry.SnapshotRow {
	h.Record(snap)
	wqi := analytics.SnapshotWQI(snap)
	eff := analytics.EnergyEfficiency(snap.Solar.OutputRate(), snap.Solar.Irradiance())
	h.Push(telemetry.MetricWQI, telemetry.Value(wqi.Score))
	h.Push(telemetry.MetricEfficiency, eff)

	row := telemetry.NewSnapshotRow("", "", snap)
	row.WQI = wqi.Score
	row.Grade = wqi.Grade
	row.Efficiency = eff
	return row
}

func (s *Session) emit(ctx context.Context, res TickResult) {
	log := logging.FromContext(ctx)
	if s.writer != nil {
		if err := s.writer.Write(res.Row); err != nil {
			log.Error("snapshot write failed", "tick", res.Row.Tick, "err", err)
		}
	}
	if s.anomalyWriter != nil && len(res.Events) > 0 {
		rows := anomalyRows(res.Row, res.Events)
		if err := writeAnomalies(s.anomalyWriter, rows); err != nil {
			log.Error("anomaly write failed", "tick", res.Row.Tick, "count", len(rows), "err", err)
		}
	}
	if s.reportWriter != nil {
		if err := s.reportWriter.WriteReport(res.Report, res.Reasoning); err != nil {
			log.Error("report write failed", "tick", res.Row.Tick, "err", err)
		}
	}
}

// anomalyRows tags events with the run, station and time of row.
func anomalyRows(row telemetry.SnapshotRow, events []anomaly.Event) []telemetry.AnomalyRow {
	rows := make([]telemetry.AnomalyRow, len(events))
	for i, e := range events {
		rows[i] = telemetry.AnomalyRow{
			RunID:     row.RunID,
			Station:   row.Station,
			Tick:      e.Tick,
			Category:  string(e.Category),
			Severity:  int(e.Severity),
			Timestamp: row.Timestamp,
		}
	}
	return rows
}

// RunN ticks n times back to back, stopping early if ctx is done.
func (s *Session) RunN(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return
		}
		s.Tick(ctx)
	}
}

// RunID identifies the current run; it changes on Reset.
func (s *Session) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

// Station returns the current station.
func (s *Session) Station() station.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sim.Station()
}

// Latest returns the newest snapshot row, false before the first tick.
func (s *Session) Latest() (telemetry.SnapshotRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.ticked
}

// Report returns the analytics for the newest tick.
func (s *Session) Report() analytics.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Histories returns a copy of the rolling histories.
func (s *Session) Histories() *telemetry.Histories {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.histories.Clone()
}

// Anomalies returns the retained events and the running total.
func (s *Session) Anomalies() ([]anomaly.Event, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anomalies.Events(), s.anomalies.Total()
}

// RecentAnomalies returns at most the n newest events and the running total.
func (s *Session) RecentAnomalies(n int) ([]anomaly.Event, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anomalies.Recent(n), s.anomalies.Total()
}

// RecentReasoning returns at most the n newest reasoning lines.
func (s *Session) RecentReasoning(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reasoning.Recent(n)
}

// ReasoningLog returns the retained reasoning lines.
func (s *Session) ReasoningLog() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reasoning.Log()
}

// WriteCSV exports the histories.
func (s *Session) WriteCSV(w io.Writer, compress bool) error {
	return analytics.WriteCSV(w, s.Histories(), compress)
}

// Compare samples other on a fresh simulator and compares it against the
// session histories.
func (s *Session) Compare(other station.Config, ticks int) []analytics.ComparisonRow {
	s.mu.RLock()
	h := s.histories.Clone()
	name := s.sim.Station().Name
	n := s.historyLen
	s.mu.RUnlock()
	return analytics.CompareStations(h, SampleComparison(other, ticks, n), name, other.Name)
}

// SampleComparison runs an isolated simulator for ticks steps and returns its
// histories. ticks <= 0 uses DefaultComparisonTicks.
func SampleComparison(cfg station.Config, ticks, historyLen int) *telemetry.Histories {
	if ticks <= 0 {
		ticks = DefaultComparisonTicks
	}
	if historyLen <= 0 {
		historyLen = telemetry.DefaultHistoryLen
	}
	sim := NewSimulator(cfg)
	h := telemetry.NewHistories(historyLen)
	for i := 0; i < ticks; i++ {
		recordTick(h, sim.Step())
	}
	return h
}
