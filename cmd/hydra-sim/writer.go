package main

import (
	"hydra-sim/internal/config"
	"hydra-sim/internal/metrics"
	"hydra-sim/internal/sim"
	"hydra-sim/internal/station"
)

// writerOptions selects the sinks a run writes to.
type writerOptions struct {
	station   station.Config
	env       config.Env
	printOnly bool
	tui       bool
	logFile   string
	metrics   *metrics.Collector
}

// writers is the set of sinks handed to a session.
type writers struct {
	snapshots sim.SnapshotWriter
	anomalies sim.AnomalyWriter
	reports   sim.ReportWriter
	cleanup   func()
}

// newWriters builds the base writer (TUI, STDOUT or GreptimeDB) and fans out
// to the JSONL log and the metrics collector when configured.
func newWriters(opts writerOptions) (writers, error) {
	base, err := baseWriter(opts)
	if err != nil {
		return writers{}, err
	}
	var closers []func() error
	if c, ok := base.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	extra := []any{}
	logFile := opts.logFile
	if logFile == "" {
		logFile = opts.env.LogFile
	}
	if logFile != "" {
		anomalyLog := opts.env.AnomalyLogFile
		if anomalyLog == "" {
			anomalyLog = logFile + ".anomalies"
		}
		fw, err := sim.NewFileWriter(logFile, anomalyLog, opts.env.LogMaxSizeMB)
		if err != nil {
			cleanup()
			return writers{}, err
		}
		closers = append(closers, fw.Close)
		extra = append(extra, fw)
	}
	if opts.metrics != nil {
		extra = append(extra, opts.metrics)
	}

	if len(extra) == 0 {
		w := writers{snapshots: base, cleanup: cleanup}
		w.anomalies, _ = base.(sim.AnomalyWriter)
		w.reports, _ = base.(sim.ReportWriter)
		return w, nil
	}
	mw := sim.NewMultiWriter(nil, nil, nil)
	mw.Add(base)
	for _, e := range extra {
		mw.Add(e)
	}
	return writers{snapshots: mw, anomalies: mw, reports: mw, cleanup: cleanup}, nil
}

// baseWriter chooses the primary sink from flags and the environment.
func baseWriter(opts writerOptions) (sim.SnapshotWriter, error) {
	switch {
	case opts.tui:
		return sim.NewTUIWriter(opts.station), nil
	case opts.printOnly || opts.env.GreptimeEndpoint == "":
		return sim.NewStdoutWriter(opts.station), nil
	default:
		w, err := sim.NewGreptimeDBWriter(opts.env.GreptimeEndpoint, opts.env.GreptimeDatabase, opts.env.SnapshotTable, opts.env.AnomalyTable)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}
