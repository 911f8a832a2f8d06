package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hydra-sim/internal/admin"
	"hydra-sim/internal/logging"
	"hydra-sim/internal/metrics"
	"hydra-sim/internal/sim"
)

var (
	simStation   stationFlags
	simTicks     int
	simTick      string
	simPrintOnly bool
	simLogFile   string
	simTUI       bool
	simAdmin     string
	simNoAdmin   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the station simulation",
	RunE:  runSimulate,
}

func init() {
	simStation.register(simulateCmd)
	simulateCmd.Flags().IntVar(&simTicks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	simulateCmd.Flags().StringVar(&simTick, "tick", "", "Tick interval (overrides tick_interval from config)")
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print to STDOUT even if a GreptimeDB endpoint is set")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Also write snapshots to this JSONL file")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Show the interactive terminal dashboard")
	simulateCmd.Flags().StringVar(&simAdmin, "admin", "", "Admin HTTP address (default: HYDRA_ADMIN_ADDR)")
	simulateCmd.Flags().BoolVar(&simNoAdmin, "no-admin", false, "Do not start the admin HTTP server")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	reg := appCfg.Registry()
	st, err := simStation.resolve(cmd, reg)
	if err != nil {
		return err
	}
	interval, err := appCfg.Interval()
	if err != nil {
		return err
	}
	tick := simTick
	if tick == "" {
		tick = appEnv.TickInterval
	}
	if tick != "" {
		appCfg.TickInterval = tick
		if interval, err = appCfg.Interval(); err != nil {
			return err
		}
	}

	log := slog.Default()
	if simTUI {
		// The dashboard owns the terminal.
		log = logging.NewWithWriter(io.Discard, rootLogLevel)
		slog.SetDefault(log)
	}

	collector := metrics.NewCollector()
	w, err := newWriters(writerOptions{
		station:   st,
		env:       appEnv,
		printOnly: simPrintOnly,
		tui:       simTUI,
		logFile:   simLogFile,
		metrics:   collector,
	})
	if err != nil {
		return err
	}
	defer w.cleanup()

	sess := sim.NewSession(st,
		sim.WithWriter(w.snapshots),
		sim.WithAnomalyWriter(w.anomalies),
		sim.WithReportWriter(w.reports),
		sim.WithTickInterval(interval),
		sim.WithHistoryLen(appCfg.HistoryLen),
		sim.WithAnomalyLogLen(appCfg.AnomalyLogLen),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.NewContext(ctx, log)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sess.Run(gctx, simTicks)
		cancel()
		return nil
	})

	addr := simAdmin
	if addr == "" {
		addr = appEnv.AdminAddr
	}
	if !simNoAdmin && addr != "" {
		srv := admin.NewServer(sess, reg, collector.Handler())
		if aw, ok := w.snapshots.(sim.AdminStatusWriter); ok {
			aw.SetAdminStatus(true)
		}
		g.Go(func() error {
			return srv.Start(gctx, addr)
		})
	}
	return g.Wait()
}
