package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
	"github.com/sony/gobreaker/v2"

	"hydra-sim/internal/telemetry"
)

const (
	defaultGreptimePort = 4001
	greptimeTimeout     = 5 * time.Second
)

// greptimeClient is the part of the ingester client the writer uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes snapshot and anomaly rows to GreptimeDB. Writes go
// through a circuit breaker so an unreachable database does not stall ticks.
type GreptimeDBWriter struct {
	client       greptimeClient
	breaker      *gobreaker.CircuitBreaker[*gpb.GreptimeResponse]
	snapTable    string
	anomalyTable string
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
func NewGreptimeDBWriter(endpoint, database, snapTable, anomalyTable string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptimedb client: %w", err)
	}
	return newGreptimeDBWriter(client, snapTable, anomalyTable), nil
}

func newGreptimeDBWriter(client greptimeClient, snapTable, anomalyTable string) *GreptimeDBWriter {
	if snapTable == "" {
		snapTable = telemetry.SnapshotTableName
	}
	if anomalyTable == "" {
		anomalyTable = telemetry.AnomalyTableName
	}
	return &GreptimeDBWriter{
		client:       client,
		breaker:      newWriteBreaker("greptimedb"),
		snapTable:    snapTable,
		anomalyTable: anomalyTable,
	}
}

func newWriteBreaker(name string) *gobreaker.CircuitBreaker[*gpb.GreptimeResponse] {
	return gobreaker.NewCircuitBreaker[*gpb.GreptimeResponse](gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func splitEndpoint(endpoint string) (string, int, error) {
	if endpoint == "" {
		return "", 0, fmt.Errorf("greptimedb endpoint is empty")
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("greptimedb endpoint port %q: %w", portStr, err)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) write(tbl *table.Table) error {
	if w.breaker == nil {
		w.breaker = newWriteBreaker("greptimedb")
	}
	_, err := w.breaker.Execute(func() (*gpb.GreptimeResponse, error) {
		ctx, cancel := context.WithTimeout(context.Background(), greptimeTimeout)
		defer cancel()
		return w.client.Write(ctx, tbl)
	})
	return err
}

// nullable converts an optional value to a nullable column value.
func nullable(r telemetry.Reading) any {
	if v, ok := r.Get(); ok {
		return v
	}
	return nil
}

func (w *GreptimeDBWriter) snapshotTable() (*table.Table, error) {
	tbl, err := table.New(w.snapTable)
	if err != nil {
		return nil, err
	}
	for _, c := range []string{"run_id", "station"} {
		if err := tbl.AddTagColumn(c, types.STRING); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddFieldColumn("tick", types.INT64); err != nil {
		return nil, err
	}
	for _, c := range []string{"irradiance", "desal", "membrane", "biofouling"} {
		if err := tbl.AddFieldColumn(c, types.FLOAT64); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddFieldColumn("countermeasure", types.BOOLEAN); err != nil {
		return nil, err
	}
	for _, c := range []string{"ph", "turbidity", "heavy_metal", "wqi"} {
		if err := tbl.AddFieldColumn(c, types.FLOAT64); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddFieldColumn("grade", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("efficiency", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	return tbl, nil
}

// Write inserts a single snapshot row.
func (w *GreptimeDBWriter) Write(row telemetry.SnapshotRow) error {
	return w.WriteBatch([]telemetry.SnapshotRow{row})
}

// WriteBatch inserts multiple snapshot rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := w.snapshotTable()
	if err != nil {
		return fmt.Errorf("build %s schema: %w", w.snapTable, err)
	}
	for _, r := range rows {
		err := tbl.AddRow(
			r.RunID, r.Station, int64(r.Tick),
			r.Irradiance, r.Desal, r.Membrane, r.Biofouling,
			r.Countermeasure,
			nullable(r.PH), nullable(r.Turbidity), nullable(r.HeavyMetal),
			r.WQI, r.Grade, nullable(r.Efficiency),
			r.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("add %s row: %w", w.snapTable, err)
		}
	}
	if err := w.write(tbl); err != nil {
		return fmt.Errorf("write %s: %w", w.snapTable, err)
	}
	return nil
}

// WriteAnomaly inserts a single anomaly row.
func (w *GreptimeDBWriter) WriteAnomaly(row telemetry.AnomalyRow) error {
	return w.WriteAnomalies([]telemetry.AnomalyRow{row})
}

// WriteAnomalies inserts multiple anomaly rows.
func (w *GreptimeDBWriter) WriteAnomalies(rows []telemetry.AnomalyRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.anomalyTable)
	if err != nil {
		return err
	}
	for _, c := range []string{"run_id", "station", "category"} {
		if err := tbl.AddTagColumn(c, types.STRING); err != nil {
			return err
		}
	}
	for _, c := range []string{"tick", "severity"} {
		if err := tbl.AddFieldColumn(c, types.INT64); err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, r.Station, r.Category, int64(r.Tick), int64(r.Severity), r.Timestamp); err != nil {
			return fmt.Errorf("add %s row: %w", w.anomalyTable, err)
		}
	}
	if err := w.write(tbl); err != nil {
		return fmt.Errorf("write %s: %w", w.anomalyTable, err)
	}
	return nil
}
