package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"hydra-sim/internal/anomaly"
	"hydra-sim/internal/telemetry"
)

// ReplayLog replays snapshot rows from a JSONL stream to writer. A speed >0
// scales the recorded gaps between rows; speed <= 0 replays without delay.
// When writer also implements AnomalyWriter, anomalies are re-derived from
// each replayed snapshot.
func ReplayLog(ctx context.Context, r io.Reader, writer SnapshotWriter, speed float64) error {
	aw, _ := writer.(AnomalyWriter)
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var row telemetry.SnapshotRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode snapshot row: %w", err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := time.Duration(float64(row.Timestamp.Sub(prev)) / speed)
			if diff > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(diff):
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		if aw != nil {
			if events := anomaly.Detect(row.Snapshot()); len(events) > 0 {
				if err := writeAnomalies(aw, anomalyRows(row, events)); err != nil {
					return err
				}
			}
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a snapshot log and replays it. Rotated backups ending
// in .gz are decompressed on the fly.
func ReplayLogFile(ctx context.Context, path string, writer SnapshotWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	return ReplayLog(ctx, r, writer, speed)
}
