package analytics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"hydra-sim/internal/telemetry"
)

// BuildCSV renders histories as CSV: a tick column followed by one column per
// metric in tracking order. Rows run 1..longest series; missing samples and
// offline readings are empty.
func BuildCSV(h *telemetry.Histories) string {
	var buf bytes.Buffer
	// bytes.Buffer writes never fail.
	_ = WriteCSV(&buf, h, false)
	return buf.String()
}

// WriteCSV streams the CSV export to w, gzip-compressed when compress is set.
func WriteCSV(w io.Writer, h *telemetry.Histories, compress bool) error {
	if compress {
		zw := gzip.NewWriter(w)
		if err := writeCSV(zw, h); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	}
	return writeCSV(w, h)
}

func writeCSV(w io.Writer, h *telemetry.Histories) error {
	metrics := h.Metrics()
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(metrics)+1)
	header = append(header, "tick")
	for _, m := range metrics {
		header = append(header, string(m))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < h.MaxLen(); i++ {
		record[0] = strconv.Itoa(i + 1)
		for j, m := range metrics {
			s := h.Series(m)
			if i < s.Len() {
				record[j+1] = s.At(i).String()
			} else {
				record[j+1] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads an export back into histories. Every series gets one reading
// per row and empty cells become offline readings, so a shorter series comes
// back padded with offline readings.
func ParseCSV(r io.Reader) (*telemetry.Histories, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != "tick" {
		return nil, fmt.Errorf("read csv: missing tick header")
	}
	header := records[0][1:]
	rows := records[1:]

	out := &telemetry.Histories{}
	for col, name := range header {
		series := telemetry.NewHistory(max(len(rows), 1))
		for i, row := range rows {
			rd, err := telemetry.ParseReading(row[col+1])
			if err != nil {
				return nil, fmt.Errorf("parse %s row %d: %w", name, i+1, err)
			}
			series.Push(rd)
		}
		out.Set(telemetry.Metric(name), series)
	}
	return out, nil
}

// ReadCSV is ParseCSV for a possibly gzip-compressed export.
func ReadCSV(r io.Reader, compressed bool) (*telemetry.Histories, error) {
	if !compressed {
		return ParseCSV(r)
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()
	return ParseCSV(zr)
}
