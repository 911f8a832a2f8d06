package sim

import (
	"encoding/json"
	"errors"

	"gopkg.in/natefinch/lumberjack.v2"

	"hydra-sim/internal/telemetry"
)

// Rotation defaults for JSONL logs.
const (
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 5
)

// FileWriter writes snapshot and anomaly rows to size-rotated JSONL files.
type FileWriter struct {
	snapFile    *lumberjack.Logger
	anomalyFile *lumberjack.Logger
	snapEnc     *json.Encoder
	anomalyEnc  *json.Encoder
}

func rotatingFile(path string, maxSizeMB int) *lumberjack.Logger {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultLogMaxSizeMB
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: DefaultLogMaxBackups,
		Compress:   true,
	}
}

// NewFileWriter creates a FileWriter. anomalyPath may be empty to skip the
// anomaly log. Files are opened lazily on first write.
func NewFileWriter(snapshotPath, anomalyPath string, maxSizeMB int) (*FileWriter, error) {
	if snapshotPath == "" {
		return nil, errors.New("file writer: snapshot path is required")
	}
	sf := rotatingFile(snapshotPath, maxSizeMB)
	fw := &FileWriter{snapFile: sf, snapEnc: json.NewEncoder(sf)}
	if anomalyPath != "" {
		af := rotatingFile(anomalyPath, maxSizeMB)
		fw.anomalyFile = af
		fw.anomalyEnc = json.NewEncoder(af)
	}
	return fw, nil
}

// Write logs a single snapshot row.
func (f *FileWriter) Write(row telemetry.SnapshotRow) error {
	return f.snapEnc.Encode(row)
}

// WriteBatch logs multiple snapshot rows.
func (f *FileWriter) WriteBatch(rows []telemetry.SnapshotRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAnomaly logs a single anomaly row, if enabled.
func (f *FileWriter) WriteAnomaly(row telemetry.AnomalyRow) error {
	if f.anomalyEnc == nil {
		return nil
	}
	return f.anomalyEnc.Encode(row)
}

// WriteAnomalies logs multiple anomaly rows.
func (f *FileWriter) WriteAnomalies(rows []telemetry.AnomalyRow) error {
	for _, r := range rows {
		if err := f.WriteAnomaly(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.snapFile != nil {
		err = f.snapFile.Close()
	}
	if f.anomalyFile != nil {
		err = errors.Join(err, f.anomalyFile.Close())
	}
	return err
}
