// Package dashboard renders a Grafana dashboard for the GreptimeDB tables.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"hydra-sim/internal/telemetry"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Panel is one dashboard panel backed by a raw SQL query.
type Panel struct {
	Title string
	Type  string
	Unit  string
	SQL   string
}

type dashboardData struct {
	SnapshotTable string
	AnomalyTable  string
	Panels        []Panel
}

func series(table, column, unit, title string) Panel {
	return Panel{
		Title: title,
		Type:  "timeseries",
		Unit:  unit,
		SQL: fmt.Sprintf("SELECT ts AS time, %s FROM %s WHERE station = '$station' AND $__timeFilter(ts) ORDER BY ts",
			column, table),
	}
}

// Panels returns the panel set for the given tables.
func Panels(snapshots, anomalies string) []Panel {
	return []Panel{
		series(snapshots, "wqi", "none", "Water Quality Index"),
		series(snapshots, "irradiance", "watt", "Solar Irradiance"),
		series(snapshots, "membrane, biofouling", "percent", "Membrane Integrity and Biofouling"),
		series(snapshots, "desal, efficiency", "none", "Desalination Output and Efficiency"),
		series(snapshots, "ph, turbidity", "none", "pH and Turbidity"),
		series(snapshots, "heavy_metal", "ppm", "Heavy Metal"),
		{
			Title: "Anomalies by Category",
			Type:  "table",
			SQL: fmt.Sprintf("SELECT category, max(severity) AS severity, count(*) AS events FROM %s WHERE station = '$station' AND $__timeFilter(ts) GROUP BY category ORDER BY severity DESC, events DESC",
				anomalies),
		},
	}
}

// Render writes every dashboard template to outDir, querying the given tables.
// Empty table names fall back to the defaults. The GreptimeDB datasource UID
// is read from GREPTIMEDB_DATASOURCE_UID.
func Render(outDir, snapshotTable, anomalyTable string) error {
	if snapshotTable == "" {
		snapshotTable = telemetry.SnapshotTableName
	}
	if anomalyTable == "" {
		anomalyTable = telemetry.AnomalyTableName
	}
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"add": func(a, b int) int { return a + b },
		"mul": func(a, b int) int { return a * b },
		"div": func(a, b int) int { return a / b },
		"mod": func(a, b int) int { return a % b },
	}
	t, err := template.New("dashboards").Funcs(funcMap).ParseFS(templates, "templates/*.tmpl")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	data := dashboardData{
		SnapshotTable: snapshotTable,
		AnomalyTable:  anomalyTable,
		Panels:        Panels(snapshotTable, anomalyTable),
	}
	for _, tpl := range t.Templates() {
		name := tpl.Name()
		if !strings.HasSuffix(name, ".tmpl") {
			continue
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := tpl.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
