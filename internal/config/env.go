package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Env holds settings read from HYDRA_* environment variables.
type Env struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	Registry         string `envconfig:"REGISTRY"`
	TickInterval     string `envconfig:"TICK_INTERVAL"`
	AdminAddr        string `envconfig:"ADMIN_ADDR" default:":8080"`
	GreptimeEndpoint string `envconfig:"GREPTIMEDB_ENDPOINT"`
	GreptimeDatabase string `envconfig:"GREPTIMEDB_DATABASE" default:"public"`
	SnapshotTable    string `envconfig:"SNAPSHOT_TABLE" default:"hydra_snapshots"`
	AnomalyTable     string `envconfig:"ANOMALY_TABLE" default:"hydra_anomalies"`
	LogFile          string `envconfig:"LOG_FILE"`
	AnomalyLogFile   string `envconfig:"ANOMALY_LOG_FILE"`
	LogMaxSizeMB     int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
}

// LoadEnv loads an optional .env file, then processes HYDRA_* variables.
// Variables already set in the environment win over the file.
func LoadEnv(files ...string) (Env, error) {
	_ = godotenv.Load(files...)
	var e Env
	if err := envconfig.Process("hydra", &e); err != nil {
		return Env{}, fmt.Errorf("environment: %w", err)
	}
	return e, nil
}
