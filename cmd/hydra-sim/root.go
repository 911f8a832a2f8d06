package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"hydra-sim/internal/config"
	"hydra-sim/internal/logging"
	"hydra-sim/internal/station"
)

var (
	rootRegistryPath string
	rootLogLevel     string
	rootEnvFile      string

	appEnv config.Env
	appCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hydra-sim",
	Short: "HYDRA desalination station simulator",
	Long:  "hydra-sim simulates solar desalination stations and derives water quality analytics from their telemetry.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var envFiles []string
		if rootEnvFile != "" {
			envFiles = append(envFiles, rootEnvFile)
		}
		env, err := config.LoadEnv(envFiles...)
		if err != nil {
			return err
		}
		appEnv = env
		if !cmd.Flags().Changed("log-level") && env.LogLevel != "" {
			rootLogLevel = env.LogLevel
		}
		slog.SetDefault(logging.New(rootLogLevel))

		path := rootRegistryPath
		if path == "" {
			path = env.Registry
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		appCfg = cfg
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootRegistryPath, "registry", "", "Path to station registry YAML (default: built-in presets, or HYDRA_REGISTRY)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&rootEnvFile, "env-file", "", "Optional .env file (default: ./.env if present)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(stationsCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// stationFlags selects a station by registry name or by raw coordinates.
type stationFlags struct {
	name   string
	custom string
	lat    float64
	lon    float64
}

func (f *stationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "station", "", "Station name from the registry (default: the configured default)")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude of a custom station (use with --lon)")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Longitude of a custom station (use with --lat)")
	cmd.Flags().StringVar(&f.custom, "name", "", "Name of the custom station (default: derived from coordinates)")
}

func (f *stationFlags) resolve(cmd *cobra.Command, reg *station.Registry) (station.Config, error) {
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return station.Config{}, fmt.Errorf("--lat and --lon must be given together")
		}
		cfg, err := station.CustomRequest{Lat: f.lat, Lon: f.lon, Name: f.custom}.Build()
		if err != nil {
			return station.Config{}, err
		}
		reg.Add(cfg)
		return cfg, nil
	}
	return lookupStation(reg, f.name)
}

func lookupStation(reg *station.Registry, name string) (station.Config, error) {
	if name == "" {
		return appCfg.Station(), nil
	}
	cfg, ok := reg.Get(name)
	if !ok {
		return station.Config{}, fmt.Errorf("unknown station %q (known: %v)", name, reg.Names())
	}
	return cfg, nil
}
