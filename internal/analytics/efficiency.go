package analytics

import "hydra-sim/internal/telemetry"

// NightIrradiance is the level below which efficiency is undefined.
const NightIrradiance = 10.0

// EnergyEfficiency returns desalination output per kW of solar input
// (L/kWh, unit collector area). It is offline at night.
func EnergyEfficiency(outputRate, irradiance float64) telemetry.Reading {
	if irradiance < NightIrradiance {
		return telemetry.Offline()
	}
	return telemetry.Value(outputRate / (irradiance / 1000))
}
