package station

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// Climate zone names.
const (
	ZoneTropical  = "Tropical"
	ZoneArid      = "Arid"
	ZoneTemperate = "Temperate"
	ZoneCold      = "Cold"
	ZonePolar     = "Polar"
)

// Climate holds regional simulation parameters derived from latitude.
type Climate struct {
	Zone        string  `json:"zone"`
	NoiseFactor float64 `json:"noise_factor"`
	FailRate    float64 `json:"fail_rate"`
	CyclePeriod int     `json:"cycle_period"`
}

// climateBands is ordered by increasing upper bound; the last band is open.
var climateBands = []struct {
	below   float64
	climate Climate
}{
	{23.5, Climate{ZoneTropical, 1.0, 0.04, 120}},
	{35.0, Climate{ZoneArid, 1.3, 0.03, 130}},
	{55.0, Climate{ZoneTemperate, 1.1, 0.02, 150}},
	{66.5, Climate{ZoneCold, 1.4, 0.02, 180}},
	{math.Inf(1), Climate{ZonePolar, 1.6, 0.05, 240}},
}

// ClimateFromLatitude maps the absolute latitude onto a climate zone.
// NaN falls through to the polar band.
func ClimateFromLatitude(lat float64) Climate {
	a := math.Abs(lat)
	for _, b := range climateBands {
		if a < b.below {
			return b.climate
		}
	}
	return climateBands[len(climateBands)-1].climate
}

// IrradianceBase estimates baseline irradiance in W/m², 800 at the equator and 400 at the poles.
func IrradianceBase(lat float64) float64 {
	return 400.0 + 400.0*math.Cos(radians(math.Abs(lat)))
}

// MembraneBase estimates baseline membrane integrity in percent, within [77, 90].
// Warm latitudes carry more biofouling pressure and start lower.
func MembraneBase(lat float64) float64 {
	return 80.0 + 10.0*(1.0-0.3*math.Cos(radians(math.Abs(lat))))
}

// SeedFromCoordinates derives a stable 32-bit seed from the first four bytes of
// SHA-256 over the coordinates formatted with six decimals.
func SeedFromCoordinates(lat, lon float64) uint32 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%.6f,%.6f", lat, lon)))
	return binary.BigEndian.Uint32(sum[:4])
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
