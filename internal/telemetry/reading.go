package telemetry

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Reading is an optional sensor value. The zero Reading is offline, so a
// missing value can never be mistaken for 0.
type Reading struct {
	value   float64
	present bool
}

// Value returns a present reading.
func Value(v float64) Reading { return Reading{value: v, present: true} }

// Offline returns a reading with no value.
func Offline() Reading { return Reading{} }

// Get returns the value and whether it is present.
func (r Reading) Get() (float64, bool) { return r.value, r.present }

// Present reports whether the reading carries a value.
func (r Reading) Present() bool { return r.present }

// Or returns the value, or def when offline.
func (r Reading) Or(def float64) float64 {
	if !r.present {
		return def
	}
	return r.value
}

// Map applies fn to a present value.
func (r Reading) Map(fn func(float64) float64) Reading {
	if !r.present {
		return r
	}
	return Value(fn(r.value))
}

// String renders the value with full precision, or "" when offline.
func (r Reading) String() string {
	if !r.present {
		return ""
	}
	return strconv.FormatFloat(r.value, 'g', -1, 64)
}

// MarshalJSON encodes offline readings as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.present {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON decodes null as offline.
func (r *Reading) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*r = Offline()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Value(v)
	return nil
}

// ParseReading parses a decimal string; the empty string is offline.
func ParseReading(s string) (Reading, error) {
	if s == "" {
		return Offline(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Offline(), err
	}
	return Value(v), nil
}
