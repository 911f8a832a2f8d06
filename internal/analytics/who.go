package analytics

import (
	"fmt"

	"hydra-sim/internal/telemetry"
)

// Status is the result of a compliance check.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusOffline Status = "OFFLINE"
	StatusPartial Status = "PARTIAL"
)

// WHO drinking water limits.
const (
	WHOPHMin         = 6.5
	WHOPHMax         = 8.5
	WHOTurbidityNTU  = 1.0
	WHOHeavyMetalPPM = 0.01
)

// Check is the result for one probe.
type Check struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
	Result    Status `json:"result"`
}

func checkChannel(name string, r telemetry.Reading, format string, ok func(float64) bool) Check {
	v, present := r.Get()
	if !present {
		return Check{Parameter: name, Value: "N/A", Result: StatusOffline}
	}
	res := StatusFail
	if ok(v) {
		res = StatusPass
	}
	return Check{Parameter: name, Value: fmt.Sprintf(format, v), Result: res}
}

// CheckWHO checks each probe against WHO limits. Any FAIL makes the
// aggregate FAIL; otherwise it is PASS only when every probe passed.
func CheckWHO(ph, turbidity, heavyMetal telemetry.Reading) (Status, []Check) {
	checks := []Check{
		checkChannel("pH", ph, "%.2f", func(v float64) bool { return v >= WHOPHMin && v <= WHOPHMax }),
		checkChannel("Turbidity", turbidity, "%.2f NTU", func(v float64) bool { return v < WHOTurbidityNTU }),
		checkChannel("Heavy Metal", heavyMetal, "%.4f PPM", func(v float64) bool { return v < WHOHeavyMetalPPM }),
	}

	passed := 0
	for _, c := range checks {
		switch c.Result {
		case StatusFail:
			return StatusFail, checks
		case StatusPass:
			passed++
		}
	}
	if passed == len(checks) {
		return StatusPass, checks
	}
	return StatusPartial, checks
}
