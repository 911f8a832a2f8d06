package telemetry

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"
)

func TestStateClamping(t *testing.T) {
	s := NewSolarState(1500, -1)
	if s.Irradiance() != MaxIrradiance || s.OutputRate() != 0 {
		t.Errorf("solar not clamped: %+v", s)
	}
	d := NewDefenseState(120, -5, true)
	if d.Membrane() != 100 || d.Biofouling() != 0 || !d.Countermeasure() {
		t.Errorf("defense not clamped: %+v", d)
	}
	sen := NewSensorState(Value(15), Value(-0.2), Offline())
	if v, _ := sen.PH().Get(); v != 14 {
		t.Errorf("ph = %v, want 14", v)
	}
	if v, _ := sen.Turbidity().Get(); v != 0 {
		t.Errorf("turbidity = %v, want 0", v)
	}
	if sen.HeavyMetal().Present() {
		t.Errorf("offline reading became present")
	}
	if got := NewSolarState(math.NaN(), math.Inf(1)); got.Irradiance() != 0 || !math.IsInf(got.OutputRate(), 1) {
		t.Errorf("unexpected NaN/Inf handling: %+v", got)
	}
}

func TestReadingJSON(t *testing.T) {
	type wrap struct {
		A Reading `json:"a"`
		B Reading `json:"b"`
	}
	b, err := json.Marshal(wrap{A: Value(1.5), B: Offline()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":1.5,"b":null}` {
		t.Fatalf("json = %s", b)
	}
	var got wrap
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.A != Value(1.5) || got.B.Present() {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestParseReading(t *testing.T) {
	r, err := ParseReading("")
	if err != nil || r.Present() {
		t.Fatalf("empty string should be offline: %v %v", r, err)
	}
	r, err = ParseReading("0.0051")
	if err != nil || r != Value(0.0051) {
		t.Fatalf("parse = %v %v", r, err)
	}
	if _, err := ParseReading("x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSnapshotRowRoundTrip(t *testing.T) {
	s := Snapshot{
		Solar:     NewSolarState(800, 6.4),
		Defense:   NewDefenseState(84, 18, false),
		Sensors:   NewSensorState(Value(7.1), Offline(), Value(0.004)),
		Tick:      3,
		Timestamp: time.Unix(0, 0).UTC(),
	}
	row := NewSnapshotRow("run", "Nan", s)
	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back SnapshotRow
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Snapshot().SameState(s) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back.Snapshot(), s)
	}
}

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 4; i++ {
		h.Push(Value(float64(i)))
	}
	if got := h.Present(); !reflect.DeepEqual(got, []float64{2, 3, 4}) {
		t.Fatalf("present = %v", got)
	}
}

func TestHistoriesRecord(t *testing.T) {
	h := NewHistories(DefaultHistoryLen)
	s := Snapshot{
		Solar:   NewSolarState(500, 4),
		Defense: NewDefenseState(85, 15, false),
		Sensors: NewSensorState(Offline(), Value(2), Value(0.005)),
		Tick:    1,
	}
	h.Record(s)
	for _, m := range []Metric{MetricIrradiance, MetricDesal, MetricMembrane, MetricBiofouling, MetricPH, MetricTurbidity, MetricHeavyMetal} {
		if h.Series(m).Len() != 1 {
			t.Errorf("%s not recorded", m)
		}
	}
	if h.Series(MetricPH).Last().Present() {
		t.Errorf("offline ph recorded as present")
	}
	if h.Series(MetricWQI).Len() != 0 {
		t.Errorf("derived series should be untouched")
	}
	clone := h.Clone()
	h.Push(MetricWQI, Value(90))
	if clone.Series(MetricWQI).Len() != 0 {
		t.Errorf("clone shares storage")
	}
	if !reflect.DeepEqual(clone.Metrics(), Metrics) {
		t.Errorf("clone order = %v", clone.Metrics())
	}
}
