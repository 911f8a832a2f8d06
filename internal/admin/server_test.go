package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydra-sim/internal/analytics"
	"hydra-sim/internal/metrics"
	"hydra-sim/internal/sim"
	"hydra-sim/internal/station"
	"hydra-sim/internal/telemetry"
)

func newTestServer(t *testing.T, ticks int) (*Server, *metrics.Collector) {
	t.Helper()
	col := metrics.NewCollector()
	clock := func() time.Time { return time.Unix(0, 0).UTC() }
	sess := sim.NewSession(station.Default(),
		sim.WithWriter(col),
		sim.WithAnomalyWriter(col),
		sim.WithSimulatorOptions(sim.WithClock(clock)),
	)
	sess.RunN(context.Background(), ticks)
	return NewServer(sess, station.NewRegistry(station.Presets()...), col.Handler()), col
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleSnapshot(t *testing.T) {
	empty, _ := newTestServer(t, 0)
	assert.Equal(t, http.StatusNotFound, do(t, empty, http.MethodGet, "/snapshot", nil).Code)

	s, _ := newTestServer(t, 5)
	w := do(t, s, http.MethodGet, "/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var row telemetry.SnapshotRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, 5, row.Tick)
	assert.Equal(t, station.DefaultName, row.Station)
}

func TestHandleAnalytics(t *testing.T) {
	s, _ := newTestServer(t, 12)
	w := do(t, s, http.MethodGet, "/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var r analytics.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, 12, r.Tick)
	assert.Len(t, r.Summary, 6)
	assert.Len(t, r.WHOChecks, 3)
}

func TestHandleAnomalies(t *testing.T) {
	s, _ := newTestServer(t, 200)
	w := do(t, s, http.MethodGet, "/anomalies?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Total  int               `json:"total"`
		Events []json.RawMessage `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Greater(t, body.Total, 2)
	assert.Len(t, body.Events, 2)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/anomalies?limit=x", nil).Code)
}

func TestHandleExport(t *testing.T) {
	s, _ := newTestServer(t, 3)
	w := do(t, s, http.MethodGet, "/export.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 4)

	gz := do(t, s, http.MethodGet, "/export.csv?gzip=1", nil)
	require.Equal(t, http.StatusOK, gz.Code)
	h, err := analytics.ReadCSV(gz.Body, true)
	require.NoError(t, err)
	assert.Equal(t, 3, h.MaxLen())
}

func TestHandleAddStation(t *testing.T) {
	s, _ := newTestServer(t, 0)

	w := do(t, s, http.MethodPost, "/stations", []byte(`{"lat": 95, "lon": 0}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPost, "/stations", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/stations", []byte(`{"lat": 64.1, "lon": -21.9, "name": "Reykjavik"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Name    string          `json:"name"`
		Climate station.Climate `json:"climate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Reykjavik", created.Name)
	assert.Equal(t, station.ZoneCold, created.Climate.Zone)

	_, ok := s.Stations.Get("Reykjavik")
	assert.True(t, ok)
}

func TestHandleSelect(t *testing.T) {
	s, _ := newTestServer(t, 5)
	before := s.Session.RunID()

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/stations/Atlantis/select", nil).Code)

	w := do(t, s, http.MethodPost, "/stations/"+url.PathEscape("Chiang Rai")+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chiang Rai", s.Session.Station().Name)
	assert.NotEqual(t, before, s.Session.RunID())
	_, ticked := s.Session.Latest()
	assert.False(t, ticked)
}

func TestHandleCompare(t *testing.T) {
	s, _ := newTestServer(t, 10)
	w := do(t, s, http.MethodGet, "/compare/Nan?ticks=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []analytics.ComparisonRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, len(analytics.ComparedMetrics))

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/compare/Nan?ticks=0", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/compare/Atlantis", nil).Code)
}

func TestHandleIndexAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, 3)
	w := do(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), station.DefaultName)
	assert.Contains(t, w.Body.String(), "Tick 3")

	m := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "hydra_ticks_total")

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodDelete, "/stations", nil).Code)
}

func TestStartShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
