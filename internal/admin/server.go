// Package admin serves a small HTTP control surface for a running session.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"hydra-sim/internal/analytics"
	"hydra-sim/internal/anomaly"
	"hydra-sim/internal/logging"
	"hydra-sim/internal/sim"
	"hydra-sim/internal/station"
)

const reasoningTail = 20

//go:embed templates/index.html
var content embed.FS

// Server exposes the session state and station controls.
type Server struct {
	Session  *sim.Session
	Stations *station.Registry
	metrics  http.Handler
	tpl      *template.Template
	router   *mux.Router
}

// NewServer wires the routes. metrics may be nil to disable /metrics.
func NewServer(s *sim.Session, reg *station.Registry, metrics http.Handler) *Server {
	funcs := template.FuncMap{"lower": func(v any) string { return strings.ToLower(fmt.Sprint(v)) }}
	tpl := template.Must(template.New("index.html").Funcs(funcs).ParseFS(content, "templates/index.html"))
	srv := &Server{Session: s, Stations: reg, metrics: metrics, tpl: tpl}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/analytics", s.handleAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/anomalies", s.handleAnomalies).Methods(http.MethodGet)
	r.HandleFunc("/reasoning", s.handleReasoning).Methods(http.MethodGet)
	r.HandleFunc("/export.csv", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/stations", s.handleStations).Methods(http.MethodGet)
	r.HandleFunc("/stations", s.handleAddStation).Methods(http.MethodPost)
	r.HandleFunc("/stations/{name}/select", s.handleSelect).Methods(http.MethodPost)
	r.HandleFunc("/compare/{name}", s.handleCompare).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	s.router = r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	log := logging.FromContext(ctx)
	hs := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("admin server listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("admin server shutting down")
		return hs.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type stationView struct {
	station.Config
	Climate station.Climate `json:"climate"`
}

func (s *Server) stationViews() []stationView {
	list := s.Stations.List()
	out := make([]stationView, len(list))
	for i, c := range list {
		out[i] = stationView{Config: c, Climate: c.Climate()}
	}
	return out
}

func maintenanceText(f analytics.Forecast) string {
	switch {
	case f.TicksRemaining == nil:
		return "stable"
	case f.Due():
		return "due now"
	default:
		return fmt.Sprintf("in %d ticks", *f.TicksRemaining)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.Session.Station()
	_, ticked := s.Session.Latest()
	report := s.Session.Report()
	lines := s.Session.RecentReasoning(reasoningTail)
	data := struct {
		Station     station.Config
		Climate     station.Climate
		RunID       string
		Ticked      bool
		Report      analytics.Report
		Maintenance string
		Reasoning   []string
		Stations    []stationView
	}{
		Station:     st,
		Climate:     st.Climate(),
		RunID:       s.Session.RunID(),
		Ticked:      ticked,
		Report:      report,
		Maintenance: maintenanceText(report.Maintenance),
		Reasoning:   lines,
		Stations:    s.stationViews(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	row, ok := s.Session.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no ticks yet")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Report())
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	var (
		events []anomaly.Event
		total  int
	)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		events, total = s.Session.RecentAnomalies(n)
	} else {
		events, total = s.Session.Anomalies()
	}
	if events == nil {
		events = []anomaly.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "events": events})
}

func (s *Server) handleReasoning(w http.ResponseWriter, r *http.Request) {
	lines := s.Session.ReasoningLog()
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	compress := r.URL.Query().Get("gzip") != ""
	name := "hydra-history.csv"
	if compress {
		name += ".gz"
		w.Header().Set("Content-Type", "application/gzip")
	} else {
		w.Header().Set("Content-Type", "text/csv")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := s.Session.WriteCSV(w, compress); err != nil {
		logging.FromContext(r.Context()).Error("csv export", "err", err)
	}
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stationViews())
}

func (s *Server) handleAddStation(w http.ResponseWriter, r *http.Request) {
	var req station.CustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cfg, err := req.Build()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Stations.Add(cfg)
	writeJSON(w, http.StatusCreated, stationView{Config: cfg, Climate: cfg.Climate()})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	cfg, ok := s.Stations.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown station %q", name))
		return
	}
	s.Session.Reset(cfg)
	logging.FromContext(r.Context()).Info("station selected", "station", cfg.Name)
	writeJSON(w, http.StatusOK, map[string]string{"station": cfg.Name, "run_id": s.Session.RunID()})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	cfg, ok := s.Stations.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown station %q", name))
		return
	}
	ticks := sim.DefaultComparisonTicks
	if v := r.URL.Query().Get("ticks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "ticks must be a positive integer")
			return
		}
		ticks = n
	}
	writeJSON(w, http.StatusOK, s.Session.Compare(cfg, ticks))
}
