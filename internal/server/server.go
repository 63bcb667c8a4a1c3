// Package server exposes the dashboard API: read-only lead listing, CSV
// download, and trigger endpoints for each pipeline stage.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/pipeline"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Server serves the dashboard API over one pipeline runner.
type Server struct {
	runner *pipeline.Runner
	cfg    config.ServerConfig
}

// New creates a dashboard server.
func New(runner *pipeline.Runner, cfg config.ServerConfig) *Server {
	return &Server{runner: runner, cfg: cfg}
}

// Router builds the chi router with all dashboard routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/export.csv", s.handleExportCSV)

	r.Route("/api", func(r chi.Router) {
		r.Get("/leads", s.handleListLeads)
		r.Get("/actions", s.handleListActions)
		r.Get("/stats", s.handleStats)
		r.Post("/run/{stage}", s.handleRunStage)
		r.Post("/clear", s.handleClear)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("dashboard listening", zap.Int("port", s.cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LeadFilter{
		Search:   q.Get("search"),
		State:    model.LeadState(q.Get("state")),
		Channel:  model.Channel(q.Get("channel")),
		MinScore: queryFloat(q.Get("min_score")),
		Limit:    queryInt(q.Get("limit")),
		Offset:   queryInt(q.Get("offset")),
	}
	if filter.State != "" && !filter.State.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown state %q", filter.State))
		return
	}

	leads, err := s.runner.Store.ListLeads(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ActionFilter{
		LeadID: q.Get("lead_id"),
		Status: model.ActionStatus(q.Get("status")),
		Limit:  queryInt(q.Get("limit")),
	}

	actions, err := s.runner.Store.ListActions(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if actions == nil {
		actions = []model.OutreachAction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions, "count": len(actions)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.runner.Store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := s.runner.Store.ExportRows(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	if err := export.WriteCSV(w, rows); err != nil {
		zap.L().Warn("csv export write failed", zap.Error(err))
	}
}

// runStageRequest carries optional parameters for a stage trigger.
type runStageRequest struct {
	Queries    []string `json:"queries"`
	States     []string `json:"states"`
	MaxResults int      `json:"max_results"`
	Limit      int      `json:"limit"`
	MaxPages   int      `json:"max_pages"`
	StartDate  string   `json:"start_date"`
	ActionDate string   `json:"action_date"`
	Live       bool     `json:"live"`
}

func (s *Server) handleRunStage(w http.ResponseWriter, r *http.Request) {
	stage := chi.URLParam(r, "stage")

	var req runStageRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}
	today := time.Now().UTC().Format(model.DateLayout)
	if req.StartDate == "" {
		req.StartDate = today
	}
	if req.ActionDate == "" {
		req.ActionDate = today
	}

	ctx := r.Context()
	var (
		result any
		err    error
	)
	switch stage {
	case "discover":
		result, err = s.runner.Discover(ctx, req.Queries, req.States, req.MaxResults)
	case "enrich":
		result, err = s.runner.Enrich(ctx, req.Limit, req.MaxPages)
	case "score":
		result, err = s.runner.Score(ctx)
	case "plan":
		result, err = s.runner.Plan(ctx, req.StartDate, req.Limit)
	case "send":
		result, err = s.runner.Send(ctx, req.ActionDate, req.Limit, req.Live)
	case "all":
		result, err = s.runner.RunAll(ctx, req.Queries, req.States, req.MaxResults, req.Limit, req.Limit)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown stage %q", stage))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stage": stage, "result": result})
}

type clearRequest struct {
	Confirm string `json:"confirm"`
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := s.runner.ClearAll(r.Context(), req.Confirm); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func queryFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
