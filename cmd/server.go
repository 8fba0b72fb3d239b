package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/internal/table"
)

// server is the HTTP control surface over a single pipeline: upload a table,
// drive it with start/pause/stop, watch status, download the result.
type server struct {
	env      *enrichEnv
	store    store.Store
	rowDelay time.Duration
	logSize  int

	// ctx outlives individual requests; pipeline runs are bound to it so
	// shutdown cancels them.
	ctx context.Context

	mu       sync.Mutex
	pipeline *enrich.Pipeline
	original model.Table
	source   string
}

func newServer(ctx context.Context, env *enrichEnv, st store.Store, rowDelay time.Duration, logSize int) *server {
	return &server{env: env, store: st, rowDelay: rowDelay, logSize: logSize, ctx: ctx}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/tables", s.handleUpload)
	r.Route("/pipeline", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/pause", s.handlePause)
		r.Post("/stop", s.handleStop)
		r.Get("/status", s.handleStatus)
		r.Get("/result", s.handleResult)
	})
	r.Get("/runs", s.handleRuns)

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts a CSV body and replaces the current pipeline. Busy
// pipelines must be stopped first.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline != nil {
		st := s.pipeline.Status()
		if st.State == enrich.StateProcessing || st.State == enrich.StatePaused {
			writeError(w, http.StatusConflict, "pipeline is busy; stop it first")
			return
		}
	}

	tbl, err := table.Read(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := r.Header.Get("X-Source-Name")
	if source == "" {
		source = "http"
	}

	s.pipeline = enrich.NewPipeline(tbl, s.env.Enricher, s.env.Creds,
		enrich.WithRowDelay(s.rowDelay),
		enrich.WithLogSize(s.logSize),
	)
	s.source = source
	s.original = tbl
	zap.L().Info("table uploaded",
		zap.String("source", source),
		zap.Int("rows", len(tbl.Rows)),
		zap.String("entity_column", s.pipeline.EntityColumn()),
	)

	writeJSON(w, http.StatusCreated, map[string]any{
		"rows":          len(tbl.Rows),
		"columns":       tbl.Columns,
		"entity_column": s.pipeline.EntityColumn(),
	})
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.pipeline
	source := s.source
	original := s.original
	s.mu.Unlock()

	if p == nil {
		writeError(w, http.StatusNotFound, "no table uploaded")
		return
	}

	fresh := p.Status().State != enrich.StatePaused
	if err := p.Start(s.ctx); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	if fresh && s.store != nil {
		go s.watchRun(p, source, original)
	}

	writeJSON(w, http.StatusOK, p.Status())
}

// watchRun blocks until the run's driver exits, then records the outcome.
func (s *server) watchRun(p *enrich.Pipeline, source string, original model.Table) {
	<-p.Done()
	st := p.Status()

	completion := 0.0
	if result, err := p.Result(); err == nil {
		completion = enrich.Summarize(original, result).Completion
	}
	recordRun(s.ctx, s.store, source, len(original.Rows), store.RunCompletion{
		Status:       string(st.State),
		RowsEnriched: st.Enriched,
		Completion:   completion,
	})
}

func (s *server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.withPipeline(w, func(p *enrich.Pipeline) error { return p.Pause() })
}

func (s *server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.withPipeline(w, func(p *enrich.Pipeline) error { return p.Stop() })
}

func (s *server) withPipeline(w http.ResponseWriter, op func(*enrich.Pipeline) error) {
	s.mu.Lock()
	p := s.pipeline
	s.mu.Unlock()

	if p == nil {
		writeError(w, http.StatusNotFound, "no table uploaded")
		return
	}
	if err := op(p); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.pipeline
	s.mu.Unlock()

	if p == nil {
		writeError(w, http.StatusNotFound, "no table uploaded")
		return
	}
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *server) handleResult(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.pipeline
	s.mu.Unlock()

	if p == nil {
		writeError(w, http.StatusNotFound, "no table uploaded")
		return
	}
	result, err := p.Result()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="enriched.csv"`)
	if err := table.Write(w, result); err != nil {
		zap.L().Error("write result csv", zap.Error(err))
	}
}

func (s *server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run history disabled")
		return
	}
	runs, err := s.store.ListRuns(r.Context(), store.RunFilter{
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
