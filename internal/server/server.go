// Package server exposes the analysis pipelines as a JSON API. Each client
// works inside a session that owns its uploads and a private memo table.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/KaramelBytes/surveyboard/internal/billboard"
	"github.com/KaramelBytes/surveyboard/internal/dataset"
	"github.com/KaramelBytes/surveyboard/internal/memo"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

// Options configures a Server.
type Options struct {
	Catalog      *dataset.Catalog
	Read         table.ReadOptions
	MaxFiles     int
	DisplayTopK  int
	PieTopK      int
	CacheEntries int
	SessionLimit int
	// MaxUploadBytes bounds request bodies; 0 means 32 MiB.
	MaxUploadBytes int64
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// Server routes API requests to the pipelines.
type Server struct {
	opt      Options
	sessions *memo.Sessions
	router   *mux.Router
}

// New builds a server with its session registry.
func New(opt Options) (*Server, error) {
	if opt.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if opt.MaxFiles <= 0 {
		opt.MaxFiles = billboard.DefaultMaxFiles
	}
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = 32 << 20
	}
	sessions, err := memo.NewSessions(opt.SessionLimit, opt.CacheEntries)
	if err != nil {
		return nil, err
	}
	s := &Server{opt: opt, sessions: sessions, router: mux.NewRouter()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/datasets", s.handleCatalog).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)

	sess := api.PathPrefix("/sessions/{id}").Subrouter()
	sess.HandleFunc("/datasets/{dataset}", s.withSession(s.handlePutDataset)).Methods(http.MethodPut)
	sess.HandleFunc("/datasets/{dataset}", s.withSession(s.handleGetDataset)).Methods(http.MethodGet)
	sess.HandleFunc("/overall", s.withSession(s.handleOverall)).Methods(http.MethodGet)
	sess.HandleFunc("/billboards", s.withSession(s.handlePostBillboards)).Methods(http.MethodPost)
	sess.HandleFunc("/billboards", s.withSession(s.handleGetBillboards)).Methods(http.MethodGet)
	sess.HandleFunc("/billboards/map", s.withSession(s.handleBillboardMap)).Methods(http.MethodGet)
	sess.HandleFunc("/billboards/charts/{kind}", s.withSession(s.handleBillboardChart)).Methods(http.MethodGet)
	sess.HandleFunc("/billboards/export", s.withSession(s.handleBillboardExport)).Methods(http.MethodGet)

	if s.opt.Metrics != nil {
		r.Handle("/metrics", s.opt.Metrics).Methods(http.MethodGet)
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Printf("INFO: listening on %s", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("INFO: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("INFO: %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}
