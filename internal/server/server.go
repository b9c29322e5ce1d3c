// Package server exposes the dashboard HTTP API: data upload, the analytics
// endpoints the charts are drawn from, and the lead board. Analytics are
// computed fresh from the current snapshot on every request; nothing is
// cached.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"crm-insights/internal/leads"
	"crm-insights/internal/logger"
	"crm-insights/internal/metrics"
	"crm-insights/internal/table"
)

const snapshotFile = "uploaded_data.csv"

// Server carries the current table snapshot and its collaborators. The
// snapshot is swapped whole on upload; readers take the lock only long
// enough to grab the pointer.
type Server struct {
	log     *logger.Logger
	leads   *leads.Store
	dataDir string

	mu    sync.RWMutex
	tbl   *table.Table
	stats table.CoercionStats
}

// New builds a server rooted at dataDir, restoring any previously uploaded
// snapshot from disk.
func New(log *logger.Logger, dataDir string) (*Server, error) {
	leadStore, err := leads.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	s := &Server{log: log, leads: leadStore, dataDir: dataDir}
	if err := s.restoreSnapshot(); err != nil {
		log.Warn("could not restore uploaded data", "error", err)
	}
	return s, nil
}

func (s *Server) restoreSnapshot() error {
	path := filepath.Join(s.dataDir, snapshotFile)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	tbl, err := table.ReadCSV(file)
	if err != nil {
		return err
	}
	stats := tbl.Coerce()
	s.mu.Lock()
	s.tbl = tbl
	s.stats = stats
	s.mu.Unlock()
	s.log.Info("restored uploaded data", "rows", len(tbl.Rows), "columns", len(tbl.Columns))
	return nil
}

func (s *Server) snapshot() (*table.Table, table.CoercionStats) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tbl, s.stats
}

// Router assembles all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/data", s.handleUpload)
		r.Get("/data/summary", s.handleDataSummary)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/lifetime", s.handleLifetime)
			r.Get("/ltv", s.handleLTV)
			r.Get("/gaps", s.handleGaps)
			r.Get("/enrollment", s.handleEnrollment)
			r.Get("/cancellations", s.handleCancellations)
			r.Get("/revenue/monthly", s.handleMonthlyRevenue)
			r.Get("/revenue/yearly", s.handleYearlyRevenue)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", s.handleListLeads)
			r.Post("/", s.handleCreateLead)
			r.Put("/{id}", s.handleUpdateLead)
			r.Delete("/{id}", s.handleDeleteLead)
			r.Post("/{id}/move", s.handleMoveLead)
		})
	})
	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("dashboard API listening", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "crm-insights"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}
