package server

import (
	"net/http"
	"os"
	"path/filepath"

	"crm-insights/internal/metrics"
	"crm-insights/internal/table"
)

// handleUpload ingests a CSV body, preprocesses headers, coerces date and
// amount columns and persists the snapshot so it survives restarts. The
// previous snapshot is replaced whole.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	tbl, err := table.ReadCSV(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_csv", err.Error())
		return
	}
	stats := tbl.Coerce()

	path := filepath.Join(s.dataDir, snapshotFile)
	file, err := os.Create(path)
	if err != nil {
		s.log.Error("persist snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "persist_failed", "could not save uploaded data")
		return
	}
	if err := tbl.WriteCSV(file); err != nil {
		file.Close()
		s.log.Error("persist snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "persist_failed", "could not save uploaded data")
		return
	}
	if err := file.Close(); err != nil {
		s.log.Error("persist snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "persist_failed", "could not save uploaded data")
		return
	}

	s.mu.Lock()
	s.tbl = tbl
	s.stats = stats
	s.mu.Unlock()

	dropped := stats.TotalDropped()
	metrics.RowsDropped.Add(float64(dropped))
	s.log.Info("data uploaded", "rows", len(tbl.Rows), "columns", len(tbl.Columns), "cells_dropped", dropped)

	writeJSON(w, http.StatusCreated, summaryPayload(tbl, stats))
}

func (s *Server) handleDataSummary(w http.ResponseWriter, r *http.Request) {
	tbl, stats := s.snapshot()
	if tbl == nil {
		writeError(w, http.StatusNotFound, "no_data", "no data uploaded yet")
		return
	}
	writeJSON(w, http.StatusOK, summaryPayload(tbl, stats))
}

func summaryPayload(tbl *table.Table, stats table.CoercionStats) map[string]interface{} {
	return map[string]interface{}{
		"rows":     len(tbl.Rows),
		"columns":  tbl.Columns,
		"coercion": stats,
	}
}
