package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crm-insights/internal/leads"
)

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	list, err := s.leads.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	lead, err := leads.New(body.Name, body.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.leads.Add(lead); err != nil {
		s.log.Error("save lead", "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to save lead")
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	lead, err := s.leads.Update(id, body.Name, body.Email)
	if errors.Is(err, leads.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleMoveLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	lead, err := s.leads.Move(id, body.Status)
	if errors.Is(err, leads.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.leads.Delete(id)
	if errors.Is(err, leads.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
