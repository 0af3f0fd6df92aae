package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appAudit "github.com/estate-hub/estate-hub/internal/application/audit"
)

func (s *Server) queryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := appAudit.QueryParams{
		EntityType: optString(q.Get("entityType")),
		EntityID:   optString(q.Get("entityId")),
		Action:     optString(q.Get("action")),
		Actor:      optString(q.Get("actor")),
		RiskLevel:  optString(q.Get("riskLevel")),
		TraceID:    optString(q.Get("traceId")),
		Cursor:     optString(q.Get("cursor")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid limit")
			return
		}
		params.Limit = n
	}
	if v := q.Get("startTime"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "startTime must be RFC3339")
			return
		}
		params.StartTime = &t
	}
	if v := q.Get("endTime"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "endTime must be RFC3339")
			return
		}
		params.EndTime = &t
	}

	result, err := s.auditSvc.Query(r.Context(), params)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "auditId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid auditId")
		return
	}
	log, err := s.auditSvc.GetByID(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, log)
}

func (s *Server) verifyAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "auditId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid auditId")
		return
	}
	result, err := s.auditSvc.VerifyIntegrity(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) getEntityHistory(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityId")
	if entityType == "" || entityID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "entityType and entityId are required")
		return
	}
	logs, err := s.auditSvc.GetEntityHistory(r.Context(), entityType, entityID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
