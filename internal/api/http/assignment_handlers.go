package httpapi

import (
	"net/http"

	"github.com/google/uuid"
)

type assignmentRequestRequest struct {
	PropertyID uuid.UUID `json:"propertyId"`
	AgentID    uuid.UUID `json:"agentId"`
}

func (s *Server) requestAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequestRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	a, err := s.assignmentSvc.Request(r.Context(), actor, req.PropertyID, req.AgentID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	agentID := actor.UserID
	if v := r.URL.Query().Get("agentId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid agentId")
			return
		}
		agentID = id
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	list, err := s.assignmentSvc.ListByAgent(r.Context(), agentID, limit, offset)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"assignments": list})
}

func (s *Server) getAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignmentId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid assignmentId")
		return
	}
	a, err := s.assignmentSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

type assignmentRespondRequest struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) respondAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignmentId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid assignmentId")
		return
	}
	var req assignmentRespondRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	a, err := s.assignmentSvc.Respond(r.Context(), actor, id, req.Accept, req.Reason)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

type reasonRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (s *Server) cancelAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignmentId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid assignmentId")
		return
	}
	var req reasonRequest
	_ = decodeBody(r, &req)
	actor, _ := actorFromContext(r.Context())
	a, err := s.assignmentSvc.Cancel(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
