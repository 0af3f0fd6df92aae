package httpapi

import (
	"net/http"

	appRule "github.com/estate-hub/estate-hub/internal/application/rule"
)

type ruleCreateRequest struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Enabled    bool   `json:"enabled"`
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	var req ruleCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	rl, err := s.ruleSvc.Create(r.Context(), actor, req.Name, req.Expression, req.Enabled)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rl)
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.ruleSvc.List(r.Context())
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

func (s *Server) getRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "ruleId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid ruleId")
		return
	}
	rl, err := s.ruleSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rl)
}

type ruleUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Expression *string `json:"expression,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty"`
}

func (s *Server) updateRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "ruleId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid ruleId")
		return
	}
	var req ruleUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	rl, err := s.ruleSvc.Update(r.Context(), actor, id, appRule.UpdateInput{
		Name:       req.Name,
		Expression: req.Expression,
		Enabled:    req.Enabled,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rl)
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "ruleId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid ruleId")
		return
	}
	actor, _ := actorFromContext(r.Context())
	if err := s.ruleSvc.Delete(r.Context(), actor, id); err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"ruleId": id, "deleted": true})
}
