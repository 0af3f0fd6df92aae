package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

type visitRequestRequest struct {
	PropertyID    uuid.UUID `json:"propertyId"`
	PreferredDate time.Time `json:"preferredDate"`
}

func (s *Server) requestVisit(w http.ResponseWriter, r *http.Request) {
	var req visitRequestRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	v, err := s.visitSvc.Request(r.Context(), actor, req.PropertyID, req.PreferredDate)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

func (s *Server) listVisits(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	limit, offset := parseLimitOffset(r, 50, 200)
	switch r.URL.Query().Get("as") {
	case "agent":
		list, err := s.visitSvc.ListByAgent(r.Context(), actor.UserID, limit, offset)
		if err != nil {
			respondFault(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"visits": list})
	default:
		list, err := s.visitSvc.ListByBuyer(r.Context(), actor.UserID, limit, offset)
		if err != nil {
			respondFault(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"visits": list})
	}
}

func (s *Server) getVisit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "visitId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid visitId")
		return
	}
	v, err := s.visitSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

type visitRespondRequest struct {
	Approve       bool       `json:"approve"`
	ConfirmedDate *time.Time `json:"confirmedDate,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

func (s *Server) respondVisit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "visitId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid visitId")
		return
	}
	var req visitRespondRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	v, err := s.visitSvc.Respond(r.Context(), actor, id, req.Approve, req.ConfirmedDate, req.Reason)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) cancelVisit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "visitId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid visitId")
		return
	}
	var req reasonRequest
	_ = decodeBody(r, &req)
	actor, _ := actorFromContext(r.Context())
	v, err := s.visitSvc.Cancel(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) checkInVisit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "visitId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid visitId")
		return
	}
	var req gpsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	v, err := s.visitSvc.CheckIn(r.Context(), actor, id, req.Latitude, req.Longitude)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

type visitCompleteRequest struct {
	BuyerRating *int `json:"buyerRating,omitempty"`
}

func (s *Server) completeVisit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "visitId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid visitId")
		return
	}
	var req visitCompleteRequest
	_ = decodeBody(r, &req)
	actor, _ := actorFromContext(r.Context())
	v, err := s.visitSvc.Complete(r.Context(), actor, id, req.BuyerRating)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) listPropertyVisits(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "propertyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid propertyId")
		return
	}
	list, err := s.visitSvc.ListByProperty(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"visits": list})
}
