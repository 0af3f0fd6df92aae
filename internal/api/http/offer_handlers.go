package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	appOffer "github.com/estate-hub/estate-hub/internal/application/offer"
)

type offerSubmitRequest struct {
	PropertyID    uuid.UUID  `json:"propertyId"`
	OfferedPrice  int64      `json:"offeredPrice"`
	Message       *string    `json:"message,omitempty"`
	ParentOfferID *uuid.UUID `json:"parentOfferId,omitempty"`
}

func (s *Server) submitOffer(w http.ResponseWriter, r *http.Request) {
	var req offerSubmitRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	o, err := s.offerSvc.Submit(r.Context(), actor, appOffer.SubmitInput{
		PropertyID:    req.PropertyID,
		OfferedPrice:  req.OfferedPrice,
		Message:       req.Message,
		ParentOfferID: req.ParentOfferID,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (s *Server) listOffers(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	limit, offset := parseLimitOffset(r, 50, 200)
	list, err := s.offerSvc.ListByBuyer(r.Context(), actor.UserID, limit, offset)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"offers": list})
}

func (s *Server) getOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "offerId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid offerId")
		return
	}
	o, err := s.offerSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (s *Server) getOfferThread(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "offerId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid offerId")
		return
	}
	thread, err := s.offerSvc.GetThread(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"offers": thread})
}

func (s *Server) acceptOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "offerId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid offerId")
		return
	}
	actor, _ := actorFromContext(r.Context())
	txn, err := s.offerSvc.Accept(r.Context(), actor, id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

func (s *Server) rejectOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "offerId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid offerId")
		return
	}
	var req reasonRequest
	_ = decodeBody(r, &req)
	actor, _ := actorFromContext(r.Context())
	o, err := s.offerSvc.Reject(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

type offerCounterRequest struct {
	CounterPrice int64 `json:"counterPrice"`
}

func (s *Server) counterOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "offerId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid offerId")
		return
	}
	var req offerCounterRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	o, err := s.offerSvc.Counter(r.Context(), actor, id, req.CounterPrice)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (s *Server) withdrawOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "offerId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid offerId")
		return
	}
	actor, _ := actorFromContext(r.Context())
	o, err := s.offerSvc.Withdraw(r.Context(), actor, id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (s *Server) listPropertyOffers(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "propertyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid propertyId")
		return
	}
	list, err := s.offerSvc.ListByProperty(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"offers": list})
}
