package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	appVerification "github.com/estate-hub/estate-hub/internal/application/verification"
	domainVerification "github.com/estate-hub/estate-hub/internal/domain/verification"
)

func (s *Server) startVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID uuid.UUID `json:"propertyId"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	v, err := s.verificationSvc.Start(r.Context(), actor, req.PropertyID)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

func (s *Server) getVerification(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "verificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid verificationId")
		return
	}
	v, err := s.verificationSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

type gpsRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *Server) captureVerificationGPS(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "verificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid verificationId")
		return
	}
	var req gpsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	v, err := s.verificationSvc.CaptureGPS(r.Context(), actor, id, req.Latitude, req.Longitude)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) sendSellerOTP(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "verificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid verificationId")
		return
	}
	actor, _ := actorFromContext(r.Context())
	if err := s.verificationSvc.SendSellerOTP(r.Context(), actor, id); err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"verificationId": id, "sent": true})
}

type otpVerifyRequest struct {
	Code string `json:"code"`
}

func (s *Server) verifySellerOTP(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "verificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid verificationId")
		return
	}
	var req otpVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	v, err := s.verificationSvc.VerifySellerOTP(r.Context(), actor, id, req.Code)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

type verificationCompleteRequest struct {
	Result          string `json:"result"`
	Notes           string `json:"notes,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty"`
	SendBackToDraft bool   `json:"sendBackToDraft,omitempty"`
}

func (s *Server) completeVerification(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "verificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid verificationId")
		return
	}
	var req verificationCompleteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	v, err := s.verificationSvc.Complete(r.Context(), actor, id, appVerification.CompleteInput{
		Result:          domainVerification.Result(req.Result),
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
		SendBackToDraft: req.SendBackToDraft,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) listPropertyVerifications(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "propertyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid propertyId")
		return
	}
	list, err := s.verificationSvc.ListByProperty(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"verifications": list})
}
