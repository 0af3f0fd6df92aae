package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	appAuth "github.com/estate-hub/estate-hub/internal/application/auth"
	appSettlement "github.com/estate-hub/estate-hub/internal/application/settlement"
	domainSettlement "github.com/estate-hub/estate-hub/internal/domain/settlement"
)

type transactionAbortFn func(ctx context.Context, actor appAuth.Actor, transactionID uuid.UUID, reason string) (*domainSettlement.Transaction, error)

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	var status *domainSettlement.Status
	if v := r.URL.Query().Get("status"); v != "" {
		sv := domainSettlement.Status(v)
		status = &sv
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	list, err := s.settlementSvc.List(r.Context(), actor, status, limit, offset)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"transactions": list})
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	t, err := s.settlementSvc.Get(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

type bookSlotRequest struct {
	Date     time.Time `json:"date"`
	Office   string    `json:"office"`
	Location string    `json:"location,omitempty"`
}

func (s *Server) bookSlot(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	var req bookSlotRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	t, err := s.settlementSvc.BookSlot(r.Context(), actor, id, appSettlement.BookSlotInput{
		Date:     req.Date,
		Office:   req.Office,
		Location: req.Location,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

type settlementOTPSendRequest struct {
	Party string `json:"party"`
}

func (s *Server) sendSettlementOTP(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	var req settlementOTPSendRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	if err := s.settlementSvc.SendOTP(r.Context(), actor, id, domainSettlement.Party(req.Party)); err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"transactionId": id, "party": req.Party, "sent": true})
}

type settlementOTPVerifyRequest struct {
	Party string `json:"party"`
	Code  string `json:"code"`
}

func (s *Server) verifySettlementOTP(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	var req settlementOTPVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	t, err := s.settlementSvc.VerifyOTP(r.Context(), actor, id, domainSettlement.Party(req.Party), req.Code)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) settlementCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	var req gpsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	t, err := s.settlementSvc.AgentCheckIn(r.Context(), actor, id, req.Latitude, req.Longitude)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

type recordPaymentRequest struct {
	Type     string `json:"type"`
	Amount   int64  `json:"amount"`
	ProofRef string `json:"proofRef"`
}

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	var req recordPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	p, err := s.settlementSvc.RecordPayment(r.Context(), actor, id, appSettlement.RecordPaymentInput{
		Type:     domainSettlement.PaymentType(req.Type),
		Amount:   req.Amount,
		ProofRef: req.ProofRef,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	actor, _ := actorFromContext(r.Context())
	list, err := s.settlementSvc.ListPayments(r.Context(), actor, id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"payments": list})
}

type paymentVerifyRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note,omitempty"`
}

func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "paymentId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid paymentId")
		return
	}
	var req paymentVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	p, err := s.settlementSvc.VerifyPayment(r.Context(), actor, id, req.Approve, req.Note)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) getCommission(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	actor, _ := actorFromContext(r.Context())
	record, err := s.settlementSvc.GetCommission(r.Context(), actor, id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

type disburseRequest struct {
	ExternalRef string `json:"externalRef"`
}

func (s *Server) disburseCommission(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	var req disburseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	record, err := s.settlementSvc.DisburseCommission(r.Context(), actor, id, req.ExternalRef)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) waiveCommission(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	var req reasonRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	record, err := s.settlementSvc.WaiveCommission(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) completeTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	actor, _ := actorFromContext(r.Context())
	t, err := s.settlementSvc.Complete(r.Context(), actor, id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) cancelTransaction(w http.ResponseWriter, r *http.Request) {
	s.abortTransaction(w, r, s.settlementSvc.Cancel)
}

func (s *Server) failTransaction(w http.ResponseWriter, r *http.Request) {
	s.abortTransaction(w, r, s.settlementSvc.Fail)
}

func (s *Server) abortTransaction(w http.ResponseWriter, r *http.Request, fn transactionAbortFn) {
	id, err := parseUUIDParam(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid transactionId")
		return
	}
	var req reasonRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, _ := actorFromContext(r.Context())
	t, err := fn(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}
