package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appAssignment "github.com/estate-hub/estate-hub/internal/application/assignment"
	appAudit "github.com/estate-hub/estate-hub/internal/application/audit"
	appAuth "github.com/estate-hub/estate-hub/internal/application/auth"
	appOffer "github.com/estate-hub/estate-hub/internal/application/offer"
	appProperty "github.com/estate-hub/estate-hub/internal/application/property"
	appRule "github.com/estate-hub/estate-hub/internal/application/rule"
	appSettlement "github.com/estate-hub/estate-hub/internal/application/settlement"
	appVerification "github.com/estate-hub/estate-hub/internal/application/verification"
	appVisit "github.com/estate-hub/estate-hub/internal/application/visit"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	domainUser "github.com/estate-hub/estate-hub/internal/domain/user"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authSvc         *appAuth.Service
	propertySvc     *appProperty.Service
	assignmentSvc   *appAssignment.Service
	verificationSvc *appVerification.Service
	visitSvc        *appVisit.Service
	offerSvc        *appOffer.Service
	settlementSvc   *appSettlement.Service
	ruleSvc         *appRule.Service
	auditSvc        *appAudit.Service
}

func NewServer(
	authSvc *appAuth.Service,
	propertySvc *appProperty.Service,
	assignmentSvc *appAssignment.Service,
	verificationSvc *appVerification.Service,
	visitSvc *appVisit.Service,
	offerSvc *appOffer.Service,
	settlementSvc *appSettlement.Service,
	ruleSvc *appRule.Service,
	auditSvc *appAudit.Service,
) *Server {
	return &Server{
		authSvc:         authSvc,
		propertySvc:     propertySvc,
		assignmentSvc:   assignmentSvc,
		verificationSvc: verificationSvc,
		visitSvc:        visitSvc,
		offerSvc:        offerSvc,
		settlementSvc:   settlementSvc,
		ruleSvc:         ruleSvc,
		auditSvc:        auditSvc,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/register", s.register)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/me", s.me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/properties", func(r chi.Router) {
				r.Post("/", s.createProperty)
				r.Get("/", s.listProperties)
				r.Get("/{propertyId}", s.getProperty)
				r.Patch("/{propertyId}", s.updateProperty)
				r.Delete("/{propertyId}", s.deleteProperty)
				r.Post("/{propertyId}/submit", s.submitProperty)
				r.Post("/{propertyId}/deactivate", s.deactivateProperty)
				r.Post("/{propertyId}/reactivate", s.reactivateProperty)

				r.Get("/{propertyId}/offers", s.listPropertyOffers)
				r.Get("/{propertyId}/visits", s.listPropertyVisits)
				r.Get("/{propertyId}/verifications", s.listPropertyVerifications)
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Post("/", s.requestAssignment)
				r.Get("/", s.listAssignments)
				r.Get("/{assignmentId}", s.getAssignment)
				r.Post("/{assignmentId}/respond", s.respondAssignment)
				r.Post("/{assignmentId}/cancel", s.cancelAssignment)
			})

			r.Route("/verifications", func(r chi.Router) {
				r.Post("/", s.startVerification)
				r.Get("/{verificationId}", s.getVerification)
				r.Post("/{verificationId}/gps", s.captureVerificationGPS)
				r.Post("/{verificationId}/otp/send", s.sendSellerOTP)
				r.Post("/{verificationId}/otp/verify", s.verifySellerOTP)
				r.Post("/{verificationId}/complete", s.completeVerification)
			})

			r.Route("/visits", func(r chi.Router) {
				r.Post("/", s.requestVisit)
				r.Get("/", s.listVisits)
				r.Get("/{visitId}", s.getVisit)
				r.Post("/{visitId}/respond", s.respondVisit)
				r.Post("/{visitId}/cancel", s.cancelVisit)
				r.Post("/{visitId}/checkin", s.checkInVisit)
				r.Post("/{visitId}/complete", s.completeVisit)
			})

			r.Route("/offers", func(r chi.Router) {
				r.Post("/", s.submitOffer)
				r.Get("/", s.listOffers)
				r.Get("/{offerId}", s.getOffer)
				r.Get("/{offerId}/thread", s.getOfferThread)
				r.Post("/{offerId}/accept", s.acceptOffer)
				r.Post("/{offerId}/reject", s.rejectOffer)
				r.Post("/{offerId}/counter", s.counterOffer)
				r.Post("/{offerId}/withdraw", s.withdrawOffer)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.With(s.requireRole(domainUser.RoleAdmin)).Get("/", s.listTransactions)
				r.Get("/{transactionId}", s.getTransaction)
				r.Post("/{transactionId}/slot", s.bookSlot)
				r.Post("/{transactionId}/otp/send", s.sendSettlementOTP)
				r.Post("/{transactionId}/otp/verify", s.verifySettlementOTP)
				r.Post("/{transactionId}/checkin", s.settlementCheckIn)
				r.Post("/{transactionId}/payments", s.recordPayment)
				r.Get("/{transactionId}/payments", s.listPayments)
				r.Get("/{transactionId}/commission", s.getCommission)
				r.With(s.requireRole(domainUser.RoleAdmin)).Post("/{transactionId}/commission/disburse", s.disburseCommission)
				r.With(s.requireRole(domainUser.RoleAdmin)).Post("/{transactionId}/commission/waive", s.waiveCommission)
				r.Post("/{transactionId}/complete", s.completeTransaction)
				r.Post("/{transactionId}/cancel", s.cancelTransaction)
				r.Post("/{transactionId}/fail", s.failTransaction)
			})

			r.With(s.requireRole(domainUser.RoleAdmin)).Post("/payments/{paymentId}/verify", s.verifyPayment)

			r.Route("/rules", func(r chi.Router) {
				r.Use(s.requireRole(domainUser.RoleAdmin))
				r.Post("/", s.createRule)
				r.Get("/", s.listRules)
				r.Get("/{ruleId}", s.getRule)
				r.Patch("/{ruleId}", s.updateRule)
				r.Delete("/{ruleId}", s.deleteRule)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(s.requireRole(domainUser.RoleAdmin))
				r.Get("/", s.listUsers)
				r.Get("/{userId}", s.getUser)
				r.Put("/{userId}/status", s.setUserStatus)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireRole(domainUser.RoleAdmin))
				r.Get("/audit", s.queryAudit)
				r.Get("/audit/{auditId}", s.getAudit)
				r.Get("/audit/{auditId}/verify", s.verifyAudit)
				r.Get("/audit/entity/{entityType}/{entityId}", s.getEntityHistory)
			})
		})
	})

	return r
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondFault maps the typed error taxonomy to HTTP statuses in one
// place.
func respondFault(w http.ResponseWriter, err error) {
	var (
		notFound     *fault.NotFoundError
		validation   *fault.ValidationError
		unauthorized *fault.UnauthorizedError
		expired      *fault.ExpiredError
		stale        *fault.StaleWriteError
		transition   *fault.InvalidTransitionError
	)
	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.As(err, &unauthorized):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.As(err, &expired):
		respondError(w, http.StatusGone, "EXPIRED", err.Error())
	case errors.As(err, &stale):
		respondError(w, http.StatusConflict, "STALE_WRITE", err.Error())
	case errors.As(err, &transition):
		respondError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case fault.IsConflict(err):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
