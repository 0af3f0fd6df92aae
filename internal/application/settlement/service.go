package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appaudit "github.com/estate-hub/estate-hub/internal/application/audit"
	"github.com/estate-hub/estate-hub/internal/application/auth"
	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/geo"
	"github.com/estate-hub/estate-hub/internal/domain/otp"
	"github.com/estate-hub/estate-hub/internal/domain/property"
	"github.com/estate-hub/estate-hub/internal/domain/settlement"
	"github.com/estate-hub/estate-hub/internal/domain/user"
	"github.com/estate-hub/estate-hub/internal/infrastructure/notify"
)

// Config bounds the settlement workflow.
type Config struct {
	OTPTTL         time.Duration
	OTPMaxAttempts int
	OTPLockFor     time.Duration
	CheckInRadiusM float64
}

// Service orchestrates the settlement of an accepted offer: slot
// booking, dual OTP identity verification, staged document-gated
// payments and the final completion that marks the property SOLD.
type Service struct {
	txnRepo        settlement.Repository
	paymentRepo    settlement.PaymentRepository
	commissionRepo settlement.CommissionRepository
	propertyRepo   property.Repository
	otpStore       otp.Store
	dispatcher     notify.Dispatcher
	auditSvc       *appaudit.Service
	cfg            Config
	logger         zerolog.Logger
}

// NewService creates a settlement service.
func NewService(txnRepo settlement.Repository, paymentRepo settlement.PaymentRepository, commissionRepo settlement.CommissionRepository, propertyRepo property.Repository, otpStore otp.Store, dispatcher notify.Dispatcher, auditSvc *appaudit.Service, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		txnRepo:        txnRepo,
		paymentRepo:    paymentRepo,
		commissionRepo: commissionRepo,
		propertyRepo:   propertyRepo,
		otpStore:       otpStore,
		dispatcher:     dispatcher,
		auditSvc:       auditSvc,
		cfg:            cfg,
		logger:         logger.With().Str("service", "settlement").Logger(),
	}
}

// Get returns a transaction by id.
func (s *Service) Get(ctx context.Context, transactionID uuid.UUID) (*settlement.Transaction, error) {
	t, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &fault.NotFoundError{Entity: "transaction", ID: transactionID.String()}
	}
	return t, nil
}

// GetByOffer returns the transaction created for an accepted offer.
func (s *Service) GetByOffer(ctx context.Context, offerID uuid.UUID) (*settlement.Transaction, error) {
	t, err := s.txnRepo.GetByOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &fault.NotFoundError{Entity: "transaction", ID: offerID.String()}
	}
	return t, nil
}

// List lists transactions, optionally by status. Admin only.
func (s *Service) List(ctx context.Context, actor auth.Actor, status *settlement.Status, limit, offset int) ([]*settlement.Transaction, error) {
	if !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "list transactions"}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.txnRepo.ListByStatus(ctx, status, limit, offset)
}

// BookSlotInput carries the registration appointment.
type BookSlotInput struct {
	Date     time.Time
	Office   string
	Location string
}

// BookSlot fixes the registration appointment and moves the
// transaction to SLOT_BOOKED.
func (s *Service) BookSlot(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, in BookSlotInput) (*settlement.Transaction, error) {
	t, err := s.getForParty(ctx, actor, transactionID, "book slot")
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !in.Date.After(now) {
		return nil, &fault.ValidationError{Field: "date", Reason: "registration date must be in the future"}
	}
	if in.Office == "" {
		return nil, &fault.ValidationError{Field: "office", Reason: "registration office is required"}
	}

	old := t.Status
	if err := t.Transition(settlement.StatusSlotBooked); err != nil {
		return nil, err
	}
	date := in.Date.UTC()
	t.RegistrationDate = &date
	t.RegistrationOffice = &in.Office
	if in.Location != "" {
		t.RegistrationLocation = &in.Location
	}
	t.UpdatedAt = now
	if err := s.txnRepo.Update(ctx, t, t.Version); err != nil {
		return nil, err
	}
	s.auditStatus(ctx, actor, t, old, map[string]interface{}{
		"status": t.Status, "registrationDate": date, "registrationOffice": in.Office,
	})
	s.notifyParties(ctx, t, "settlement.slot_booked", "registration slot booked")
	return t, nil
}

// SendOTP issues an identity challenge to one party of the deal.
// Issuance follows the same order as verification: no seller challenge
// exists until the buyer has verified.
func (s *Service) SendOTP(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, party settlement.Party) error {
	t, err := s.getForAgent(ctx, actor, transactionID, "send settlement OTP")
	if err != nil {
		return err
	}
	purpose, recipient, err := partyTarget(t, party)
	if err != nil {
		return err
	}
	if target := verifyTarget(party); !t.CanTransitionTo(target) {
		return &fault.InvalidTransitionError{
			Entity: "transaction",
			ID:     t.TransactionID.String(),
			From:   string(t.Status),
			To:     string(target),
		}
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return err
	}
	key := otp.Key(purpose, t.TransactionID.String())
	if err := s.otpStore.Put(ctx, key, otp.HashCode(code), s.cfg.OTPTTL); err != nil {
		return err
	}
	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:       "otp.settlement",
		EntityType: string(audit.EntityTypeTransaction),
		EntityID:   t.TransactionID.String(),
		Recipient:  recipient.String(),
		Message:    "your settlement verification code is " + code,
	})
	s.logger.Info().
		Str("transactionId", t.TransactionID.String()).
		Str("party", string(party)).
		Msg("settlement OTP sent")
	return nil
}

// VerifyOTP checks a party's code. The buyer verifies first; the
// transition table rejects any other order. Verifying the seller
// advances straight through SELLER_VERIFIED to ALL_VERIFIED.
func (s *Service) VerifyOTP(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, party settlement.Party, code string) (*settlement.Transaction, error) {
	t, err := s.getForAgent(ctx, actor, transactionID, "verify settlement OTP")
	if err != nil {
		return nil, err
	}
	purpose, _, err := partyTarget(t, party)
	if err != nil {
		return nil, err
	}

	target := verifyTarget(party)
	if !t.CanTransitionTo(target) {
		return nil, &fault.InvalidTransitionError{
			Entity: "transaction",
			ID:     t.TransactionID.String(),
			From:   string(t.Status),
			To:     string(target),
		}
	}

	key := otp.Key(purpose, t.TransactionID.String())
	if err := s.checkCode(ctx, key, code, t.TransactionID.String()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	old := t.Status
	if err := t.Transition(target); err != nil {
		return nil, err
	}
	if party == settlement.PartyBuyer {
		t.BuyerVerifiedAt = &now
	} else {
		t.SellerVerifiedAt = &now
	}
	t.UpdatedAt = now
	if err := s.txnRepo.Update(ctx, t, t.Version); err != nil {
		return nil, err
	}
	s.auditStatus(ctx, actor, t, old, map[string]interface{}{"status": t.Status, "party": party})

	// seller verification is the last identity gate
	if t.Status == settlement.StatusSellerVerified {
		old = t.Status
		if err := t.Transition(settlement.StatusAllVerified); err != nil {
			return nil, err
		}
		t.UpdatedAt = time.Now().UTC()
		if err := s.txnRepo.Update(ctx, t, t.Version); err != nil {
			return nil, err
		}
		s.auditStatus(ctx, actor, t, old, map[string]interface{}{"status": t.Status})
		s.notifyParties(ctx, t, "settlement.all_verified", "both parties verified")
	}
	return t, nil
}

// AgentCheckIn records the agent's GPS position at the property on
// settlement day. Required before the transaction can complete.
func (s *Service) AgentCheckIn(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, lat, lng float64) (*settlement.Transaction, error) {
	t, err := s.getForAgent(ctx, actor, transactionID, "settlement check-in")
	if err != nil {
		return nil, err
	}
	switch t.Status {
	case settlement.StatusSlotBooked, settlement.StatusBuyerVerified, settlement.StatusSellerVerified, settlement.StatusAllVerified:
	default:
		return nil, &fault.ValidationError{Field: "status", Reason: "check-in is only possible between slot booking and payment"}
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil, &fault.ValidationError{Field: "coordinates", Reason: "latitude/longitude out of range"}
	}
	p, err := s.propertyRepo.GetByID(ctx, t.PropertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &fault.NotFoundError{Entity: "property", ID: t.PropertyID.String()}
	}
	distance := geo.DistanceMeters(lat, lng, p.Latitude, p.Longitude)
	if distance > s.cfg.CheckInRadiusM {
		return nil, fault.Validationf("coordinates", "check-in is %.0fm from the property, limit is %.0fm", distance, s.cfg.CheckInRadiusM)
	}

	now := time.Now().UTC()
	t.AgentGPSLat = &lat
	t.AgentGPSLng = &lng
	t.AgentCheckedInAt = &now
	t.UpdatedAt = now
	if err := s.txnRepo.Update(ctx, t, t.Version); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeTransaction,
		EntityID:   t.TransactionID.String(),
		Action:     audit.ActionCheckIn,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  map[string]interface{}{"distanceMeters": distance},
	})
	return t, nil
}

// RecordPaymentInput carries a payment proof.
type RecordPaymentInput struct {
	Type     settlement.PaymentType
	Amount   int64
	ProofRef string
}

// RecordPayment files a payment proof against the transaction. A deed
// or registration proof filed while the seller is paid moves the
// transaction to DOCUMENTS_PENDING.
func (s *Service) RecordPayment(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, in RecordPaymentInput) (*settlement.Payment, error) {
	t, err := s.getForParty(ctx, actor, transactionID, "record payment")
	if err != nil {
		return nil, err
	}
	if err := settlement.ValidatePaymentType(in.Type); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, &fault.ValidationError{Field: "amount", Reason: "amount must be positive"}
	}
	if in.ProofRef == "" {
		return nil, &fault.ValidationError{Field: "proofRef", Reason: "proof reference is required"}
	}
	if t.Terminal() {
		return nil, &fault.ConflictError{Entity: "transaction", Constraint: "transaction is closed"}
	}

	now := time.Now().UTC()
	p := &settlement.Payment{
		PaymentID:     uuid.New(),
		TransactionID: t.TransactionID,
		Type:          in.Type,
		Amount:        in.Amount,
		ProofRef:      in.ProofRef,
		Status:        settlement.PaymentPending,
		CreatedAt:     now,
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypePayment,
		EntityID:   p.PaymentID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  p,
	})

	if t.Status == settlement.StatusSellerPaid && isDeedProof(in.Type) {
		old := t.Status
		if err := t.Transition(settlement.StatusDocumentsPending); err == nil {
			t.UpdatedAt = now
			if err := s.txnRepo.Update(ctx, t, t.Version); err != nil {
				return nil, err
			}
			s.auditStatus(ctx, actor, t, old, map[string]interface{}{"status": t.Status})
		}
	}
	return p, nil
}

func isDeedProof(t settlement.PaymentType) bool {
	switch t {
	case settlement.PaymentSaleDeedBuyer, settlement.PaymentSaleDeedSeller, settlement.PaymentRegistrationDoc:
		return true
	}
	return false
}

// VerifyPayment decides a filed proof. Admin only. A verified token
// payment while all parties are verified pays the seller; a verified
// platform commission readies the payout.
func (s *Service) VerifyPayment(ctx context.Context, actor auth.Actor, paymentID uuid.UUID, approve bool, note string) (*settlement.Payment, error) {
	if !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "verify payment"}
	}
	p, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &fault.NotFoundError{Entity: "payment", ID: paymentID.String()}
	}

	decision := settlement.PaymentVerified
	action := audit.ActionVerify
	if !approve {
		decision = settlement.PaymentRejected
		action = audit.ActionReject
	}
	now := time.Now().UTC()
	if err := p.Verify(decision, actor.UserID, note, now); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypePayment,
		EntityID:   p.PaymentID.String(),
		Action:     action,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  map[string]interface{}{"status": p.Status, "note": p.Note},
		RiskLevel:  audit.RiskLevelMedium,
	})
	if !approve {
		return p, nil
	}

	t, err := s.Get(ctx, p.TransactionID)
	if err != nil {
		return nil, err
	}
	switch p.Type {
	case settlement.PaymentToken:
		if t.Status == settlement.StatusAllVerified {
			old := t.Status
			if err := t.Transition(settlement.StatusSellerPaid); err != nil {
				return nil, err
			}
			t.UpdatedAt = now
			if err := s.txnRepo.Update(ctx, t, t.Version); err != nil {
				return nil, err
			}
			s.auditStatus(ctx, actor, t, old, map[string]interface{}{"status": t.Status})
			s.notifyParties(ctx, t, "settlement.seller_paid", "token payment verified")
		}
	case settlement.PaymentPlatformCommission:
		record, err := s.commissionRepo.GetByTransaction(ctx, t.TransactionID)
		if err != nil {
			return nil, err
		}
		if record != nil && record.Status == settlement.PayoutPending {
			if err := s.commissionRepo.MarkReady(ctx, record.RecordID); err != nil {
				return nil, err
			}
			s.auditSvc.Log(ctx, &audit.Entry{
				EntityType: audit.EntityTypeCommission,
				EntityID:   record.RecordID.String(),
				Action:     audit.ActionStatusChange,
				Actor:      actor.Username,
				ActorRole:  string(actor.Role),
				OldValues:  map[string]interface{}{"status": settlement.PayoutPending},
				NewValues:  map[string]interface{}{"status": settlement.PayoutReadyToDisburse},
			})
		}
	}
	return p, nil
}

// ListPayments lists the transaction's payment proofs.
func (s *Service) ListPayments(ctx context.Context, actor auth.Actor, transactionID uuid.UUID) ([]*settlement.Payment, error) {
	if _, err := s.getForParty(ctx, actor, transactionID, "list payments"); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByTransaction(ctx, transactionID)
}

// GetCommission returns the transaction's commission record.
func (s *Service) GetCommission(ctx context.Context, actor auth.Actor, transactionID uuid.UUID) (*settlement.CommissionRecord, error) {
	t, err := s.getForParty(ctx, actor, transactionID, "view commission")
	if err != nil {
		return nil, err
	}
	record, err := s.commissionRepo.GetByTransaction(ctx, t.TransactionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &fault.NotFoundError{Entity: "commission record", ID: transactionID.String()}
	}
	return record, nil
}

// DisburseCommission pays out the agent share. Idempotent: a retry of
// a paid record fails with AlreadyDisbursedError and no second payout
// happens.
func (s *Service) DisburseCommission(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, externalRef string) (*settlement.CommissionRecord, error) {
	if !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "disburse commission"}
	}
	if externalRef == "" {
		return nil, &fault.ValidationError{Field: "externalRef", Reason: "external reference is required"}
	}
	record, err := s.commissionRepo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &fault.NotFoundError{Entity: "commission record", ID: transactionID.String()}
	}
	if err := s.commissionRepo.Disburse(ctx, record.RecordID, externalRef); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeCommission,
		EntityID:   record.RecordID.String(),
		Action:     audit.ActionDisburse,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  map[string]interface{}{"status": settlement.PayoutPaid, "externalRef": externalRef, "agentShare": record.AgentShare},
		RiskLevel:  audit.RiskLevelCritical,
	})
	s.logger.Info().
		Str("recordId", record.RecordID.String()).
		Int64("agentShare", record.AgentShare).
		Msg("commission disbursed")
	return s.commissionRepo.GetByID(ctx, record.RecordID)
}

// WaiveCommission forgives the payout. Admin only.
func (s *Service) WaiveCommission(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, reason string) (*settlement.CommissionRecord, error) {
	if !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "waive commission"}
	}
	if reason == "" {
		return nil, &fault.ValidationError{Field: "reason", Reason: "waiver requires a reason"}
	}
	record, err := s.commissionRepo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &fault.NotFoundError{Entity: "commission record", ID: transactionID.String()}
	}
	if err := s.commissionRepo.Waive(ctx, record.RecordID); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeCommission,
		EntityID:   record.RecordID.String(),
		Action:     audit.ActionWaive,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		Reason:     reason,
		NewValues:  map[string]interface{}{"status": settlement.PayoutWaived},
		RiskLevel:  audit.RiskLevelHigh,
	})
	return s.commissionRepo.GetByID(ctx, record.RecordID)
}

// Complete closes the deal. Requires DOCUMENTS_PENDING, every payment
// gate verified, an agent check-in and a settled commission. The
// property becomes SOLD.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, transactionID uuid.UUID) (*settlement.Transaction, error) {
	if !actor.Is(user.RoleAdmin, user.RoleAgent) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "complete transaction"}
	}
	t, err := s.getForAgent(ctx, actor, transactionID, "complete transaction")
	if err != nil {
		return nil, err
	}
	if !t.CanTransitionTo(settlement.StatusCompleted) {
		return nil, &fault.InvalidTransitionError{
			Entity: "transaction",
			ID:     t.TransactionID.String(),
			From:   string(t.Status),
			To:     string(settlement.StatusCompleted),
		}
	}
	if !t.CheckedIn() {
		return nil, &fault.ValidationError{Field: "checkIn", Reason: "agent check-in is required before completion"}
	}
	payments, err := s.paymentRepo.ListByTransaction(ctx, t.TransactionID)
	if err != nil {
		return nil, err
	}
	if !settlement.DocumentsVerified(payments) {
		return nil, &fault.ValidationError{Field: "payments", Reason: "not every payment gate is verified"}
	}
	record, err := s.commissionRepo.GetByTransaction(ctx, t.TransactionID)
	if err != nil {
		return nil, err
	}
	if record == nil || (record.Status != settlement.PayoutPaid && record.Status != settlement.PayoutWaived) {
		return nil, &fault.ValidationError{Field: "commission", Reason: "commission must be paid or waived before completion"}
	}

	p, err := s.propertyRepo.GetByID(ctx, t.PropertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &fault.NotFoundError{Entity: "property", ID: t.PropertyID.String()}
	}

	now := time.Now().UTC()
	old := t.Status
	if err := t.Transition(settlement.StatusCompleted); err != nil {
		return nil, err
	}
	t.CompletedAt = &now
	t.UpdatedAt = now
	if err := s.txnRepo.Update(ctx, t, t.Version); err != nil {
		return nil, err
	}

	oldPropStatus := p.Status
	if err := p.Transition(property.StatusSold, now); err != nil {
		return nil, err
	}
	if err := s.propertyRepo.Update(ctx, p, p.Version); err != nil {
		return nil, err
	}

	s.auditStatus(ctx, actor, t, old, map[string]interface{}{"status": t.Status, "completedAt": now})
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeProperty,
		EntityID:   p.PropertyID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": oldPropStatus},
		NewValues:  map[string]interface{}{"status": p.Status},
		RiskLevel:  audit.RiskLevelHigh,
	})
	s.notifyParties(ctx, t, "settlement.completed", "transaction completed")
	s.logger.Info().
		Str("transactionId", t.TransactionID.String()).
		Str("propertyId", p.PropertyID.String()).
		Msg("transaction completed")
	return t, nil
}

// Cancel aborts an in-flight transaction and returns the property to
// market. The accepted offer stays accepted; the history remains.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, reason string) (*settlement.Transaction, error) {
	return s.abort(ctx, actor, transactionID, settlement.StatusCancelled, reason)
}

// Fail marks a transaction failed (registration refused, payment
// bounced). The property returns to market.
func (s *Service) Fail(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, reason string) (*settlement.Transaction, error) {
	return s.abort(ctx, actor, transactionID, settlement.StatusFailed, reason)
}

func (s *Service) abort(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, target settlement.Status, reason string) (*settlement.Transaction, error) {
	t, err := s.getForParty(ctx, actor, transactionID, "abort transaction")
	if err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, &fault.ValidationError{Field: "reason", Reason: "abort requires a reason"}
	}

	now := time.Now().UTC()
	old := t.Status
	if err := t.Transition(target); err != nil {
		return nil, err
	}
	t.CancelReason = &reason
	t.UpdatedAt = now
	if err := s.txnRepo.Update(ctx, t, t.Version); err != nil {
		return nil, err
	}

	// an unsettled payout dies with the deal
	if record, err := s.commissionRepo.GetByTransaction(ctx, t.TransactionID); err == nil && record != nil {
		if record.Status == settlement.PayoutPending || record.Status == settlement.PayoutReadyToDisburse {
			if err := s.commissionRepo.Waive(ctx, record.RecordID); err != nil {
				s.logger.Error().Err(err).Str("recordId", record.RecordID.String()).Msg("failed to waive commission")
			}
		}
	}

	p, err := s.propertyRepo.GetByID(ctx, t.PropertyID)
	if err != nil {
		return nil, err
	}
	if p != nil && p.Sellable() {
		oldPropStatus := p.Status
		if err := p.Transition(property.StatusActive, now); err != nil {
			return nil, err
		}
		if err := s.propertyRepo.Update(ctx, p, p.Version); err != nil {
			return nil, err
		}
		s.auditSvc.Log(ctx, &audit.Entry{
			EntityType: audit.EntityTypeProperty,
			EntityID:   p.PropertyID.String(),
			Action:     audit.ActionStatusChange,
			Actor:      actor.Username,
			ActorRole:  string(actor.Role),
			OldValues:  map[string]interface{}{"status": oldPropStatus},
			NewValues:  map[string]interface{}{"status": p.Status},
		})
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeTransaction,
		EntityID:   t.TransactionID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": t.Status, "reason": reason},
		RiskLevel:  audit.RiskLevelHigh,
	})
	s.notifyParties(ctx, t, "settlement.aborted", "transaction "+string(target))
	return t, nil
}

func (s *Service) checkCode(ctx context.Context, key, code, entityID string) error {
	locked, err := s.otpStore.Locked(ctx, key)
	if err != nil {
		return err
	}
	if locked {
		return &fault.UnauthorizedError{Actor: entityID, Action: "verify OTP: challenge locked"}
	}
	hash, ok, err := s.otpStore.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return &fault.ExpiredError{Entity: "otp challenge", ID: entityID}
	}
	if otp.HashCode(code) != hash {
		nowLocked, err := s.otpStore.RegisterFailure(ctx, key, s.cfg.OTPMaxAttempts, s.cfg.OTPLockFor)
		if err != nil {
			return err
		}
		if nowLocked {
			return &fault.UnauthorizedError{Actor: entityID, Action: "verify OTP: challenge locked"}
		}
		return &fault.ValidationError{Field: "code", Reason: "incorrect code"}
	}
	return s.otpStore.Delete(ctx, key)
}

// verifyTarget maps a party's OTP to the status its verification
// reaches. Issuance and verification share it so both respect the
// buyer-before-seller order.
func verifyTarget(party settlement.Party) settlement.Status {
	if party == settlement.PartySeller {
		return settlement.StatusSellerVerified
	}
	return settlement.StatusBuyerVerified
}

func partyTarget(t *settlement.Transaction, party settlement.Party) (otp.Purpose, uuid.UUID, error) {
	switch party {
	case settlement.PartyBuyer:
		return otp.PurposeSettlementBuyer, t.BuyerID, nil
	case settlement.PartySeller:
		return otp.PurposeSettlementSeller, t.SellerID, nil
	default:
		return "", uuid.Nil, &fault.ValidationError{Field: "party", Reason: "party must be BUYER or SELLER"}
	}
}

func (s *Service) getForParty(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, action string) (*settlement.Transaction, error) {
	t, err := s.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	allowed := actor.Is(user.RoleAdmin) ||
		actor.UserID == t.BuyerID ||
		actor.UserID == t.SellerID ||
		actor.UserID == t.AgentID
	if !allowed {
		return nil, s.deny(ctx, actor, t, action)
	}
	return t, nil
}

func (s *Service) getForAgent(ctx context.Context, actor auth.Actor, transactionID uuid.UUID, action string) (*settlement.Transaction, error) {
	t, err := s.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != t.AgentID && !actor.Is(user.RoleAdmin) {
		return nil, s.deny(ctx, actor, t, action)
	}
	return t, nil
}

func (s *Service) deny(ctx context.Context, actor auth.Actor, t *settlement.Transaction, action string) error {
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeTransaction,
		EntityID:   t.TransactionID.String(),
		Action:     audit.ActionDenied,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		Reason:     action,
		RiskLevel:  audit.RiskLevelMedium,
	})
	return &fault.UnauthorizedError{Actor: actor.Username, Action: action}
}

func (s *Service) auditStatus(ctx context.Context, actor auth.Actor, t *settlement.Transaction, old settlement.Status, newValues map[string]interface{}) {
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeTransaction,
		EntityID:   t.TransactionID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  newValues,
	})
}

func (s *Service) notifyParties(ctx context.Context, t *settlement.Transaction, eventType, message string) {
	for _, recipient := range []uuid.UUID{t.BuyerID, t.SellerID, t.AgentID} {
		s.dispatcher.Dispatch(ctx, notify.Event{
			Type:       eventType,
			EntityType: string(audit.EntityTypeTransaction),
			EntityID:   t.TransactionID.String(),
			Recipient:  recipient.String(),
			Message:    message,
		})
	}
}
