package offer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appaudit "github.com/estate-hub/estate-hub/internal/application/audit"
	"github.com/estate-hub/estate-hub/internal/application/auth"
	"github.com/estate-hub/estate-hub/internal/domain/assignment"
	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/commission"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/offer"
	"github.com/estate-hub/estate-hub/internal/domain/property"
	"github.com/estate-hub/estate-hub/internal/domain/rule"
	"github.com/estate-hub/estate-hub/internal/domain/settlement"
	"github.com/estate-hub/estate-hub/internal/domain/user"
	"github.com/estate-hub/estate-hub/internal/infrastructure/notify"
)

// Service handles offer negotiation. Acceptance is the pivot of the
// whole lifecycle: it reserves the property, opens the settlement
// transaction and closes every competing offer.
type Service struct {
	repo           offer.Repository
	propertyRepo   property.Repository
	ruleRepo       rule.Repository
	assignmentRepo assignment.Repository
	txnRepo        settlement.Repository
	commissionRepo settlement.CommissionRepository
	schedule       commission.Schedule
	expiry         time.Duration
	dispatcher     notify.Dispatcher
	auditSvc       *appaudit.Service
	logger         zerolog.Logger
}

// NewService creates an offer service.
func NewService(repo offer.Repository, propertyRepo property.Repository, ruleRepo rule.Repository, assignmentRepo assignment.Repository, txnRepo settlement.Repository, commissionRepo settlement.CommissionRepository, schedule commission.Schedule, expiry time.Duration, dispatcher notify.Dispatcher, auditSvc *appaudit.Service, logger zerolog.Logger) *Service {
	if expiry <= 0 {
		expiry = offer.DefaultExpiry
	}
	return &Service{
		repo:           repo,
		propertyRepo:   propertyRepo,
		ruleRepo:       ruleRepo,
		assignmentRepo: assignmentRepo,
		txnRepo:        txnRepo,
		commissionRepo: commissionRepo,
		schedule:       schedule,
		expiry:         expiry,
		dispatcher:     dispatcher,
		auditSvc:       auditSvc,
		logger:         logger.With().Str("service", "offer").Logger(),
	}
}

// SubmitInput carries a new offer.
type SubmitInput struct {
	PropertyID    uuid.UUID
	OfferedPrice  int64
	Message       *string
	ParentOfferID *uuid.UUID
}

// Submit places a buyer offer on an ACTIVE property after screening it
// against the enabled admin rules. A reply to a counter chains through
// ParentOfferID.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, in SubmitInput) (*offer.Offer, error) {
	if !actor.Is(user.RoleBuyer) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "submit offer"}
	}
	p, err := s.getProperty(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if p.Status != property.StatusActive {
		return nil, &fault.ValidationError{Field: "propertyId", Reason: "property is not accepting offers"}
	}

	rules, err := s.ruleRepo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if err := rule.Screen(rules, rule.OfferParams(in.OfferedPrice, p.Price)); err != nil {
		return nil, err
	}

	if in.ParentOfferID != nil {
		parent, err := s.Get(ctx, *in.ParentOfferID)
		if err != nil {
			return nil, err
		}
		if parent.PropertyID != in.PropertyID {
			return nil, &fault.ValidationError{Field: "parentOfferId", Reason: "parent offer belongs to another property"}
		}
		if parent.BuyerID != actor.UserID {
			return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "reply to another buyer's offer"}
		}
		if parent.Status != offer.StatusCountered {
			return nil, &fault.ValidationError{Field: "parentOfferId", Reason: "parent offer was not countered"}
		}
	}

	now := time.Now().UTC()
	o := &offer.Offer{
		OfferID:       uuid.New(),
		PropertyID:    in.PropertyID,
		BuyerID:       actor.UserID,
		ParentOfferID: in.ParentOfferID,
		OfferedPrice:  in.OfferedPrice,
		Message:       in.Message,
		Status:        offer.StatusPending,
		ExpiresAt:     now.Add(s.expiry),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeOffer,
		EntityID:   o.OfferID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  o,
	})
	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:       "offer.submitted",
		EntityType: string(audit.EntityTypeOffer),
		EntityID:   o.OfferID.String(),
		Recipient:  p.SellerID.String(),
		Message:    "new offer received",
	})
	s.logger.Info().
		Str("offerId", o.OfferID.String()).
		Str("propertyId", in.PropertyID.String()).
		Int64("offeredPrice", in.OfferedPrice).
		Msg("offer submitted")
	return o, nil
}

// Accept takes a pending offer. The property moves to RESERVED, a
// settlement transaction opens at the offered price and every
// competing pending offer on the property is rejected.
func (s *Service) Accept(ctx context.Context, actor auth.Actor, offerID uuid.UUID) (*settlement.Transaction, error) {
	o, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	p, err := s.getProperty(ctx, o.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSellerSide(ctx, actor, p, "accept offer"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if o.ExpiredBy(now) {
		// flip it eagerly rather than waiting on the sweep
		if err := s.repo.UpdateStatusFrom(ctx, o.OfferID, offer.StatusPending, offer.StatusExpired, nil, now); err == nil {
			s.auditExpired(ctx, o.OfferID)
		}
		return nil, &fault.ExpiredError{Entity: "offer", ID: o.OfferID.String()}
	}

	// the offer write is the point of no return, so prove the property
	// can actually be reserved before flipping the offer
	if !p.CanTransitionTo(property.StatusReserved) {
		return nil, &fault.InvalidTransitionError{
			Entity: "property",
			ID:     p.PropertyID.String(),
			From:   string(p.Status),
			To:     string(property.StatusReserved),
		}
	}

	a, err := s.assignmentRepo.GetLatestCompletedByProperty(ctx, o.PropertyID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &fault.ValidationError{Field: "propertyId", Reason: "property has no attached agent"}
	}

	breakdown, err := s.schedule.Calculate(o.OfferedPrice)
	if err != nil {
		return nil, err
	}

	// conditional write; a racing sweep or withdrawal wins cleanly
	if err := s.repo.UpdateStatusFrom(ctx, o.OfferID, offer.StatusPending, offer.StatusAccepted, nil, now); err != nil {
		return nil, err
	}

	oldStatus := p.Status
	if err := p.Transition(property.StatusReserved, now); err != nil {
		return nil, err
	}
	if err := s.propertyRepo.Update(ctx, p, p.Version); err != nil {
		return nil, err
	}

	txn := &settlement.Transaction{
		TransactionID:   uuid.New(),
		OfferID:         o.OfferID,
		PropertyID:      o.PropertyID,
		BuyerID:         o.BuyerID,
		SellerID:        p.SellerID,
		AgentID:         a.AgentID,
		Status:          settlement.StatusInitiated,
		TotalPrice:      breakdown.TotalPrice,
		TokenAmount:     breakdown.TokenAmount,
		TotalCommission: breakdown.TotalCommission,
		AgentShare:      breakdown.AgentShare,
		PlatformShare:   breakdown.PlatformShare,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}
	record := &settlement.CommissionRecord{
		RecordID:        uuid.New(),
		TransactionID:   txn.TransactionID,
		TotalCommission: breakdown.TotalCommission,
		AgentShare:      breakdown.AgentShare,
		PlatformShare:   breakdown.PlatformShare,
		Status:          settlement.PayoutPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.commissionRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeOffer,
		EntityID:   o.OfferID.String(),
		Action:     audit.ActionAccept,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": offer.StatusPending},
		NewValues:  map[string]interface{}{"status": offer.StatusAccepted},
		RiskLevel:  audit.RiskLevelHigh,
	})
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeProperty,
		EntityID:   p.PropertyID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": oldStatus},
		NewValues:  map[string]interface{}{"status": p.Status},
	})
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeTransaction,
		EntityID:   txn.TransactionID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  txn,
	})

	// close out the competition
	pending, err := s.repo.ListPendingByProperty(ctx, o.PropertyID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list competing offers")
	} else {
		for _, sibling := range pending {
			if sibling.OfferID == o.OfferID {
				continue
			}
			if err := s.repo.UpdateStatusFrom(ctx, sibling.OfferID, offer.StatusPending, offer.StatusRejected, nil, now); err != nil {
				continue
			}
			s.auditSvc.Log(ctx, &audit.Entry{
				EntityType: audit.EntityTypeOffer,
				EntityID:   sibling.OfferID.String(),
				Action:     audit.ActionReject,
				Actor:      "system",
				Reason:     "another offer was accepted",
				NewValues:  map[string]interface{}{"status": offer.StatusRejected},
			})
			s.dispatcher.Dispatch(ctx, notify.Event{
				Type:       "offer.rejected",
				EntityType: string(audit.EntityTypeOffer),
				EntityID:   sibling.OfferID.String(),
				Recipient:  sibling.BuyerID.String(),
				Message:    "your offer was not selected",
			})
		}
	}

	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:       "offer.accepted",
		EntityType: string(audit.EntityTypeOffer),
		EntityID:   o.OfferID.String(),
		Recipient:  o.BuyerID.String(),
		Message:    "your offer was accepted",
	})
	s.logger.Info().
		Str("offerId", o.OfferID.String()).
		Str("transactionId", txn.TransactionID.String()).
		Msg("offer accepted")
	return txn, nil
}

// Reject declines a pending offer.
func (s *Service) Reject(ctx context.Context, actor auth.Actor, offerID uuid.UUID, reason string) (*offer.Offer, error) {
	return s.decide(ctx, actor, offerID, offer.StatusRejected, audit.ActionReject, nil, reason)
}

// Counter replies to a pending offer with a counter price. The buyer
// may reply by submitting a new offer that references this one.
func (s *Service) Counter(ctx context.Context, actor auth.Actor, offerID uuid.UUID, counterPrice int64) (*offer.Offer, error) {
	if counterPrice <= 0 {
		return nil, &fault.ValidationError{Field: "counterPrice", Reason: "counter price must be positive"}
	}
	return s.decide(ctx, actor, offerID, offer.StatusCountered, audit.ActionCounter, &counterPrice, "")
}

func (s *Service) decide(ctx context.Context, actor auth.Actor, offerID uuid.UUID, target offer.Status, action audit.Action, counterPrice *int64, reason string) (*offer.Offer, error) {
	o, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	p, err := s.getProperty(ctx, o.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSellerSide(ctx, actor, p, string(action)); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if o.ExpiredBy(now) {
		if err := s.repo.UpdateStatusFrom(ctx, o.OfferID, offer.StatusPending, offer.StatusExpired, nil, now); err == nil {
			s.auditExpired(ctx, o.OfferID)
		}
		return nil, &fault.ExpiredError{Entity: "offer", ID: o.OfferID.String()}
	}
	if err := s.repo.UpdateStatusFrom(ctx, o.OfferID, offer.StatusPending, target, counterPrice, now); err != nil {
		return nil, err
	}
	o.Status = target
	o.CounterPrice = counterPrice
	o.DecidedAt = &now

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeOffer,
		EntityID:   o.OfferID.String(),
		Action:     action,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": offer.StatusPending},
		NewValues:  map[string]interface{}{"status": target, "counterPrice": counterPrice, "reason": reason},
	})
	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:       "offer." + string(action),
		EntityType: string(audit.EntityTypeOffer),
		EntityID:   o.OfferID.String(),
		Recipient:  o.BuyerID.String(),
		Message:    "offer " + string(target),
	})
	return o, nil
}

// Withdraw lets the buyer pull a pending offer.
func (s *Service) Withdraw(ctx context.Context, actor auth.Actor, offerID uuid.UUID) (*offer.Offer, error) {
	o, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != o.BuyerID {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "withdraw offer"}
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateStatusFrom(ctx, o.OfferID, offer.StatusPending, offer.StatusWithdrawn, nil, now); err != nil {
		return nil, err
	}
	o.Status = offer.StatusWithdrawn
	o.DecidedAt = &now
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeOffer,
		EntityID:   o.OfferID.String(),
		Action:     audit.ActionWithdraw,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": offer.StatusPending},
		NewValues:  map[string]interface{}{"status": offer.StatusWithdrawn},
	})
	return o, nil
}

// SweepExpired flips every pending offer past its deadline to EXPIRED.
// Runs on a ticker; safe to run concurrently with user actions because
// every decision is a conditional write.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.repo.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.auditExpired(ctx, id)
	}
	if len(ids) > 0 {
		s.logger.Info().Int("count", len(ids)).Msg("offers expired")
	}
	return len(ids), nil
}

func (s *Service) auditExpired(ctx context.Context, offerID uuid.UUID) {
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeOffer,
		EntityID:   offerID.String(),
		Action:     audit.ActionExpire,
		Actor:      "system",
		NewValues:  map[string]interface{}{"status": offer.StatusExpired},
	})
}

// Get returns an offer by id.
func (s *Service) Get(ctx context.Context, offerID uuid.UUID) (*offer.Offer, error) {
	o, err := s.repo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &fault.NotFoundError{Entity: "offer", ID: offerID.String()}
	}
	return o, nil
}

// GetThread returns the counter chain ending at offerID, oldest first.
func (s *Service) GetThread(ctx context.Context, offerID uuid.UUID) ([]*offer.Offer, error) {
	o, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.ListByProperty(ctx, o.PropertyID)
	if err != nil {
		return nil, err
	}
	return offer.Thread(all, offerID), nil
}

// ListByProperty lists a property's offers.
func (s *Service) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*offer.Offer, error) {
	return s.repo.ListByProperty(ctx, propertyID)
}

// ListByBuyer lists the buyer's offers.
func (s *Service) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*offer.Offer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByBuyer(ctx, buyerID, limit, offset)
}

func (s *Service) requireSellerSide(ctx context.Context, actor auth.Actor, p *property.Property, action string) error {
	if actor.Is(user.RoleAdmin) || actor.UserID == p.SellerID {
		return nil
	}
	if actor.Role == user.RoleAgent {
		a, err := s.assignmentRepo.GetLatestCompletedByProperty(ctx, p.PropertyID)
		if err != nil {
			return err
		}
		if a != nil && a.AgentID == actor.UserID {
			return nil
		}
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeProperty,
		EntityID:   p.PropertyID.String(),
		Action:     audit.ActionDenied,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		Reason:     action,
		RiskLevel:  audit.RiskLevelMedium,
	})
	return &fault.UnauthorizedError{Actor: actor.Username, Action: action}
}

func (s *Service) getProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	p, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &fault.NotFoundError{Entity: "property", ID: propertyID.String()}
	}
	return p, nil
}
