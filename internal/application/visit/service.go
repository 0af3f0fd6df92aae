package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appaudit "github.com/estate-hub/estate-hub/internal/application/audit"
	"github.com/estate-hub/estate-hub/internal/application/auth"
	"github.com/estate-hub/estate-hub/internal/domain/assignment"
	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/geo"
	"github.com/estate-hub/estate-hub/internal/domain/property"
	"github.com/estate-hub/estate-hub/internal/domain/user"
	"github.com/estate-hub/estate-hub/internal/domain/visit"
	"github.com/estate-hub/estate-hub/internal/infrastructure/notify"
)

// Config bounds the visit workflow.
type Config struct {
	CheckInRadiusM float64
	NoShowGrace    time.Duration
}

// Service handles buyer visit scheduling and check-in.
type Service struct {
	repo           visit.Repository
	checkRepo      visit.VerificationRepository
	propertyRepo   property.Repository
	assignmentRepo assignment.Repository
	dispatcher     notify.Dispatcher
	auditSvc       *appaudit.Service
	cfg            Config
	logger         zerolog.Logger
}

// NewService creates a visit service.
func NewService(repo visit.Repository, checkRepo visit.VerificationRepository, propertyRepo property.Repository, assignmentRepo assignment.Repository, dispatcher notify.Dispatcher, auditSvc *appaudit.Service, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		repo:           repo,
		checkRepo:      checkRepo,
		propertyRepo:   propertyRepo,
		assignmentRepo: assignmentRepo,
		dispatcher:     dispatcher,
		auditSvc:       auditSvc,
		cfg:            cfg,
		logger:         logger.With().Str("service", "visit").Logger(),
	}
}

// Request schedules a visit to an ACTIVE property. One open visit per
// (property, buyer) pair; the database rejects a second.
func (s *Service) Request(ctx context.Context, actor auth.Actor, propertyID uuid.UUID, preferredDate time.Time) (*visit.Request, error) {
	if !actor.Is(user.RoleBuyer) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "request visit"}
	}
	p, err := s.getProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p.Status != property.StatusActive {
		return nil, &fault.ValidationError{Field: "propertyId", Reason: "property is not open for visits"}
	}
	now := time.Now().UTC()
	if !preferredDate.After(now) {
		return nil, &fault.ValidationError{Field: "preferredDate", Reason: "preferred date must be in the future"}
	}
	a, err := s.assignmentRepo.GetLatestCompletedByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &fault.ValidationError{Field: "propertyId", Reason: "property has no attached agent"}
	}

	r := &visit.Request{
		VisitID:       uuid.New(),
		PropertyID:    propertyID,
		BuyerID:       actor.UserID,
		AgentID:       a.AgentID,
		PreferredDate: preferredDate.UTC(),
		Status:        visit.StatusRequested,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVisit,
		EntityID:   r.VisitID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  r,
	})
	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:       "visit.requested",
		EntityType: string(audit.EntityTypeVisit),
		EntityID:   r.VisitID.String(),
		Recipient:  r.AgentID.String(),
		Message:    "new visit request",
	})
	return r, nil
}

// Respond records the agent's decision. Approval fixes the confirmed
// date; rejection requires a reason.
func (s *Service) Respond(ctx context.Context, actor auth.Actor, visitID uuid.UUID, approve bool, confirmedDate *time.Time, reason string) (*visit.Request, error) {
	r, err := s.getForAgent(ctx, actor, visitID, "respond to visit")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	old := r.Status
	target := visit.StatusApproved
	action := audit.ActionAccept
	if approve {
		date := r.PreferredDate
		if confirmedDate != nil {
			date = confirmedDate.UTC()
		}
		if !date.After(now) {
			return nil, &fault.ValidationError{Field: "confirmedDate", Reason: "confirmed date must be in the future"}
		}
		r.ConfirmedDate = &date
	} else {
		if reason == "" {
			return nil, &fault.ValidationError{Field: "reason", Reason: "rejection requires a reason"}
		}
		target = visit.StatusRejected
		action = audit.ActionReject
		r.Reason = &reason
	}
	if err := r.Transition(target); err != nil {
		return nil, err
	}
	r.UpdatedAt = now
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVisit,
		EntityID:   r.VisitID.String(),
		Action:     action,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": r.Status, "confirmedDate": r.ConfirmedDate, "reason": r.Reason},
	})
	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:       "visit.responded",
		EntityType: string(audit.EntityTypeVisit),
		EntityID:   r.VisitID.String(),
		Recipient:  r.BuyerID.String(),
		Message:    "visit request " + string(r.Status),
	})
	return r, nil
}

// Cancel withdraws an open visit. Buyer, agent or admin may cancel.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, visitID uuid.UUID, reason string) (*visit.Request, error) {
	r, err := s.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	allowed := actor.Is(user.RoleAdmin) || actor.UserID == r.BuyerID || actor.UserID == r.AgentID
	if !allowed {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "cancel visit"}
	}
	old := r.Status
	if err := r.Transition(visit.StatusCancelled); err != nil {
		return nil, err
	}
	if reason != "" {
		r.Reason = &reason
	}
	r.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVisit,
		EntityID:   r.VisitID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": r.Status, "reason": r.Reason},
	})
	return r, nil
}

// CheckIn records the agent's GPS position at the property and moves
// the visit to CHECKED_IN. The position must fall within the check-in
// radius.
func (s *Service) CheckIn(ctx context.Context, actor auth.Actor, visitID uuid.UUID, lat, lng float64) (*visit.Request, error) {
	r, err := s.getForAgent(ctx, actor, visitID, "check in visit")
	if err != nil {
		return nil, err
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil, &fault.ValidationError{Field: "coordinates", Reason: "latitude/longitude out of range"}
	}
	p, err := s.getProperty(ctx, r.PropertyID)
	if err != nil {
		return nil, err
	}
	distance := geo.DistanceMeters(lat, lng, p.Latitude, p.Longitude)
	if distance > s.cfg.CheckInRadiusM {
		return nil, fault.Validationf("coordinates", "check-in is %.0fm from the property, limit is %.0fm", distance, s.cfg.CheckInRadiusM)
	}

	old := r.Status
	if err := r.Transition(visit.StatusCheckedIn); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r.UpdatedAt = now
	v := &visit.Verification{
		VisitID:        r.VisitID,
		GPSLat:         lat,
		GPSLng:         lng,
		DistanceMeters: distance,
		CheckedInAt:    now,
	}
	if err := s.checkRepo.Create(ctx, v); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVisit,
		EntityID:   r.VisitID.String(),
		Action:     audit.ActionCheckIn,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": r.Status, "distanceMeters": distance},
	})
	return r, nil
}

// Complete closes a checked-in visit, optionally recording the buyer's
// interest rating.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, visitID uuid.UUID, rating *int) (*visit.Request, error) {
	r, err := s.getForAgent(ctx, actor, visitID, "complete visit")
	if err != nil {
		return nil, err
	}
	if rating != nil {
		if err := visit.ValidateRating(*rating); err != nil {
			return nil, err
		}
	}
	old := r.Status
	if err := r.Transition(visit.StatusCompleted); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r.UpdatedAt = now

	v, err := s.checkRepo.GetByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v != nil {
		v.CompletedAt = &now
		v.BuyerRating = rating
		if err := s.checkRepo.Update(ctx, v); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVisit,
		EntityID:   r.VisitID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": r.Status, "buyerRating": rating},
	})
	return r, nil
}

// MarkNoShows sweeps APPROVED visits whose confirmed date passed the
// grace window to NO_SHOW. One audit entry per flipped visit.
func (s *Service) MarkNoShows(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.NoShowGrace)
	ids, err := s.repo.MarkNoShowDue(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.auditSvc.Log(ctx, &audit.Entry{
			EntityType: audit.EntityTypeVisit,
			EntityID:   id.String(),
			Action:     audit.ActionStatusChange,
			Actor:      "system",
			NewValues:  map[string]interface{}{"status": visit.StatusNoShow},
		})
	}
	if len(ids) > 0 {
		s.logger.Info().Int("count", len(ids)).Msg("visits marked no-show")
	}
	return len(ids), nil
}

// Get returns a visit by id.
func (s *Service) Get(ctx context.Context, visitID uuid.UUID) (*visit.Request, error) {
	r, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &fault.NotFoundError{Entity: "visit", ID: visitID.String()}
	}
	return r, nil
}

// ListByProperty lists visits for a property.
func (s *Service) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*visit.Request, error) {
	return s.repo.ListByProperty(ctx, propertyID)
}

// ListByBuyer lists the buyer's visits.
func (s *Service) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*visit.Request, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByBuyer(ctx, buyerID, limit, offset)
}

// ListByAgent lists the agent's visits.
func (s *Service) ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*visit.Request, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByAgent(ctx, agentID, limit, offset)
}

func (s *Service) getForAgent(ctx context.Context, actor auth.Actor, visitID uuid.UUID, action string) (*visit.Request, error) {
	r, err := s.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != r.AgentID && !actor.Is(user.RoleAdmin) {
		s.auditSvc.Log(ctx, &audit.Entry{
			EntityType: audit.EntityTypeVisit,
			EntityID:   r.VisitID.String(),
			Action:     audit.ActionDenied,
			Actor:      actor.Username,
			ActorRole:  string(actor.Role),
			Reason:     action,
			RiskLevel:  audit.RiskLevelMedium,
		})
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: action}
	}
	return r, nil
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
