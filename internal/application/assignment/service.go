package assignment

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
	"github.com/estate-hub/estate-hub/internal/domain/property"
	"github.com/estate-hub/estate-hub/internal/domain/user"
)

// Service handles agent assignments. A property holds at most one
// active assignment; the database enforces this with a partial unique
// index and Create surfaces the violation as a typed error.
type Service struct {
	repo         assignment.Repository
	propertyRepo property.Repository
	userRepo     user.Repository
	auditSvc     *appaudit.Service
	logger       zerolog.Logger
}

// NewService creates an assignment service.
func NewService(repo assignment.Repository, propertyRepo property.Repository, userRepo user.Repository, auditSvc *appaudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
		auditSvc:     auditSvc,
		logger:       logger.With().Str("service", "assignment").Logger(),
	}
}

// Request asks an agent to verify a property. Only the owning seller
// (or an admin) may request, and only while the property is
// PENDING_ASSIGNMENT.
func (s *Service) Request(ctx context.Context, actor auth.Actor, propertyID, agentID uuid.UUID) (*assignment.Assignment, error) {
	p, err := s.getProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !actor.Is(user.RoleAdmin) && actor.UserID != p.SellerID {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "request assignment"}
	}
	if p.Status != property.StatusPendingAssignment {
		return nil, &fault.ValidationError{Field: "status", Reason: "property is not awaiting assignment"}
	}

	agent, err := s.userRepo.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil || agent.Role != user.RoleAgent || !agent.IsActive() {
		return nil, &fault.ValidationError{Field: "agentId", Reason: "agent not found or not active"}
	}

	now := time.Now().UTC()
	a := &assignment.Assignment{
		AssignmentID: uuid.New(),
		PropertyID:   propertyID,
		AgentID:      agentID,
		Status:       assignment.StatusRequested,
		RequestedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeAssignment,
		EntityID:   a.AssignmentID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  a,
	})
	s.logger.Info().
		Str("assignmentId", a.AssignmentID.String()).
		Str("propertyId", propertyID.String()).
		Str("agentId", agentID.String()).
		Msg("assignment requested")
	return a, nil
}

// Respond records the agent's accept or decline. Acceptance moves the
// property to ASSIGNED; a decline releases it for another request.
func (s *Service) Respond(ctx context.Context, actor auth.Actor, assignmentID uuid.UUID, accept bool, reason string) (*assignment.Assignment, error) {
	a, err := s.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != a.AgentID && !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "respond to assignment"}
	}

	target := assignment.StatusAccepted
	action := audit.ActionAccept
	if !accept {
		target = assignment.StatusDeclined
		action = audit.ActionReject
		if reason == "" {
			return nil, &fault.ValidationError{Field: "reason", Reason: "decline requires a reason"}
		}
	}

	old := a.Status
	now := time.Now().UTC()
	if err := a.Transition(target, now); err != nil {
		return nil, err
	}
	if reason != "" {
		a.Reason = &reason
	}
	a.UpdatedAt = now

	if accept {
		p, err := s.getProperty(ctx, a.PropertyID)
		if err != nil {
			return nil, err
		}
		if err := s.transitionProperty(ctx, actor, p, property.StatusAssigned); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeAssignment,
		EntityID:   a.AssignmentID.String(),
		Action:     action,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": a.Status, "reason": a.Reason},
	})
	return a, nil
}

// Cancel withdraws an active assignment. An ASSIGNED property returns
// to PENDING_ASSIGNMENT so another agent can be requested.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, assignmentID uuid.UUID, reason string) (*assignment.Assignment, error) {
	a, err := s.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	p, err := s.getProperty(ctx, a.PropertyID)
	if err != nil {
		return nil, err
	}
	allowed := actor.Is(user.RoleAdmin) || actor.UserID == p.SellerID || actor.UserID == a.AgentID
	if !allowed {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "cancel assignment"}
	}

	old := a.Status
	now := time.Now().UTC()
	if err := a.Transition(assignment.StatusCancelled, now); err != nil {
		return nil, err
	}
	if reason != "" {
		a.Reason = &reason
	}
	a.UpdatedAt = now

	if p.Status == property.StatusAssigned {
		if err := s.transitionProperty(ctx, actor, p, property.StatusPendingAssignment); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeAssignment,
		EntityID:   a.AssignmentID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": a.Status, "reason": a.Reason},
	})
	return a, nil
}

// Complete closes an accepted assignment after its verification
// finished. Called by the verification workflow, not exposed over the
// API.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, assignmentID uuid.UUID) error {
	a, err := s.Get(ctx, assignmentID)
	if err != nil {
		return err
	}
	old := a.Status
	now := time.Now().UTC()
	if err := a.Transition(assignment.StatusCompleted, now); err != nil {
		return err
	}
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeAssignment,
		EntityID:   a.AssignmentID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": a.Status},
	})
	return nil
}

// Get returns an assignment by id.
func (s *Service) Get(ctx context.Context, assignmentID uuid.UUID) (*assignment.Assignment, error) {
	a, err := s.repo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &fault.NotFoundError{Entity: "assignment", ID: assignmentID.String()}
	}
	return a, nil
}

// GetActiveByProperty returns the property's active assignment, if any.
func (s *Service) GetActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*assignment.Assignment, error) {
	return s.repo.GetActiveByProperty(ctx, propertyID)
}

// ListByAgent lists the agent's assignments.
func (s *Service) ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*assignment.Assignment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByAgent(ctx, agentID, limit, offset)
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

func (s *Service) transitionProperty(ctx context.Context, actor auth.Actor, p *property.Property, target property.Status) error {
	old := p.Status
	if err := p.Transition(target, time.Now().UTC()); err != nil {
		return err
	}
	if err := s.propertyRepo.Update(ctx, p, p.Version); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeProperty,
		EntityID:   p.PropertyID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": p.Status},
	})
	return nil
}
