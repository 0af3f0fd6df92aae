package rule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appaudit "github.com/estate-hub/estate-hub/internal/application/audit"
	"github.com/estate-hub/estate-hub/internal/application/auth"
	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/rule"
	"github.com/estate-hub/estate-hub/internal/domain/user"
)

// Service manages the admin screening rules applied to offer
// submission. Expressions are parsed at write time so a broken rule
// never reaches the screening path.
type Service struct {
	repo     rule.Repository
	auditSvc *appaudit.Service
	logger   zerolog.Logger
}

// NewService creates a rule service.
func NewService(repo rule.Repository, auditSvc *appaudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "rule").Logger(),
	}
}

// Create adds a screening rule. Admin only.
func (s *Service) Create(ctx context.Context, actor auth.Actor, name, expression string, enabled bool) (*rule.Rule, error) {
	if !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "create rule"}
	}
	now := time.Now().UTC()
	r := &rule.Rule{
		RuleID:     uuid.New(),
		Name:       name,
		Expression: expression,
		Enabled:    enabled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeRule,
		EntityID:   r.RuleID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  r,
	})
	s.logger.Info().Str("ruleId", r.RuleID.String()).Str("name", name).Msg("screening rule created")
	return r, nil
}

// UpdateInput carries editable rule fields. Nil fields are left
// unchanged.
type UpdateInput struct {
	Name       *string
	Expression *string
	Enabled    *bool
}

// Update edits a screening rule. Admin only.
func (s *Service) Update(ctx context.Context, actor auth.Actor, ruleID uuid.UUID, in UpdateInput) (*rule.Rule, error) {
	if !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "update rule"}
	}
	r, err := s.Get(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	old := *r
	if in.Name != nil {
		r.Name = *in.Name
	}
	if in.Expression != nil {
		r.Expression = *in.Expression
	}
	if in.Enabled != nil {
		r.Enabled = *in.Enabled
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeRule,
		EntityID:   r.RuleID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  &old,
		NewValues:  r,
	})
	return r, nil
}

// Delete removes a screening rule. Admin only.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, ruleID uuid.UUID) error {
	if !actor.Is(user.RoleAdmin) {
		return &fault.UnauthorizedError{Actor: actor.Username, Action: "delete rule"}
	}
	r, err := s.Get(ctx, ruleID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeRule,
		EntityID:   ruleID.String(),
		Action:     audit.ActionDelete,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  r,
		RiskLevel:  audit.RiskLevelMedium,
	})
	return nil
}

// Get returns a rule by id.
func (s *Service) Get(ctx context.Context, ruleID uuid.UUID) (*rule.Rule, error) {
	r, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &fault.NotFoundError{Entity: "rule", ID: ruleID.String()}
	}
	return r, nil
}

// List lists every rule.
func (s *Service) List(ctx context.Context) ([]*rule.Rule, error) {
	return s.repo.List(ctx)
}
