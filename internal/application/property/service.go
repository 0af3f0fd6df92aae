package property

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
	"github.com/estate-hub/estate-hub/internal/domain/property"
	"github.com/estate-hub/estate-hub/internal/domain/user"
)

// Service handles the property listing lifecycle.
type Service struct {
	repo     property.Repository
	auditSvc *appaudit.Service
	logger   zerolog.Logger
}

// NewService creates a property service.
func NewService(repo property.Repository, auditSvc *appaudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "property").Logger(),
	}
}

// CreateInput carries new listing fields.
type CreateInput struct {
	Title     string
	Address   string
	City      string
	Latitude  float64
	Longitude float64
	Price     int64
}

// Create creates a DRAFT listing owned by the calling seller.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*property.Property, error) {
	if !actor.Is(user.RoleSeller, user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "create property"}
	}
	if !geo.ValidCoordinates(in.Latitude, in.Longitude) {
		return nil, &fault.ValidationError{Field: "coordinates", Reason: "latitude/longitude out of range"}
	}
	now := time.Now().UTC()
	p := &property.Property{
		PropertyID: uuid.New(),
		SellerID:   actor.UserID,
		Title:      in.Title,
		Address:    in.Address,
		City:       in.City,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Price:      in.Price,
		Status:     property.StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeProperty,
		EntityID:   p.PropertyID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  p,
	})
	s.logger.Info().Str("propertyId", p.PropertyID.String()).Msg("property created")
	return p, nil
}

// Get returns a listing by id.
func (s *Service) Get(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	p, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &fault.NotFoundError{Entity: "property", ID: propertyID.String()}
	}
	return p, nil
}

// List lists properties with optional status and seller filters.
func (s *Service) List(ctx context.Context, status *property.Status, sellerID *uuid.UUID, limit, offset int) ([]*property.Property, error) {
	if status != nil {
		if err := property.ValidateStatus(*status); err != nil {
			return nil, err
		}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, status, sellerID, limit, offset)
}

// UpdateInput carries editable listing fields. Nil fields are left
// unchanged.
type UpdateInput struct {
	Title     *string
	Address   *string
	City      *string
	Latitude  *float64
	Longitude *float64
	Price     *int64
	Version   int
}

// Update edits listing fields. Only the owning seller may edit, and
// only before verification approves the listing.
func (s *Service) Update(ctx context.Context, actor auth.Actor, propertyID uuid.UUID, in UpdateInput) (*property.Property, error) {
	p, err := s.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, actor, p, "update property"); err != nil {
		return nil, err
	}
	switch p.Status {
	case property.StatusDraft, property.StatusPendingAssignment:
	default:
		return nil, &fault.ValidationError{Field: "status", Reason: "listing can only be edited before verification"}
	}

	old := *p
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if in.City != nil {
		p.City = *in.City
	}
	if in.Latitude != nil {
		p.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		p.Longitude = *in.Longitude
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if !geo.ValidCoordinates(p.Latitude, p.Longitude) {
		return nil, &fault.ValidationError{Field: "coordinates", Reason: "latitude/longitude out of range"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p, in.Version); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeProperty,
		EntityID:   p.PropertyID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  &old,
		NewValues:  p,
	})
	return p, nil
}

// SubmitForAssignment moves a DRAFT listing to PENDING_ASSIGNMENT so
// agents can pick it up.
func (s *Service) SubmitForAssignment(ctx context.Context, actor auth.Actor, propertyID uuid.UUID, version int) (*property.Property, error) {
	return s.transition(ctx, actor, propertyID, property.StatusPendingAssignment, version, "submit for assignment", true)
}

// Deactivate takes an ACTIVE listing off market.
func (s *Service) Deactivate(ctx context.Context, actor auth.Actor, propertyID uuid.UUID, version int) (*property.Property, error) {
	return s.transition(ctx, actor, propertyID, property.StatusInactive, version, "deactivate property", true)
}

// Reactivate puts an INACTIVE listing back on market.
func (s *Service) Reactivate(ctx context.Context, actor auth.Actor, propertyID uuid.UUID, version int) (*property.Property, error) {
	return s.transition(ctx, actor, propertyID, property.StatusActive, version, "reactivate property", true)
}

func (s *Service) transition(ctx context.Context, actor auth.Actor, propertyID uuid.UUID, target property.Status, version int, action string, ownerOnly bool) (*property.Property, error) {
	p, err := s.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if ownerOnly {
		if err := s.requireOwner(ctx, actor, p, action); err != nil {
			return nil, err
		}
	}
	oldStatus := p.Status
	now := time.Now().UTC()
	if err := p.Transition(target, now); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p, version); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeProperty,
		EntityID:   p.PropertyID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": oldStatus},
		NewValues:  map[string]interface{}{"status": p.Status},
	})
	s.logger.Info().
		Str("propertyId", p.PropertyID.String()).
		Str("from", string(oldStatus)).
		Str("to", string(p.Status)).
		Msg("property status changed")
	return p, nil
}

// SoftDelete hides a listing. Allowed only in pre-market or off-market
// states so in-flight deals never lose their property row.
func (s *Service) SoftDelete(ctx context.Context, actor auth.Actor, propertyID uuid.UUID, version int) error {
	p, err := s.Get(ctx, propertyID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, actor, p, "delete property"); err != nil {
		return err
	}
	switch p.Status {
	case property.StatusDraft, property.StatusPendingAssignment, property.StatusInactive:
	default:
		return &fault.ValidationError{Field: "status", Reason: "only draft, pending or inactive listings can be deleted"}
	}
	if err := s.repo.SoftDelete(ctx, propertyID, version); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeProperty,
		EntityID:   propertyID.String(),
		Action:     audit.ActionDelete,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": p.Status},
		RiskLevel:  audit.RiskLevelMedium,
	})
	return nil
}

func (s *Service) requireOwner(ctx context.Context, actor auth.Actor, p *property.Property, action string) error {
	if actor.Is(user.RoleAdmin) {
		return nil
	}
	if actor.Role == user.RoleSeller && actor.UserID == p.SellerID {
		return nil
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
