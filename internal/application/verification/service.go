package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appassignment "github.com/estate-hub/estate-hub/internal/application/assignment"
	appaudit "github.com/estate-hub/estate-hub/internal/application/audit"
	"github.com/estate-hub/estate-hub/internal/application/auth"
	"github.com/estate-hub/estate-hub/internal/domain/assignment"
	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/geo"
	"github.com/estate-hub/estate-hub/internal/domain/otp"
	"github.com/estate-hub/estate-hub/internal/domain/property"
	"github.com/estate-hub/estate-hub/internal/domain/user"
	"github.com/estate-hub/estate-hub/internal/domain/verification"
	"github.com/estate-hub/estate-hub/internal/infrastructure/notify"
)

// Config bounds the verification workflow.
type Config struct {
	OTPTTL         time.Duration
	OTPMaxAttempts int
	OTPLockFor     time.Duration
	CheckInRadiusM float64
}

// Service runs the on-site verification workflow. Approval requires a
// GPS capture within the check-in radius and a verified seller OTP.
type Service struct {
	repo          verification.Repository
	propertyRepo  property.Repository
	assignmentSvc *appassignment.Service
	otpStore      otp.Store
	dispatcher    notify.Dispatcher
	auditSvc      *appaudit.Service
	cfg           Config
	logger        zerolog.Logger
}

// NewService creates a verification service.
func NewService(repo verification.Repository, propertyRepo property.Repository, assignmentSvc *appassignment.Service, otpStore otp.Store, dispatcher notify.Dispatcher, auditSvc *appaudit.Service, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		propertyRepo:  propertyRepo,
		assignmentSvc: assignmentSvc,
		otpStore:      otpStore,
		dispatcher:    dispatcher,
		auditSvc:      auditSvc,
		cfg:           cfg,
		logger:        logger.With().Str("service", "verification").Logger(),
	}
}

// Start opens a verification for an ASSIGNED property. Only the agent
// holding the accepted assignment may start.
func (s *Service) Start(ctx context.Context, actor auth.Actor, propertyID uuid.UUID) (*verification.Verification, error) {
	p, err := s.getProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	a, err := s.assignmentSvc.GetActiveByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if a == nil || a.Status != assignment.StatusAccepted {
		return nil, &fault.ValidationError{Field: "assignment", Reason: "property has no accepted assignment"}
	}
	if actor.UserID != a.AgentID && !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "start verification"}
	}

	if err := s.transitionProperty(ctx, actor, p, property.StatusVerificationInProgress); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &verification.Verification{
		VerificationID: uuid.New(),
		PropertyID:     propertyID,
		AgentID:        a.AgentID,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVerification,
		EntityID:   v.VerificationID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  v,
	})
	s.logger.Info().
		Str("verificationId", v.VerificationID.String()).
		Str("propertyId", propertyID.String()).
		Msg("verification started")
	return v, nil
}

// CaptureGPS records the agent's on-site position. The capture must
// fall within the configured radius of the listing coordinates.
func (s *Service) CaptureGPS(ctx context.Context, actor auth.Actor, verificationID uuid.UUID, lat, lng float64) (*verification.Verification, error) {
	v, err := s.getOwned(ctx, actor, verificationID, "capture GPS")
	if err != nil {
		return nil, err
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil, &fault.ValidationError{Field: "coordinates", Reason: "latitude/longitude out of range"}
	}
	p, err := s.getProperty(ctx, v.PropertyID)
	if err != nil {
		return nil, err
	}
	distance := geo.DistanceMeters(lat, lng, p.Latitude, p.Longitude)
	if distance > s.cfg.CheckInRadiusM {
		return nil, fault.Validationf("coordinates", "capture is %.0fm from the property, limit is %.0fm", distance, s.cfg.CheckInRadiusM)
	}

	now := time.Now().UTC()
	if err := v.CaptureGPS(lat, lng, distance, now); err != nil {
		return nil, err
	}
	v.UpdatedAt = now
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVerification,
		EntityID:   v.VerificationID.String(),
		Action:     audit.ActionCheckIn,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  map[string]interface{}{"distanceMeters": distance},
	})
	return v, nil
}

// SendSellerOTP issues a fresh seller challenge, replacing any
// previous one.
func (s *Service) SendSellerOTP(ctx context.Context, actor auth.Actor, verificationID uuid.UUID) error {
	v, err := s.getOwned(ctx, actor, verificationID, "send seller OTP")
	if err != nil {
		return err
	}
	p, err := s.getProperty(ctx, v.PropertyID)
	if err != nil {
		return err
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return err
	}
	key := otp.Key(otp.PurposeSellerVerification, v.VerificationID.String())
	if err := s.otpStore.Put(ctx, key, otp.HashCode(code), s.cfg.OTPTTL); err != nil {
		return err
	}
	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:       "otp.seller_verification",
		EntityType: string(audit.EntityTypeVerification),
		EntityID:   v.VerificationID.String(),
		Recipient:  p.SellerID.String(),
		Message:    "your property verification code is " + code,
	})
	s.logger.Info().Str("verificationId", v.VerificationID.String()).Msg("seller OTP sent")
	return nil
}

// VerifySellerOTP checks the seller's code. Repeated failures lock the
// challenge.
func (s *Service) VerifySellerOTP(ctx context.Context, actor auth.Actor, verificationID uuid.UUID, code string) (*verification.Verification, error) {
	v, err := s.getOwned(ctx, actor, verificationID, "verify seller OTP")
	if err != nil {
		return nil, err
	}
	key := otp.Key(otp.PurposeSellerVerification, v.VerificationID.String())
	if err := s.checkCode(ctx, key, code, v.VerificationID.String()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v.SellerOTPVerifiedAt = &now
	v.UpdatedAt = now
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVerification,
		EntityID:   v.VerificationID.String(),
		Action:     audit.ActionVerify,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  map[string]interface{}{"sellerOtpVerifiedAt": now},
	})
	return v, nil
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

// CompleteInput carries the verification decision.
type CompleteInput struct {
	Result          verification.Result
	Notes           string
	RejectionReason string
	// SendBackToDraft routes a rejected property to DRAFT for rework
	// instead of PENDING_ASSIGNMENT.
	SendBackToDraft bool
}

// Complete records the result. Approval activates the listing;
// rejection sends it back for reassignment or rework. Either way the
// assignment is closed.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, verificationID uuid.UUID, in CompleteInput) (*verification.Verification, error) {
	v, err := s.getOwned(ctx, actor, verificationID, "complete verification")
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := v.Complete(in.Result, in.Notes, in.RejectionReason, now); err != nil {
		return nil, err
	}

	p, err := s.getProperty(ctx, v.PropertyID)
	if err != nil {
		return nil, err
	}
	target := property.StatusActive
	if in.Result == verification.ResultRejected {
		target = property.StatusPendingAssignment
		if in.SendBackToDraft {
			target = property.StatusDraft
		}
	}
	if err := s.transitionProperty(ctx, actor, p, target); err != nil {
		return nil, err
	}

	v.UpdatedAt = now
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	if a, err := s.assignmentSvc.GetActiveByProperty(ctx, v.PropertyID); err == nil && a != nil && a.Status == assignment.StatusAccepted {
		if err := s.assignmentSvc.Complete(ctx, actor, a.AssignmentID); err != nil {
			s.logger.Error().Err(err).Str("assignmentId", a.AssignmentID.String()).Msg("failed to complete assignment")
		}
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVerification,
		EntityID:   v.VerificationID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		NewValues:  map[string]interface{}{"result": in.Result, "rejectionReason": v.RejectionReason},
		RiskLevel:  audit.RiskLevelMedium,
	})
	s.logger.Info().
		Str("verificationId", v.VerificationID.String()).
		Str("result", string(in.Result)).
		Msg("verification completed")
	return v, nil
}

// Get returns a verification by id.
func (s *Service) Get(ctx context.Context, verificationID uuid.UUID) (*verification.Verification, error) {
	v, err := s.repo.GetByID(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, &fault.NotFoundError{Entity: "verification", ID: verificationID.String()}
	}
	return v, nil
}

// ListByProperty lists the property's verification history.
func (s *Service) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*verification.Verification, error) {
	return s.repo.ListByProperty(ctx, propertyID)
}

func (s *Service) getOwned(ctx context.Context, actor auth.Actor, verificationID uuid.UUID, action string) (*verification.Verification, error) {
	v, err := s.Get(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != v.AgentID && !actor.Is(user.RoleAdmin) {
		s.auditSvc.Log(ctx, &audit.Entry{
			EntityType: audit.EntityTypeVerification,
			EntityID:   v.VerificationID.String(),
			Action:     audit.ActionDenied,
			Actor:      actor.Username,
			ActorRole:  string(actor.Role),
			Reason:     action,
			RiskLevel:  audit.RiskLevelMedium,
		})
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: action}
	}
	if v.Completed() {
		return nil, &fault.ConflictError{Entity: "verification", Constraint: "already completed"}
	}
	return v, nil
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
