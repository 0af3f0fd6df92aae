package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appaudit "github.com/estate-hub/estate-hub/internal/application/audit"
	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/user"
)

// Actor is the authenticated caller every mutating operation is
// attributed to.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     user.Role
}

// Is reports whether the actor holds one of the given roles.
func (a Actor) Is(roles ...user.Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Service handles authentication and user management.
type Service struct {
	userRepo user.Repository
	auditSvc *appaudit.Service
	secret   []byte
	tokenTTL time.Duration
	logger   zerolog.Logger
}

// NewService creates an auth service.
func NewService(userRepo user.Repository, auditSvc *appaudit.Service, secret []byte, tokenTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		auditSvc: auditSvc,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult contains the issued token and the user.
type LoginResult struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Login authenticates a user and issues a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = user.NormalizeUsername(username)
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !user.VerifyPassword(u.PasswordHash, password) {
		return nil, &fault.UnauthorizedError{Actor: username, Action: "login"}
	}
	if !u.IsActive() {
		return nil, &fault.UnauthorizedError{Actor: username, Action: "login"}
	}

	token, expiresAt, err := s.issueToken(u)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeUser,
		EntityID:   u.UserID.String(),
		Action:     audit.ActionLogin,
		Actor:      u.Username,
		ActorRole:  string(u.Role),
	})
	s.logger.Info().Str("userId", u.UserID.String()).Msg("user login")
	return &LoginResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) issueToken(u *user.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Authenticate validates a token and returns the actor. The user row
// is re-read so disabled users lose access immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (Actor, error) {
	if token == "" {
		return Actor{}, &fault.UnauthorizedError{Actor: "anonymous", Action: "authenticate"}
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &fault.UnauthorizedError{Actor: "unknown", Action: "authenticate"}
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Actor{}, &fault.UnauthorizedError{Actor: "unknown", Action: "authenticate"}
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Actor{}, &fault.UnauthorizedError{Actor: c.Username, Action: "authenticate"}
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return Actor{}, err
	}
	if u == nil || !u.IsActive() {
		return Actor{}, &fault.UnauthorizedError{Actor: c.Username, Action: "authenticate"}
	}
	return Actor{UserID: u.UserID, Username: u.Username, Role: u.Role}, nil
}

// RegisterInput carries new user fields.
type RegisterInput struct {
	Username string
	Password string
	Phone    *string
	Role     user.Role
}

// Register creates a user. Admin accounts can only be created by an
// existing admin.
func (s *Service) Register(ctx context.Context, actor *Actor, in RegisterInput) (*user.User, error) {
	username := user.NormalizeUsername(in.Username)
	if err := user.ValidateUsername(username); err != nil {
		return nil, &fault.ValidationError{Field: "username", Reason: err.Error()}
	}
	if err := user.ValidatePassword(in.Password, username); err != nil {
		return nil, &fault.ValidationError{Field: "password", Reason: err.Error()}
	}
	if err := user.ValidateRole(in.Role); err != nil {
		return nil, &fault.ValidationError{Field: "role", Reason: err.Error()}
	}
	if in.Role == user.RoleAdmin && (actor == nil || actor.Role != user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: username, Action: "register admin"}
	}

	hash, err := user.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &user.User{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         in.Role,
		Status:       user.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	actorName := u.Username
	actorRole := string(u.Role)
	if actor != nil {
		actorName = actor.Username
		actorRole = string(actor.Role)
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeUser,
		EntityID:   u.UserID.String(),
		Action:     audit.ActionCreate,
		Actor:      actorName,
		ActorRole:  actorRole,
		NewValues:  map[string]interface{}{"username": u.Username, "role": u.Role},
	})
	s.logger.Info().Str("userId", u.UserID.String()).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

// BootstrapAdmin creates the first admin when the user table is empty.
// A no-op on an already seeded database.
func (s *Service) BootstrapAdmin(ctx context.Context, username, password string) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	admin := Actor{Role: user.RoleAdmin, Username: "bootstrap"}
	_, err = s.Register(ctx, &admin, RegisterInput{
		Username: username,
		Password: password,
		Role:     user.RoleAdmin,
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Msg("bootstrap admin created")
	return nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &fault.NotFoundError{Entity: "user", ID: userID.String()}
	}
	return u, nil
}

// ListUsers lists users, optionally filtered by role. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor Actor, role *user.Role, limit, offset int) ([]*user.User, error) {
	if !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "list users"}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.userRepo.List(ctx, role, limit, offset)
}

// SetUserStatus enables or disables a user. Admin only.
func (s *Service) SetUserStatus(ctx context.Context, actor Actor, userID uuid.UUID, status user.Status) (*user.User, error) {
	if !actor.Is(user.RoleAdmin) {
		return nil, &fault.UnauthorizedError{Actor: actor.Username, Action: "change user status"}
	}
	if err := user.ValidateStatus(status); err != nil {
		return nil, &fault.ValidationError{Field: "status", Reason: err.Error()}
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	old := u.Status
	if old == status {
		return u, nil
	}
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeUser,
		EntityID:   u.UserID.String(),
		Action:     audit.ActionStatusChange,
		Actor:      actor.Username,
		ActorRole:  string(actor.Role),
		OldValues:  map[string]interface{}{"status": old},
		NewValues:  map[string]interface{}{"status": status},
		RiskLevel:  audit.RiskLevelMedium,
	})
	return u, nil
}
