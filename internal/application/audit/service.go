package audit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// Service is the audit chokepoint. Every mutating operation in the
// system records an entry here; reads never do.
type Service struct {
	repo    audit.Repository
	logger  zerolog.Logger
	signKey []byte
}

// NewService creates an audit service. An empty signKey disables
// signing.
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Log records an entry asynchronously. Used on paths where the
// mutation already committed and audit failure must not fail the
// request.
func (s *Service) Log(ctx context.Context, entry *audit.Entry) {
	go func() {
		if err := s.LogSync(context.Background(), entry); err != nil {
			s.logger.Error().Err(err).
				Str("entityType", string(entry.EntityType)).
				Str("entityId", entry.EntityID).
				Str("action", string(entry.Action)).
				Msg("failed to create audit log")
		}
	}()
}

// LogSync records an entry synchronously, signing it when a key is
// configured.
func (s *Service) LogSync(ctx context.Context, entry *audit.Entry) error {
	log, err := audit.NewAuditLog(entry)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if len(s.signKey) > 0 {
		sig, err := audit.SignAuditLog(log, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		log.Signature = sig
	}

	if err := s.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	s.logger.Debug().
		Str("auditId", log.AuditID.String()).
		Str("entityType", string(log.EntityType)).
		Str("entityId", log.EntityID).
		Str("action", string(log.Action)).
		Str("actor", log.Actor).
		Msg("audit log created")

	if log.RiskLevel == audit.RiskLevelHigh || log.RiskLevel == audit.RiskLevelCritical {
		s.logger.Warn().
			Str("auditId", log.AuditID.String()).
			Str("entityType", string(log.EntityType)).
			Str("entityId", log.EntityID).
			Str("action", string(log.Action)).
			Str("actor", log.Actor).
			Str("riskLevel", string(log.RiskLevel)).
			Msg("high-risk operation recorded")
	}

	return nil
}

// QueryParams represents query parameters for audit logs.
type QueryParams struct {
	EntityType *string
	EntityID   *string
	Action     *string
	Actor      *string
	RiskLevel  *string
	StartTime  *time.Time
	EndTime    *time.Time
	TraceID    *string
	Cursor     *string
	Limit      int
}

// QueryResult is a page of audit logs.
type QueryResult struct {
	Logs       []*audit.AuditLog `json:"logs"`
	Pagination Pagination        `json:"pagination"`
}

// Pagination holds cursor pagination state.
type Pagination struct {
	Cursor  *string `json:"cursor,omitempty"`
	HasMore bool    `json:"hasMore"`
	Count   int     `json:"count"`
}

// Query retrieves audit logs matching params, newest first.
func (s *Service) Query(ctx context.Context, params QueryParams) (*QueryResult, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Limit > 200 {
		params.Limit = 200
	}

	var cursor *audit.Cursor
	if params.Cursor != nil && *params.Cursor != "" {
		c, err := decodeCursor(*params.Cursor)
		if err != nil {
			return nil, &fault.ValidationError{Field: "cursor", Reason: "invalid cursor"}
		}
		cursor = c
	}

	var filter audit.QueryFilter
	if params.EntityType != nil {
		et := audit.EntityType(*params.EntityType)
		filter.EntityType = &et
	}
	filter.EntityID = params.EntityID
	if params.Action != nil {
		a := audit.Action(*params.Action)
		filter.Action = &a
	}
	filter.Actor = params.Actor
	if params.RiskLevel != nil {
		rl := audit.RiskLevel(*params.RiskLevel)
		filter.RiskLevel = &rl
	}
	filter.StartTime = params.StartTime
	filter.EndTime = params.EndTime
	filter.TraceID = params.TraceID

	logs, nextCursor, err := s.repo.Query(ctx, filter, cursor, params.Limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query audit logs")
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	result := &QueryResult{
		Logs: logs,
		Pagination: Pagination{
			Count:   len(logs),
			HasMore: nextCursor != nil,
		},
	}
	if nextCursor != nil {
		encoded, err := encodeCursor(nextCursor)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to encode cursor")
		} else {
			result.Pagination.Cursor = &encoded
		}
	}
	return result, nil
}

// GetByID retrieves a single audit log.
func (s *Service) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.AuditLog, error) {
	log, err := s.repo.GetByID(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, &fault.NotFoundError{Entity: "audit log", ID: auditID.String()}
	}
	return log, nil
}

// GetEntityHistory retrieves the complete audit trail for one entity,
// oldest first.
func (s *Service) GetEntityHistory(ctx context.Context, entityType, entityID string) ([]*audit.AuditLog, error) {
	logs, err := s.repo.GetByEntityID(ctx, audit.EntityType(entityType), entityID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("entityType", entityType).
			Str("entityId", entityID).
			Msg("failed to get entity history")
		return nil, fmt.Errorf("failed to get entity history: %w", err)
	}
	return logs, nil
}

// VerifyResult is the outcome of an integrity check.
type VerifyResult struct {
	AuditID  uuid.UUID `json:"auditId"`
	Verified bool      `json:"verified"`
	Message  string    `json:"message"`
}

// VerifyIntegrity recomputes the HMAC of a stored entry against the
// service signing key.
func (s *Service) VerifyIntegrity(ctx context.Context, auditID uuid.UUID) (*VerifyResult, error) {
	log, err := s.GetByID(ctx, auditID)
	if err != nil {
		return nil, err
	}
	verified, err := audit.VerifyAuditLogSignature(log, s.signKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify signature: %w", err)
	}

	result := &VerifyResult{AuditID: auditID, Verified: verified}
	if verified {
		result.Message = "audit log integrity verified"
	} else {
		result.Message = "audit log signature mismatch"
		s.logger.Warn().
			Str("auditId", auditID.String()).
			Msg("audit log signature verification failed")
	}
	return result, nil
}

func encodeCursor(c *audit.Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

func decodeCursor(s string) (*audit.Cursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var c audit.Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
