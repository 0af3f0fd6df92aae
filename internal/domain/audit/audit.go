package audit

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EntityType represents the type of entity being audited.
type EntityType string

const (
	EntityTypeProperty     EntityType = "PROPERTY"
	EntityTypeAssignment   EntityType = "ASSIGNMENT"
	EntityTypeVerification EntityType = "VERIFICATION"
	EntityTypeVisit        EntityType = "VISIT"
	EntityTypeOffer        EntityType = "OFFER"
	EntityTypeTransaction  EntityType = "TRANSACTION"
	EntityTypePayment      EntityType = "PAYMENT"
	EntityTypeCommission   EntityType = "COMMISSION"
	EntityTypeRule         EntityType = "RULE"
	EntityTypeUser         EntityType = "USER"
)

// Action represents the type of action being audited.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionStatusChange Action = "STATUS_CHANGE"
	ActionAccept       Action = "ACCEPT"
	ActionReject       Action = "REJECT"
	ActionCounter      Action = "COUNTER"
	ActionWithdraw     Action = "WITHDRAW"
	ActionExpire       Action = "EXPIRE"
	ActionCheckIn      Action = "CHECK_IN"
	ActionVerify       Action = "VERIFY"
	ActionDisburse     Action = "DISBURSE"
	ActionWaive        Action = "WAIVE"
	ActionLogin        Action = "LOGIN"
	ActionDenied       Action = "DENIED"
)

// RiskLevel represents the risk classification of an operation.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// AuditLog is an immutable audit log row. Never updated or deleted.
type AuditLog struct {
	ID         int64           `json:"id"`
	AuditID    uuid.UUID       `json:"auditId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     Action          `json:"action"`
	Actor      string          `json:"actor"`
	ActorRole  string          `json:"actorRole,omitempty"`
	OldValues  json.RawMessage `json:"oldValues,omitempty"`
	NewValues  json.RawMessage `json:"newValues,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	RiskLevel  RiskLevel       `json:"riskLevel"`
	TraceID    string          `json:"traceId,omitempty"`
	Signature  []byte          `json:"signature,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Entry is the input for creating an audit log.
type Entry struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Actor      string
	ActorRole  string
	OldValues  interface{}
	NewValues  interface{}
	Reason     string
	RiskLevel  RiskLevel
	TraceID    string
}

// NewAuditLog builds an AuditLog from an entry, marshalling the
// before/after snapshots.
func NewAuditLog(entry *Entry) (*AuditLog, error) {
	if entry == nil {
		return nil, errors.New("audit entry is nil")
	}
	if entry.EntityType == "" || entry.EntityID == "" || entry.Action == "" {
		return nil, errors.New("audit entry requires entity type, entity id and action")
	}
	actor := entry.Actor
	if actor == "" {
		actor = "system"
	}
	risk := entry.RiskLevel
	if risk == "" {
		risk = RiskLevelLow
	}
	log := &AuditLog{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Actor:      actor,
		ActorRole:  entry.ActorRole,
		Reason:     entry.Reason,
		RiskLevel:  risk,
		TraceID:    entry.TraceID,
		CreatedAt:  time.Now().UTC(),
	}
	if entry.OldValues != nil {
		data, err := json.Marshal(entry.OldValues)
		if err != nil {
			return nil, err
		}
		log.OldValues = data
	}
	if entry.NewValues != nil {
		data, err := json.Marshal(entry.NewValues)
		if err != nil {
			return nil, err
		}
		log.NewValues = data
	}
	return log, nil
}

// QueryFilter represents filters for querying audit logs.
type QueryFilter struct {
	EntityType *EntityType
	EntityID   *string
	Action     *Action
	Actor      *string
	RiskLevel  *RiskLevel
	StartTime  *time.Time
	EndTime    *time.Time
	TraceID    *string
}

// Cursor is a pagination cursor for audit log queries.
type Cursor struct {
	CreatedAt time.Time `json:"ts"`
	ID        int64     `json:"id"`
}
