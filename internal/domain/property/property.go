package property

import (
	"time"

	"github.com/google/uuid"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// Status represents property listing status.
type Status string

const (
	StatusDraft                  Status = "DRAFT"
	StatusPendingAssignment      Status = "PENDING_ASSIGNMENT"
	StatusAssigned               Status = "ASSIGNED"
	StatusVerificationInProgress Status = "VERIFICATION_IN_PROGRESS"
	StatusActive                 Status = "ACTIVE"
	StatusReserved               Status = "RESERVED"
	StatusInactive               Status = "INACTIVE"
	StatusSold                   Status = "SOLD"
)

// transitions is the single source of truth for reachability. SOLD is
// terminal.
var transitions = map[Status][]Status{
	StatusDraft:                  {StatusPendingAssignment},
	StatusPendingAssignment:      {StatusAssigned, StatusDraft},
	StatusAssigned:               {StatusVerificationInProgress, StatusPendingAssignment},
	StatusVerificationInProgress: {StatusActive, StatusPendingAssignment, StatusDraft},
	StatusActive:                 {StatusReserved, StatusInactive},
	StatusReserved:               {StatusSold, StatusActive},
	StatusInactive:               {StatusActive},
	StatusSold:                   {},
}

// ValidateStatus reports whether s is a known status literal.
func ValidateStatus(s Status) error {
	if _, ok := transitions[s]; !ok {
		return &fault.ValidationError{Field: "status", Reason: "unknown property status: " + string(s)}
	}
	return nil
}

// Property represents a listed property.
type Property struct {
	ID          int64      `json:"id"`
	PropertyID  uuid.UUID  `json:"propertyId"`
	SellerID    uuid.UUID  `json:"sellerId"`
	Title       string     `json:"title"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Price       int64      `json:"price"`
	Status      Status     `json:"status"`
	Version     int        `json:"version"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	SoldAt      *time.Time `json:"soldAt,omitempty"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CanTransitionTo validates property status transition.
func (p *Property) CanTransitionTo(target Status) bool {
	for _, s := range transitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the property to target, stamping the matching
// lifecycle timestamp. The version counter is advanced by the
// repository on the conditional write, not here.
func (p *Property) Transition(target Status, now time.Time) error {
	if !p.CanTransitionTo(target) {
		return &fault.InvalidTransitionError{
			Entity: "property",
			ID:     p.PropertyID.String(),
			From:   string(p.Status),
			To:     string(target),
		}
	}
	p.Status = target
	switch target {
	case StatusPendingAssignment:
		if p.SubmittedAt == nil {
			p.SubmittedAt = &now
		}
	case StatusActive:
		if p.VerifiedAt == nil {
			p.VerifiedAt = &now
		}
	case StatusSold:
		p.SoldAt = &now
	}
	return nil
}

// Sellable reports whether the property can return to market after a
// failed or cancelled transaction.
func (p *Property) Sellable() bool {
	return p.Status == StatusReserved && p.DeletedAt == nil
}

// Validate checks required listing fields before any write.
func (p *Property) Validate() error {
	if p.Title == "" {
		return &fault.ValidationError{Field: "title", Reason: "title is required"}
	}
	if p.Price <= 0 {
		return &fault.ValidationError{Field: "price", Reason: "price must be positive"}
	}
	if p.SellerID == uuid.Nil {
		return &fault.ValidationError{Field: "sellerId", Reason: "seller is required"}
	}
	return nil
}
