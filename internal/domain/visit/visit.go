package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// Status represents visit request status.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCheckedIn Status = "CHECKED_IN"
	StatusCompleted Status = "COMPLETED"
	StatusNoShow    Status = "NO_SHOW"
	StatusCancelled Status = "CANCELLED"
)

// OpenStatuses count against the single open visit per
// (property, buyer) invariant.
var OpenStatuses = []Status{StatusRequested, StatusApproved}

var transitions = map[Status][]Status{
	StatusRequested: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCheckedIn, StatusNoShow, StatusCancelled},
	StatusCheckedIn: {StatusCompleted},
	StatusRejected:  {},
	StatusCompleted: {},
	StatusNoShow:    {},
	StatusCancelled: {},
}

// Request represents a buyer's visit request for an active property.
type Request struct {
	ID            int64      `json:"id"`
	VisitID       uuid.UUID  `json:"visitId"`
	PropertyID    uuid.UUID  `json:"propertyId"`
	BuyerID       uuid.UUID  `json:"buyerId"`
	AgentID       uuid.UUID  `json:"agentId"`
	PreferredDate time.Time  `json:"preferredDate"`
	ConfirmedDate *time.Time `json:"confirmedDate,omitempty"`
	Status        Status     `json:"status"`
	Reason        *string    `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CanTransitionTo validates visit status transition.
func (r *Request) CanTransitionTo(target Status) bool {
	for _, s := range transitions[r.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the visit to target.
func (r *Request) Transition(target Status) error {
	if !r.CanTransitionTo(target) {
		return &fault.InvalidTransitionError{
			Entity: "visit",
			ID:     r.VisitID.String(),
			From:   string(r.Status),
			To:     string(target),
		}
	}
	r.Status = target
	return nil
}

// Open reports whether the visit still blocks a new request for the
// same (property, buyer) pair.
func (r *Request) Open() bool {
	return r.Status == StatusRequested || r.Status == StatusApproved
}

// Verification is the 1:1 GPS check-in record for a visit.
type Verification struct {
	ID             int64      `json:"id"`
	VisitID        uuid.UUID  `json:"visitId"`
	GPSLat         float64    `json:"gpsLat"`
	GPSLng         float64    `json:"gpsLng"`
	DistanceMeters float64    `json:"distanceMeters"`
	CheckedInAt    time.Time  `json:"checkedInAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	BuyerRating    *int       `json:"buyerRating,omitempty"`
}

// ValidateRating checks the 1-5 buyer rating.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return &fault.ValidationError{Field: "rating", Reason: "rating must be between 1 and 5"}
	}
	return nil
}
