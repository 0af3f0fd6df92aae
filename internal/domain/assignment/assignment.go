package assignment

import (
	"time"

	"github.com/google/uuid"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// Status represents agent assignment status.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ActiveStatuses are the statuses that count against the single active
// assignment invariant.
var ActiveStatuses = []Status{StatusRequested, StatusAccepted}

var transitions = map[Status][]Status{
	StatusRequested: {StatusAccepted, StatusDeclined, StatusCancelled},
	StatusAccepted:  {StatusCompleted, StatusCancelled},
	StatusDeclined:  {},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Assignment binds a verifying agent to a property.
type Assignment struct {
	ID           int64      `json:"id"`
	AssignmentID uuid.UUID  `json:"assignmentId"`
	PropertyID   uuid.UUID  `json:"propertyId"`
	AgentID      uuid.UUID  `json:"agentId"`
	Status       Status     `json:"status"`
	Reason       *string    `json:"reason,omitempty"`
	RequestedAt  time.Time  `json:"requestedAt"`
	RespondedAt  *time.Time `json:"respondedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CanTransitionTo validates assignment status transition.
func (a *Assignment) CanTransitionTo(target Status) bool {
	for _, s := range transitions[a.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the assignment to target, stamping response or
// completion time.
func (a *Assignment) Transition(target Status, now time.Time) error {
	if !a.CanTransitionTo(target) {
		return &fault.InvalidTransitionError{
			Entity: "assignment",
			ID:     a.AssignmentID.String(),
			From:   string(a.Status),
			To:     string(target),
		}
	}
	a.Status = target
	switch target {
	case StatusAccepted, StatusDeclined:
		a.RespondedAt = &now
	case StatusCompleted:
		a.CompletedAt = &now
	}
	return nil
}

// Active reports whether the assignment holds the property exclusively.
func (a *Assignment) Active() bool {
	return a.Status == StatusRequested || a.Status == StatusAccepted
}
