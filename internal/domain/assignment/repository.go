package assignment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines assignment persistence. Create must surface
// fault.AlreadyAssignedError when an active assignment already exists
// for the property (partial unique index on REQUESTED/ACCEPTED rows).
type Repository interface {
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, assignmentID uuid.UUID) (*Assignment, error)
	GetActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*Assignment, error)
	// GetLatestCompletedByProperty returns the most recent COMPLETED
	// assignment, which identifies the agent attached to an active
	// listing.
	GetLatestCompletedByProperty(ctx context.Context, propertyID uuid.UUID) (*Assignment, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*Assignment, error)
	Update(ctx context.Context, a *Assignment) error
}
