package verification

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines verification persistence. Create must surface
// fault.ConflictError when an incomplete verification already exists
// for the property.
type Repository interface {
	Create(ctx context.Context, v *Verification) error
	GetByID(ctx context.Context, verificationID uuid.UUID) (*Verification, error)
	GetActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*Verification, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Verification, error)
	Update(ctx context.Context, v *Verification) error
}
