package property

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines property persistence. Update performs a
// conditional write against expectedVersion and returns
// fault.StaleWriteError when the row moved underneath the caller.
type Repository interface {
	Create(ctx context.Context, p *Property) error
	GetByID(ctx context.Context, propertyID uuid.UUID) (*Property, error)
	List(ctx context.Context, status *Status, sellerID *uuid.UUID, limit, offset int) ([]*Property, error)
	Update(ctx context.Context, p *Property, expectedVersion int) error
	SoftDelete(ctx context.Context, propertyID uuid.UUID, expectedVersion int) error
}
