package offer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines offer persistence. Create must surface
// fault.ConflictError when a PENDING offer already exists for the
// (property, buyer) pair. UpdateStatusFrom is a conditional write:
// it only applies when the stored status still equals from, so a
// sweep racing a user action loses cleanly.
type Repository interface {
	Create(ctx context.Context, o *Offer) error
	GetByID(ctx context.Context, offerID uuid.UUID) (*Offer, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Offer, error)
	ListPendingByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Offer, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*Offer, error)
	UpdateStatusFrom(ctx context.Context, offerID uuid.UUID, from, to Status, counterPrice *int64, decidedAt time.Time) error
	// ExpireDue transitions every PENDING offer past its deadline to
	// EXPIRED and returns the affected offer IDs. Idempotent.
	ExpireDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
