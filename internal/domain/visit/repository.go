package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines visit persistence. Create must surface
// fault.ConflictError when an open visit already exists for the
// (property, buyer) pair.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, visitID uuid.UUID) (*Request, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Request, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*Request, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*Request, error)
	Update(ctx context.Context, r *Request) error
	// MarkNoShowDue flips APPROVED visits whose confirmed date passed
	// cutoff to NO_SHOW and returns the affected visit IDs, one audit
	// entry per row is written by the caller.
	MarkNoShowDue(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// VerificationRepository defines visit check-in persistence.
type VerificationRepository interface {
	Create(ctx context.Context, v *Verification) error
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Verification, error)
	Update(ctx context.Context, v *Verification) error
}
