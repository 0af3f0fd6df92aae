package rule

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines screening rule persistence.
type Repository interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, ruleID uuid.UUID) (*Rule, error)
	List(ctx context.Context) ([]*Rule, error)
	ListEnabled(ctx context.Context) ([]*Rule, error)
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, ruleID uuid.UUID) error
}
