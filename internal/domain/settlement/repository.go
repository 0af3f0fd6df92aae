package settlement

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines transaction persistence. Update is a conditional
// write against expectedVersion returning fault.StaleWriteError on a
// lost race.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, transactionID uuid.UUID) (*Transaction, error)
	GetByOffer(ctx context.Context, offerID uuid.UUID) (*Transaction, error)
	ListByStatus(ctx context.Context, status *Status, limit, offset int) ([]*Transaction, error)
	Update(ctx context.Context, t *Transaction, expectedVersion int) error
}

// PaymentRepository defines payment proof persistence.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID uuid.UUID) (*Payment, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*Payment, error)
	Update(ctx context.Context, p *Payment) error
}

// CommissionRepository defines commission record persistence.
// Disburse must be conditional on READY_TO_DISBURSE so a retried call
// fails with fault.AlreadyDisbursedError instead of double-paying.
type CommissionRepository interface {
	Create(ctx context.Context, r *CommissionRecord) error
	GetByID(ctx context.Context, recordID uuid.UUID) (*CommissionRecord, error)
	GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*CommissionRecord, error)
	MarkReady(ctx context.Context, recordID uuid.UUID) error
	Disburse(ctx context.Context, recordID uuid.UUID, externalRef string) error
	Waive(ctx context.Context, recordID uuid.UUID) error
}
