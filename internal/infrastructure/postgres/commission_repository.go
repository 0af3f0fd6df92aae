package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/settlement"
)

// CommissionRepository implements settlement.CommissionRepository.
// Disburse is conditional on READY_TO_DISBURSE so retried calls can
// never double-pay: the record id is the idempotency key.
type CommissionRepository struct {
	pool *pgxpool.Pool
}

func NewCommissionRepository(pool *pgxpool.Pool) *CommissionRepository {
	return &CommissionRepository{pool: pool}
}

const commissionColumns = `id, record_id, transaction_id, total_commission, agent_share, platform_share, status, disbursement_ref, disbursed_at, created_at, updated_at`

func (r *CommissionRepository) Create(ctx context.Context, rec *settlement.CommissionRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO commission_records
		(record_id, transaction_id, total_commission, agent_share, platform_share, status, disbursement_ref, disbursed_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, rec.RecordID, rec.TransactionID, rec.TotalCommission, rec.AgentShare, rec.PlatformShare, rec.Status, rec.DisbursementRef, rec.DisbursedAt, rec.CreatedAt, rec.UpdatedAt)
	if uniqueViolation(err, "commission_records_transaction_id_key") {
		return &fault.ConflictError{Entity: "commission record", Constraint: "one record per transaction"}
	}
	return err
}

func (r *CommissionRepository) GetByID(ctx context.Context, recordID uuid.UUID) (*settlement.CommissionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+commissionColumns+` FROM commission_records WHERE record_id=$1
	`, recordID)
	return scanCommission(row)
}

func (r *CommissionRepository) GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*settlement.CommissionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+commissionColumns+` FROM commission_records WHERE transaction_id=$1
	`, transactionID)
	return scanCommission(row)
}

func (r *CommissionRepository) MarkReady(ctx context.Context, recordID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE commission_records SET status='READY_TO_DISBURSE', updated_at=NOW()
		WHERE record_id=$1 AND status='PENDING'
	`, recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &fault.ConflictError{Entity: "commission record", Constraint: "not pending"}
	}
	return nil
}

func (r *CommissionRepository) Disburse(ctx context.Context, recordID uuid.UUID, externalRef string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE commission_records
		SET status='PAID', disbursement_ref=$1, disbursed_at=NOW(), updated_at=NOW()
		WHERE record_id=$2 AND status='READY_TO_DISBURSE'
	`, externalRef, recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		rec, err := r.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return &fault.NotFoundError{Entity: "commission record", ID: recordID.String()}
		}
		if rec.Status == settlement.PayoutPaid {
			return &fault.AlreadyDisbursedError{CommissionRecordID: recordID.String()}
		}
		return &fault.ConflictError{Entity: "commission record", Constraint: "not ready to disburse"}
	}
	return nil
}

func (r *CommissionRepository) Waive(ctx context.Context, recordID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE commission_records SET status='WAIVED', updated_at=NOW()
		WHERE record_id=$1 AND status IN ('PENDING','READY_TO_DISBURSE')
	`, recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &fault.ConflictError{Entity: "commission record", Constraint: "not waivable"}
	}
	return nil
}

func scanCommission(row pgx.Row) (*settlement.CommissionRecord, error) {
	var c settlement.CommissionRecord
	if err := row.Scan(&c.ID, &c.RecordID, &c.TransactionID, &c.TotalCommission, &c.AgentShare, &c.PlatformShare, &c.Status, &c.DisbursementRef, &c.DisbursedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
