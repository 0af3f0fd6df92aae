package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/settlement"
)

// PaymentRepository implements settlement.PaymentRepository.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, payment_id, transaction_id, type, amount, proof_ref, status, note, verified_by, verified_at, created_at`

func (r *PaymentRepository) Create(ctx context.Context, p *settlement.Payment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settlement_payments
		(payment_id, transaction_id, type, amount, proof_ref, status, note, verified_by, verified_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, p.PaymentID, p.TransactionID, p.Type, p.Amount, p.ProofRef, p.Status, p.Note, p.VerifiedBy, p.VerifiedAt, p.CreatedAt)
	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID uuid.UUID) (*settlement.Payment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM settlement_payments WHERE payment_id=$1
	`, paymentID)
	return scanPayment(row)
}

func (r *PaymentRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*settlement.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM settlement_payments
		WHERE transaction_id=$1 ORDER BY created_at ASC
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*settlement.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PaymentRepository) Update(ctx context.Context, p *settlement.Payment) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE settlement_payments
		SET status=$1, note=$2, verified_by=$3, verified_at=$4
		WHERE payment_id=$5
	`, p.Status, p.Note, p.VerifiedBy, p.VerifiedAt, p.PaymentID)
	return err
}

func scanPayment(row pgx.Row) (*settlement.Payment, error) {
	var p settlement.Payment
	if err := row.Scan(&p.ID, &p.PaymentID, &p.TransactionID, &p.Type, &p.Amount, &p.ProofRef, &p.Status, &p.Note, &p.VerifiedBy, &p.VerifiedAt, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
