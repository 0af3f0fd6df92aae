package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/settlement"
)

// TransactionRepository implements settlement.Repository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, transaction_id, offer_id, property_id, buyer_id, seller_id, agent_id, status, total_price, token_amount, total_commission, agent_share, platform_share, registration_date, registration_office, registration_location, agent_gps_lat, agent_gps_lng, agent_checked_in_at, buyer_verified_at, seller_verified_at, cancel_reason, completed_at, version, created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, t *settlement.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions
		(transaction_id, offer_id, property_id, buyer_id, seller_id, agent_id, status, total_price, token_amount, total_commission, agent_share, platform_share, registration_date, registration_office, registration_location, agent_gps_lat, agent_gps_lng, agent_checked_in_at, buyer_verified_at, seller_verified_at, cancel_reason, completed_at, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	`, t.TransactionID, t.OfferID, t.PropertyID, t.BuyerID, t.SellerID, t.AgentID, t.Status, t.TotalPrice, t.TokenAmount, t.TotalCommission, t.AgentShare, t.PlatformShare, t.RegistrationDate, t.RegistrationOffice, t.RegistrationLocation, t.AgentGPSLat, t.AgentGPSLng, t.AgentCheckedInAt, t.BuyerVerifiedAt, t.SellerVerifiedAt, t.CancelReason, t.CompletedAt, t.Version, t.CreatedAt, t.UpdatedAt)
	if uniqueViolation(err, "transactions_offer_id_key") {
		return &fault.ConflictError{Entity: "transaction", Constraint: "one transaction per offer"}
	}
	return err
}

func (r *TransactionRepository) GetByID(ctx context.Context, transactionID uuid.UUID) (*settlement.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE transaction_id=$1
	`, transactionID)
	return scanTransaction(row)
}

func (r *TransactionRepository) GetByOffer(ctx context.Context, offerID uuid.UUID) (*settlement.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE offer_id=$1
	`, offerID)
	return scanTransaction(row)
}

func (r *TransactionRepository) ListByStatus(ctx context.Context, status *settlement.Status, limit, offset int) ([]*settlement.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	args := []interface{}{}
	idx := 1
	if status != nil {
		query += " WHERE status=$" + itoa(idx)
		args = append(args, *status)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*settlement.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update is a conditional write keyed on expectedVersion, mirroring
// the property repository.
func (r *TransactionRepository) Update(ctx context.Context, t *settlement.Transaction, expectedVersion int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET status=$1, registration_date=$2, registration_office=$3, registration_location=$4,
			agent_gps_lat=$5, agent_gps_lng=$6, agent_checked_in_at=$7,
			buyer_verified_at=$8, seller_verified_at=$9, cancel_reason=$10, completed_at=$11,
			version=version+1, updated_at=$12
		WHERE transaction_id=$13 AND version=$14
	`, t.Status, t.RegistrationDate, t.RegistrationOffice, t.RegistrationLocation,
		t.AgentGPSLat, t.AgentGPSLng, t.AgentCheckedInAt,
		t.BuyerVerifiedAt, t.SellerVerifiedAt, t.CancelReason, t.CompletedAt,
		time.Now().UTC(), t.TransactionID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &fault.StaleWriteError{Entity: "transaction", ID: t.TransactionID.String(), ExpectedVersion: expectedVersion}
	}
	t.Version = expectedVersion + 1
	return nil
}

func scanTransaction(row pgx.Row) (*settlement.Transaction, error) {
	var t settlement.Transaction
	if err := row.Scan(&t.ID, &t.TransactionID, &t.OfferID, &t.PropertyID, &t.BuyerID, &t.SellerID, &t.AgentID, &t.Status, &t.TotalPrice, &t.TokenAmount, &t.TotalCommission, &t.AgentShare, &t.PlatformShare, &t.RegistrationDate, &t.RegistrationOffice, &t.RegistrationLocation, &t.AgentGPSLat, &t.AgentGPSLng, &t.AgentCheckedInAt, &t.BuyerVerifiedAt, &t.SellerVerifiedAt, &t.CancelReason, &t.CompletedAt, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
