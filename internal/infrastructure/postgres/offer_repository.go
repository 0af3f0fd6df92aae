package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/offer"
)

// OfferRepository implements offer.Repository. The single pending
// offer per (property, buyer) invariant rides on the partial unique
// index offers_one_pending_per_property_buyer; status moves are
// conditional writes so racing sweeps and user actions resolve to a
// single winner.
type OfferRepository struct {
	pool *pgxpool.Pool
}

func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

const offerColumns = `id, offer_id, property_id, buyer_id, parent_offer_id, offered_price, counter_price, message, status, expires_at, decided_at, created_at, updated_at`

func (r *OfferRepository) Create(ctx context.Context, o *offer.Offer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO offers
		(offer_id, property_id, buyer_id, parent_offer_id, offered_price, counter_price, message, status, expires_at, decided_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, o.OfferID, o.PropertyID, o.BuyerID, o.ParentOfferID, o.OfferedPrice, o.CounterPrice, o.Message, o.Status, o.ExpiresAt, o.DecidedAt, o.CreatedAt, o.UpdatedAt)
	if uniqueViolation(err, "offers_one_pending_per_property_buyer") {
		return &fault.ConflictError{Entity: "offer", Constraint: "one pending offer per property and buyer"}
	}
	return err
}

func (r *OfferRepository) GetByID(ctx context.Context, offerID uuid.UUID) (*offer.Offer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+offerColumns+` FROM offers WHERE offer_id=$1
	`, offerID)
	return scanOffer(row)
}

func (r *OfferRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE property_id=$1 ORDER BY created_at ASC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

func (r *OfferRepository) ListPendingByProperty(ctx context.Context, propertyID uuid.UUID) ([]*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE property_id=$1 AND status='PENDING' ORDER BY created_at ASC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

func (r *OfferRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE buyer_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

func (r *OfferRepository) UpdateStatusFrom(ctx context.Context, offerID uuid.UUID, from, to offer.Status, counterPrice *int64, decidedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE offers
		SET status=$1, counter_price=COALESCE($2, counter_price), decided_at=$3, updated_at=NOW()
		WHERE offer_id=$4 AND status=$5
	`, to, counterPrice, decidedAt, offerID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &fault.ConflictError{Entity: "offer", Constraint: "status moved from " + string(from)}
	}
	return nil
}

func (r *OfferRepository) ExpireDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE offers SET status='EXPIRED', decided_at=$1, updated_at=NOW()
		WHERE status='PENDING' AND expires_at < $1
		RETURNING offer_id
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectOffers(rows pgx.Rows) ([]*offer.Offer, error) {
	defer rows.Close()
	var list []*offer.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func scanOffer(row pgx.Row) (*offer.Offer, error) {
	var o offer.Offer
	if err := row.Scan(&o.ID, &o.OfferID, &o.PropertyID, &o.BuyerID, &o.ParentOfferID, &o.OfferedPrice, &o.CounterPrice, &o.Message, &o.Status, &o.ExpiresAt, &o.DecidedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}
