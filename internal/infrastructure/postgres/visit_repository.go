package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/visit"
)

// VisitRepository implements visit.Repository. The single open visit
// per (property, buyer) invariant rides on the partial unique index
// visits_one_open_per_property_buyer.
type VisitRepository struct {
	pool *pgxpool.Pool
}

func NewVisitRepository(pool *pgxpool.Pool) *VisitRepository {
	return &VisitRepository{pool: pool}
}

const visitColumns = `id, visit_id, property_id, buyer_id, agent_id, preferred_date, confirmed_date, status, reason, created_at, updated_at`

func (r *VisitRepository) Create(ctx context.Context, req *visit.Request) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visit_requests
		(visit_id, property_id, buyer_id, agent_id, preferred_date, confirmed_date, status, reason, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, req.VisitID, req.PropertyID, req.BuyerID, req.AgentID, req.PreferredDate, req.ConfirmedDate, req.Status, req.Reason, req.CreatedAt, req.UpdatedAt)
	if uniqueViolation(err, "visits_one_open_per_property_buyer") {
		return &fault.ConflictError{Entity: "visit", Constraint: "one open visit per property and buyer"}
	}
	return err
}

func (r *VisitRepository) GetByID(ctx context.Context, visitID uuid.UUID) (*visit.Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+visitColumns+` FROM visit_requests WHERE visit_id=$1
	`, visitID)
	return scanVisit(row)
}

func (r *VisitRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*visit.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitColumns+` FROM visit_requests
		WHERE property_id=$1 ORDER BY created_at DESC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

func (r *VisitRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*visit.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitColumns+` FROM visit_requests
		WHERE buyer_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

func (r *VisitRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*visit.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitColumns+` FROM visit_requests
		WHERE agent_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, agentID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

func (r *VisitRepository) Update(ctx context.Context, req *visit.Request) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE visit_requests
		SET confirmed_date=$1, status=$2, reason=$3, updated_at=$4
		WHERE visit_id=$5
	`, req.ConfirmedDate, req.Status, req.Reason, time.Now().UTC(), req.VisitID)
	return err
}

func (r *VisitRepository) MarkNoShowDue(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE visit_requests SET status='NO_SHOW', updated_at=NOW()
		WHERE status='APPROVED' AND confirmed_date IS NOT NULL AND confirmed_date < $1
		RETURNING visit_id
	`, cutoff)
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

func collectVisits(rows pgx.Rows) ([]*visit.Request, error) {
	defer rows.Close()
	var list []*visit.Request
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

func scanVisit(row pgx.Row) (*visit.Request, error) {
	var v visit.Request
	if err := row.Scan(&v.ID, &v.VisitID, &v.PropertyID, &v.BuyerID, &v.AgentID, &v.PreferredDate, &v.ConfirmedDate, &v.Status, &v.Reason, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// VisitVerificationRepository implements visit.VerificationRepository.
type VisitVerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVisitVerificationRepository(pool *pgxpool.Pool) *VisitVerificationRepository {
	return &VisitVerificationRepository{pool: pool}
}

func (r *VisitVerificationRepository) Create(ctx context.Context, v *visit.Verification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visit_verifications
		(visit_id, gps_lat, gps_lng, distance_meters, checked_in_at, completed_at, buyer_rating)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, v.VisitID, v.GPSLat, v.GPSLng, v.DistanceMeters, v.CheckedInAt, v.CompletedAt, v.BuyerRating)
	if uniqueViolation(err, "visit_verifications_visit_id_key") {
		return &fault.ConflictError{Entity: "visit verification", Constraint: "one check-in per visit"}
	}
	return err
}

func (r *VisitVerificationRepository) GetByVisit(ctx context.Context, visitID uuid.UUID) (*visit.Verification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, visit_id, gps_lat, gps_lng, distance_meters, checked_in_at, completed_at, buyer_rating
		FROM visit_verifications WHERE visit_id=$1
	`, visitID)
	var v visit.Verification
	if err := row.Scan(&v.ID, &v.VisitID, &v.GPSLat, &v.GPSLng, &v.DistanceMeters, &v.CheckedInAt, &v.CompletedAt, &v.BuyerRating); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *VisitVerificationRepository) Update(ctx context.Context, v *visit.Verification) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE visit_verifications
		SET completed_at=$1, buyer_rating=$2
		WHERE visit_id=$3
	`, v.CompletedAt, v.BuyerRating, v.VisitID)
	return err
}
