package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/verification"
)

// VerificationRepository implements verification.Repository. One
// incomplete verification per property, enforced by the partial
// unique index verifications_one_active_per_property.
type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

const verificationColumns = `id, verification_id, property_id, agent_id, started_at, gps_lat, gps_lng, gps_distance_meters, gps_verified_at, seller_otp_verified_at, result, notes, rejection_reason, completed_at, created_at, updated_at`

func (r *VerificationRepository) Create(ctx context.Context, v *verification.Verification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verifications
		(verification_id, property_id, agent_id, started_at, gps_lat, gps_lng, gps_distance_meters, gps_verified_at, seller_otp_verified_at, result, notes, rejection_reason, completed_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, v.VerificationID, v.PropertyID, v.AgentID, v.StartedAt, v.GPSLat, v.GPSLng, v.GPSDistanceMeters, v.GPSVerifiedAt, v.SellerOTPVerifiedAt, v.Result, v.Notes, v.RejectionReason, v.CompletedAt, v.CreatedAt, v.UpdatedAt)
	if uniqueViolation(err, "verifications_one_active_per_property") {
		return &fault.ConflictError{Entity: "verification", Constraint: "one active verification per property"}
	}
	return err
}

func (r *VerificationRepository) GetByID(ctx context.Context, verificationID uuid.UUID) (*verification.Verification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+verificationColumns+` FROM verifications WHERE verification_id=$1
	`, verificationID)
	return scanVerification(row)
}

func (r *VerificationRepository) GetActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*verification.Verification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+verificationColumns+` FROM verifications
		WHERE property_id=$1 AND completed_at IS NULL
	`, propertyID)
	return scanVerification(row)
}

func (r *VerificationRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*verification.Verification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+verificationColumns+` FROM verifications
		WHERE property_id=$1 ORDER BY created_at DESC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*verification.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

func (r *VerificationRepository) Update(ctx context.Context, v *verification.Verification) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE verifications
		SET gps_lat=$1, gps_lng=$2, gps_distance_meters=$3, gps_verified_at=$4, seller_otp_verified_at=$5,
			result=$6, notes=$7, rejection_reason=$8, completed_at=$9, updated_at=$10
		WHERE verification_id=$11
	`, v.GPSLat, v.GPSLng, v.GPSDistanceMeters, v.GPSVerifiedAt, v.SellerOTPVerifiedAt,
		v.Result, v.Notes, v.RejectionReason, v.CompletedAt, time.Now().UTC(), v.VerificationID)
	return err
}

func scanVerification(row pgx.Row) (*verification.Verification, error) {
	var v verification.Verification
	if err := row.Scan(&v.ID, &v.VerificationID, &v.PropertyID, &v.AgentID, &v.StartedAt, &v.GPSLat, &v.GPSLng, &v.GPSDistanceMeters, &v.GPSVerifiedAt, &v.SellerOTPVerifiedAt, &v.Result, &v.Notes, &v.RejectionReason, &v.CompletedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
