package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/property"
)

// PropertyRepository implements property.Repository.
type PropertyRepository struct {
	pool *pgxpool.Pool
}

func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

const propertyColumns = `id, property_id, seller_id, title, address, city, latitude, longitude, price, status, version, submitted_at, verified_at, sold_at, deleted_at, created_at, updated_at`

func (r *PropertyRepository) Create(ctx context.Context, p *property.Property) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO properties
		(property_id, seller_id, title, address, city, latitude, longitude, price, status, version, submitted_at, verified_at, sold_at, deleted_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, p.PropertyID, p.SellerID, p.Title, p.Address, p.City, p.Latitude, p.Longitude, p.Price, p.Status, p.Version, p.SubmittedAt, p.VerifiedAt, p.SoldAt, p.DeletedAt, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PropertyRepository) GetByID(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+propertyColumns+`
		FROM properties WHERE property_id=$1 AND deleted_at IS NULL
	`, propertyID)
	return scanProperty(row)
}

func (r *PropertyRepository) List(ctx context.Context, status *property.Status, sellerID *uuid.UUID, limit, offset int) ([]*property.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE deleted_at IS NULL`
	args := []interface{}{}
	idx := 1
	if status != nil {
		query += " AND status=$" + itoa(idx)
		args = append(args, *status)
		idx++
	}
	if sellerID != nil {
		query += " AND seller_id=$" + itoa(idx)
		args = append(args, *sellerID)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var props []*property.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

// Update is the optimistic-locking chokepoint: a single conditional
// write keyed on the caller's expected version. Zero rows affected
// means the row moved and the caller gets a StaleWriteError.
func (r *PropertyRepository) Update(ctx context.Context, p *property.Property, expectedVersion int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE properties
		SET title=$1, address=$2, city=$3, latitude=$4, longitude=$5, price=$6, status=$7,
			version=version+1, submitted_at=$8, verified_at=$9, sold_at=$10, updated_at=$11
		WHERE property_id=$12 AND version=$13 AND deleted_at IS NULL
	`, p.Title, p.Address, p.City, p.Latitude, p.Longitude, p.Price, p.Status,
		p.SubmittedAt, p.VerifiedAt, p.SoldAt, time.Now().UTC(), p.PropertyID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &fault.StaleWriteError{Entity: "property", ID: p.PropertyID.String(), ExpectedVersion: expectedVersion}
	}
	p.Version = expectedVersion + 1
	return nil
}

func (r *PropertyRepository) SoftDelete(ctx context.Context, propertyID uuid.UUID, expectedVersion int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE properties SET deleted_at=NOW(), version=version+1, updated_at=NOW()
		WHERE property_id=$1 AND version=$2 AND deleted_at IS NULL
	`, propertyID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &fault.StaleWriteError{Entity: "property", ID: propertyID.String(), ExpectedVersion: expectedVersion}
	}
	return nil
}

func scanProperty(row pgx.Row) (*property.Property, error) {
	var p property.Property
	if err := row.Scan(&p.ID, &p.PropertyID, &p.SellerID, &p.Title, &p.Address, &p.City, &p.Latitude, &p.Longitude, &p.Price, &p.Status, &p.Version, &p.SubmittedAt, &p.VerifiedAt, &p.SoldAt, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
