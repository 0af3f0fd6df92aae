package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/assignment"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
)

// AssignmentRepository implements assignment.Repository. The single
// active assignment invariant rides on the partial unique index
// assignments_one_active_per_property.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

const assignmentColumns = `id, assignment_id, property_id, agent_id, status, reason, requested_at, responded_at, completed_at, created_at, updated_at`

func (r *AssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO assignments
		(assignment_id, property_id, agent_id, status, reason, requested_at, responded_at, completed_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, a.AssignmentID, a.PropertyID, a.AgentID, a.Status, a.Reason, a.RequestedAt, a.RespondedAt, a.CompletedAt, a.CreatedAt, a.UpdatedAt)
	if uniqueViolation(err, "assignments_one_active_per_property") {
		return &fault.AlreadyAssignedError{PropertyID: a.PropertyID.String()}
	}
	return err
}

func (r *AssignmentRepository) GetByID(ctx context.Context, assignmentID uuid.UUID) (*assignment.Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM assignments WHERE assignment_id=$1
	`, assignmentID)
	return scanAssignment(row)
}

func (r *AssignmentRepository) GetActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*assignment.Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE property_id=$1 AND status IN ('REQUESTED','ACCEPTED')
	`, propertyID)
	return scanAssignment(row)
}

func (r *AssignmentRepository) GetLatestCompletedByProperty(ctx context.Context, propertyID uuid.UUID) (*assignment.Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE property_id=$1 AND status='COMPLETED'
		ORDER BY completed_at DESC LIMIT 1
	`, propertyID)
	return scanAssignment(row)
}

func (r *AssignmentRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*assignment.Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE agent_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, agentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*assignment.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *AssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE assignments
		SET status=$1, reason=$2, responded_at=$3, completed_at=$4, updated_at=$5
		WHERE assignment_id=$6
	`, a.Status, a.Reason, a.RespondedAt, a.CompletedAt, time.Now().UTC(), a.AssignmentID)
	return err
}

func scanAssignment(row pgx.Row) (*assignment.Assignment, error) {
	var a assignment.Assignment
	if err := row.Scan(&a.ID, &a.AssignmentID, &a.PropertyID, &a.AgentID, &a.Status, &a.Reason, &a.RequestedAt, &a.RespondedAt, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
