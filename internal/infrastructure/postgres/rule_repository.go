package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estate-hub/estate-hub/internal/domain/rule"
)

// RuleRepository implements rule.Repository.
type RuleRepository struct {
	pool *pgxpool.Pool
}

func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `id, rule_id, name, expression, enabled, created_at, updated_at`

func (r *RuleRepository) Create(ctx context.Context, rl *rule.Rule) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO screening_rules (rule_id, name, expression, enabled, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, rl.RuleID, rl.Name, rl.Expression, rl.Enabled, rl.CreatedAt, rl.UpdatedAt)
	return err
}

func (r *RuleRepository) GetByID(ctx context.Context, ruleID uuid.UUID) (*rule.Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+` FROM screening_rules WHERE rule_id=$1
	`, ruleID)
	return scanRule(row)
}

func (r *RuleRepository) List(ctx context.Context) ([]*rule.Rule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM screening_rules ORDER BY created_at ASC`)
}

func (r *RuleRepository) ListEnabled(ctx context.Context) ([]*rule.Rule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM screening_rules WHERE enabled ORDER BY created_at ASC`)
}

func (r *RuleRepository) list(ctx context.Context, query string) ([]*rule.Rule, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []*rule.Rule
	for rows.Next() {
		rl, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rl)
	}
	return rules, rows.Err()
}

func (r *RuleRepository) Update(ctx context.Context, rl *rule.Rule) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE screening_rules SET name=$1, expression=$2, enabled=$3, updated_at=$4
		WHERE rule_id=$5
	`, rl.Name, rl.Expression, rl.Enabled, time.Now().UTC(), rl.RuleID)
	return err
}

func (r *RuleRepository) Delete(ctx context.Context, ruleID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM screening_rules WHERE rule_id=$1`, ruleID)
	return err
}

func scanRule(row pgx.Row) (*rule.Rule, error) {
	var rl rule.Rule
	if err := row.Scan(&rl.ID, &rl.RuleID, &rl.Name, &rl.Expression, &rl.Enabled, &rl.CreatedAt, &rl.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rl, nil
}
