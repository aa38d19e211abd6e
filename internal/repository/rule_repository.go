package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentbridge/interview-scheduler/internal/model"
)

type RuleRepository struct {
	pool *pgxpool.Pool
}

func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// Create inserts a new availability rule.
func (r *RuleRepository) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	const q = `
		INSERT INTO availability_rules (recruiter_id, weekday, start_minute, end_minute, slot_minutes, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := queryRow(ctx, r.pool, q,
		rule.RecruiterID,
		int(rule.Weekday),
		rule.StartMinute,
		rule.EndMinute,
		rule.SlotMinutes,
		rule.Active,
	).Scan(&rule.ID, &rule.CreatedAt)

	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}

	return nil
}

// ListByRecruiter returns the recruiter's active rules.
func (r *RuleRepository) ListByRecruiter(ctx context.Context, recruiterID int64) ([]*model.AvailabilityRule, error) {
	const q = `
		SELECT id, recruiter_id, weekday, start_minute, end_minute, slot_minutes, active, created_at
		FROM availability_rules
		WHERE recruiter_id = $1 AND active
		ORDER BY weekday, start_minute
	`

	rows, err := query(ctx, r.pool, q, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// ListActive returns all active rules, for the background slot generator.
func (r *RuleRepository) ListActive(ctx context.Context) ([]*model.AvailabilityRule, error) {
	const q = `
		SELECT id, recruiter_id, weekday, start_minute, end_minute, slot_minutes, active, created_at
		FROM availability_rules
		WHERE active
		ORDER BY recruiter_id, weekday, start_minute
	`

	rows, err := query(ctx, r.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// Deactivate turns a rule off without deleting its history.
func (r *RuleRepository) Deactivate(ctx context.Context, recruiterID, ruleID int64) error {
	const q = `
		UPDATE availability_rules
		SET active = false
		WHERE id = $1 AND recruiter_id = $2
	`

	tag, err := exec(ctx, r.pool, q, ruleID, recruiterID)
	if err != nil {
		return fmt.Errorf("deactivate rule: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrSlotNotFound
	}

	return nil
}

func scanRules(rows pgx.Rows) ([]*model.AvailabilityRule, error) {
	var rules []*model.AvailabilityRule
	for rows.Next() {
		var rule model.AvailabilityRule
		var weekday int
		err := rows.Scan(
			&rule.ID,
			&rule.RecruiterID,
			&weekday,
			&rule.StartMinute,
			&rule.EndMinute,
			&rule.SlotMinutes,
			&rule.Active,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Weekday = time.Weekday(weekday)
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}
