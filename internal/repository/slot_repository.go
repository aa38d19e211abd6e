package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentbridge/interview-scheduler/internal/model"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// WithTx runs fn inside a transaction carried on the context.
func (r *SlotRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.pool, fn)
}

// Create inserts a new pending slot. The unique index on
// (recruiter_id, start_time) turns duplicate declarations into
// model.ErrSlotConflict.
func (r *SlotRepository) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	const q = `
		INSERT INTO availability_slots (recruiter_id, start_time, duration_minutes, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := queryRow(ctx, r.pool, q,
		slot.RecruiterID,
		slot.StartTime,
		slot.DurationMinutes,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlotConflict
		}
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID returns the slot or model.ErrSlotNotFound.
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.AvailabilitySlot, error) {
	const q = `
		SELECT id, recruiter_id, start_time, duration_minutes, status, created_at
		FROM availability_slots
		WHERE id = $1
	`

	var slot model.AvailabilitySlot
	err := queryRow(ctx, r.pool, q, id).Scan(
		&slot.ID,
		&slot.RecruiterID,
		&slot.StartTime,
		&slot.DurationMinutes,
		&slot.Status,
		&slot.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return &slot, nil
}

// FindPending returns the pending slot at (recruiterID, startTime), or nil
// when no such slot exists.
func (r *SlotRepository) FindPending(ctx context.Context, recruiterID int64, startTime time.Time) (*model.AvailabilitySlot, error) {
	const q = `
		SELECT id, recruiter_id, start_time, duration_minutes, status, created_at
		FROM availability_slots
		WHERE recruiter_id = $1 AND start_time = $2 AND status = 'pending'
	`

	var slot model.AvailabilitySlot
	err := queryRow(ctx, r.pool, q, recruiterID, startTime).Scan(
		&slot.ID,
		&slot.RecruiterID,
		&slot.StartTime,
		&slot.DurationMinutes,
		&slot.Status,
		&slot.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending slot: %w", err)
	}

	return &slot, nil
}

// ListByRecruiter returns the recruiter's slots in [from, to), optionally
// filtered by status, ordered by start time.
func (r *SlotRepository) ListByRecruiter(ctx context.Context, recruiterID int64, from, to time.Time, status model.SlotStatus) ([]*model.AvailabilitySlot, error) {
	q := `
		SELECT id, recruiter_id, start_time, duration_minutes, status, created_at
		FROM availability_slots
		WHERE recruiter_id = $1
		  AND start_time >= $2
		  AND start_time < $3
	`
	args := []any{recruiterID, from, to}
	if status != "" {
		q += ` AND status = $4`
		args = append(args, status)
	}
	q += ` ORDER BY start_time`

	rows, err := query(ctx, r.pool, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.AvailabilitySlot
	for rows.Next() {
		var slot model.AvailabilitySlot
		err := rows.Scan(
			&slot.ID,
			&slot.RecruiterID,
			&slot.StartTime,
			&slot.DurationMinutes,
			&slot.Status,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, rows.Err()
}

// Book flips the slot pending→booked. The WHERE clause is the
// compare-and-swap: zero rows affected means the race was lost.
func (r *SlotRepository) Book(ctx context.Context, slotID int64) error {
	const q = `
		UPDATE availability_slots
		SET status = 'booked'
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := exec(ctx, r.pool, q, slotID)
	if err != nil {
		return fmt.Errorf("book slot: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrSlotUnavailable
	}

	return nil
}

// Cancel flips the slot pending→cancelled. A booked slot cannot be
// cancelled here; its meeting must be cancelled first and the slot stays
// consumed as a historical record.
func (r *SlotRepository) Cancel(ctx context.Context, slotID int64) error {
	const q = `
		UPDATE availability_slots
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := exec(ctx, r.pool, q, slotID)
	if err != nil {
		return fmt.Errorf("cancel slot: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish missing from non-pending for the caller.
		if _, err := r.GetByID(ctx, slotID); err != nil {
			return err
		}
		return model.ErrInvalidState
	}

	return nil
}

// Exists reports whether any slot occupies (recruiterID, startTime).
func (r *SlotRepository) Exists(ctx context.Context, recruiterID int64, startTime time.Time) (bool, error) {
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM availability_slots
			WHERE recruiter_id = $1 AND start_time = $2
		)
	`

	var exists bool
	if err := queryRow(ctx, r.pool, q, recruiterID, startTime).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot exists: %w", err)
	}

	return exists, nil
}
