package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentbridge/interview-scheduler/internal/model"
)

type MeetingRepository struct {
	pool *pgxpool.Pool
}

func NewMeetingRepository(pool *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

const meetingColumns = `id, recruiter_id, student_id, slot_id, scheduled_time, duration_minutes,
		title, status, COALESCE(external_link, ''), COALESCE(student_name, ''),
		COALESCE(recruiter_name, ''), created_at, updated_at`

func scanMeeting(row pgx.Row, m *model.Meeting) error {
	return row.Scan(
		&m.ID,
		&m.RecruiterID,
		&m.StudentID,
		&m.SlotID,
		&m.ScheduledTime,
		&m.DurationMinutes,
		&m.Title,
		&m.Status,
		&m.ExternalLink,
		&m.StudentName,
		&m.RecruiterName,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}

// Create inserts a meeting. The unique index on
// (recruiter_id, scheduled_time) is the linearization point for direct
// bookings: a lost race surfaces as model.ErrSlotUnavailable.
func (r *MeetingRepository) Create(ctx context.Context, m *model.Meeting) error {
	const q = `
		INSERT INTO meetings (recruiter_id, student_id, slot_id, scheduled_time, duration_minutes,
			title, status, student_name, recruiter_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := queryRow(ctx, r.pool, q,
		m.RecruiterID,
		m.StudentID,
		m.SlotID,
		m.ScheduledTime,
		m.DurationMinutes,
		m.Title,
		m.Status,
		nullable(m.StudentName),
		nullable(m.RecruiterName),
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlotUnavailable
		}
		return fmt.Errorf("create meeting: %w", err)
	}

	return nil
}

// GetByID returns the meeting or model.ErrMeetingNotFound.
func (r *MeetingRepository) GetByID(ctx context.Context, id int64) (*model.Meeting, error) {
	q := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`

	var m model.Meeting
	if err := scanMeeting(queryRow(ctx, r.pool, q, id), &m); err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("get meeting by id: %w", err)
	}

	return &m, nil
}

// UpdateStatus advances the meeting status with a compare-and-swap on the
// current status. Zero rows affected means the meeting moved concurrently;
// the caller re-reads and re-validates.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id int64, from, to model.MeetingStatus) error {
	const q = `
		UPDATE meetings
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`

	tag, err := exec(ctx, r.pool, q, to, id, from)
	if err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrInvalidTransition
	}

	return nil
}

// List returns meetings matching the filter, newest scheduled first for
// historical filters and soonest first for upcoming.
func (r *MeetingRepository) List(ctx context.Context, filter model.MeetingFilter, now time.Time) ([]*model.Meeting, error) {
	q := `SELECT ` + meetingColumns + ` FROM meetings`
	var args []any

	switch filter {
	case model.MeetingFilterUpcoming:
		q += ` WHERE scheduled_time >= $1 AND status IN ('scheduled', 'confirmed') ORDER BY scheduled_time`
		args = append(args, now)
	case model.MeetingFilterCompleted:
		q += ` WHERE status = 'completed' ORDER BY scheduled_time DESC`
	case model.MeetingFilterCancelled:
		q += ` WHERE status = 'cancelled' ORDER BY scheduled_time DESC`
	default:
		q += ` ORDER BY scheduled_time DESC`
	}

	rows, err := query(ctx, r.pool, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		var m model.Meeting
		if err := scanMeeting(rows, &m); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, &m)
	}

	return meetings, rows.Err()
}

// ListBookedIntervals returns the occupied intervals of a recruiter's
// non-cancelled meetings in [from, to), for availability computation.
func (r *MeetingRepository) ListBookedIntervals(ctx context.Context, recruiterID int64, from, to time.Time) ([]model.Interval, error) {
	const q = `
		SELECT scheduled_time, duration_minutes
		FROM meetings
		WHERE recruiter_id = $1
		  AND scheduled_time >= $2
		  AND scheduled_time < $3
		  AND status IN ('scheduled', 'confirmed')
		ORDER BY scheduled_time
	`

	rows, err := query(ctx, r.pool, q, recruiterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list booked intervals: %w", err)
	}
	defer rows.Close()

	var intervals []model.Interval
	for rows.Next() {
		var start time.Time
		var minutes int
		if err := rows.Scan(&start, &minutes); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		intervals = append(intervals, model.Interval{
			Start: start,
			End:   start.Add(time.Duration(minutes) * time.Minute),
		})
	}

	return intervals, rows.Err()
}

// ListMissingLinks returns committed meetings still waiting for their
// external calendar link, oldest first, for the backfill worker.
func (r *MeetingRepository) ListMissingLinks(ctx context.Context, limit int) ([]*model.Meeting, error) {
	q := `SELECT ` + meetingColumns + `
		FROM meetings
		WHERE external_link IS NULL
		  AND status IN ('scheduled', 'confirmed')
		ORDER BY created_at
		LIMIT $1`

	rows, err := query(ctx, r.pool, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list meetings missing links: %w", err)
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		var m model.Meeting
		if err := scanMeeting(rows, &m); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, &m)
	}

	return meetings, rows.Err()
}

// AttachLink records the external calendar link for a meeting.
func (r *MeetingRepository) AttachLink(ctx context.Context, id int64, link string) error {
	const q = `
		UPDATE meetings
		SET external_link = $1, updated_at = now()
		WHERE id = $2
	`

	tag, err := exec(ctx, r.pool, q, link, id)
	if err != nil {
		return fmt.Errorf("attach meeting link: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrMeetingNotFound
	}

	return nil
}

// Stats aggregates the recruiter dashboard counters and the next upcoming
// meeting.
func (r *MeetingRepository) Stats(ctx context.Context, recruiterID int64, now time.Time) (*model.MeetingStats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE scheduled_time >= $2 AND status IN ('scheduled', 'confirmed')),
			COUNT(*) FILTER (WHERE scheduled_time >= $3 AND scheduled_time < $4 AND status IN ('scheduled', 'confirmed')),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM meetings
		WHERE recruiter_id = $1
	`

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var stats model.MeetingStats
	err := queryRow(ctx, r.pool, q, recruiterID, now, dayStart, dayEnd).Scan(
		&stats.Total,
		&stats.Upcoming,
		&stats.Today,
		&stats.Completed,
	)
	if err != nil {
		return nil, fmt.Errorf("meeting stats: %w", err)
	}

	next, err := r.nextMeeting(ctx, recruiterID, now)
	if err != nil {
		return nil, err
	}
	stats.NextMeeting = next

	return &stats, nil
}

func (r *MeetingRepository) nextMeeting(ctx context.Context, recruiterID int64, now time.Time) (*model.Meeting, error) {
	q := `SELECT ` + meetingColumns + `
		FROM meetings
		WHERE recruiter_id = $1
		  AND scheduled_time >= $2
		  AND status IN ('scheduled', 'confirmed')
		ORDER BY scheduled_time
		LIMIT 1`

	var m model.Meeting
	if err := scanMeeting(queryRow(ctx, r.pool, q, recruiterID, now), &m); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("next meeting: %w", err)
	}

	return &m, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
