package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/talentbridge/interview-scheduler/internal/calendar"
	"github.com/talentbridge/interview-scheduler/internal/clock"
	"github.com/talentbridge/interview-scheduler/internal/events"
	"github.com/talentbridge/interview-scheduler/internal/model"
	"github.com/talentbridge/interview-scheduler/internal/roster"
	"go.uber.org/zap"
)

// SlotStore is the slot persistence surface the booking engine needs.
type SlotStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindPending(ctx context.Context, recruiterID int64, startTime time.Time) (*model.AvailabilitySlot, error)
	Book(ctx context.Context, slotID int64) error
	ListByRecruiter(ctx context.Context, recruiterID int64, from, to time.Time, status model.SlotStatus) ([]*model.AvailabilitySlot, error)
}

// MeetingWriter is the meeting persistence surface the booking engine needs.
type MeetingWriter interface {
	Create(ctx context.Context, m *model.Meeting) error
	ListBookedIntervals(ctx context.Context, recruiterID int64, from, to time.Time) ([]model.Interval, error)
	AttachLink(ctx context.Context, id int64, link string) error
}

// RuleReader lists a recruiter's active working-hours rules.
type RuleReader interface {
	ListByRecruiter(ctx context.Context, recruiterID int64) ([]*model.AvailabilityRule, error)
}

// BookingService performs the atomic "reserve time → create meeting"
// transaction and computes bookable start times. At most one caller ever
// wins a given (recruiter, startTime): slot-backed reservations CAS the slot
// row pending→booked, direct bookings rely on the unique index on
// (recruiter_id, scheduled_time). Both are enforced at the storage layer.
type BookingService struct {
	slots    SlotStore
	meetings MeetingWriter
	rules    RuleReader
	cal      calendar.Provider
	roster   roster.Service
	clk      clock.Clock
	bus      *events.Bus
	cache    *AvailabilityCache
	logger   *zap.Logger

	reserveTimeout time.Duration
	inviteTimeout  time.Duration
}

const (
	defaultReserveTimeout = 5 * time.Second
	defaultInviteTimeout  = 10 * time.Second
)

func NewBookingService(
	slots SlotStore,
	meetings MeetingWriter,
	rules RuleReader,
	cal calendar.Provider,
	rosterSvc roster.Service,
	clk clock.Clock,
	bus *events.Bus,
	cache *AvailabilityCache,
	logger *zap.Logger,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		slots:          slots,
		meetings:       meetings,
		rules:          rules,
		cal:            cal,
		roster:         rosterSvc,
		clk:            clk,
		bus:            bus,
		cache:          cache,
		logger:         logger,
		reserveTimeout: defaultReserveTimeout,
		inviteTimeout:  defaultInviteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type BookingOption func(*BookingService)

// WithReserveTimeout bounds how long a reservation may wait for commit.
func WithReserveTimeout(d time.Duration) BookingOption {
	return func(s *BookingService) {
		if d > 0 {
			s.reserveTimeout = d
		}
	}
}

type ReserveInput struct {
	RecruiterID     int64
	StudentID       int64
	StartTime       time.Time
	DurationMinutes int
	Title           string
	Actor           model.Actor
}

// Reserve books the requested time for the student. If a pending slot covers
// (recruiterID, startTime) it is consumed; otherwise the time is validated as
// a direct booking against the recruiter's working hours. On success the
// calendar invite is requested asynchronously and its failure never rolls
// the reservation back.
func (s *BookingService) Reserve(ctx context.Context, in ReserveInput) (*model.Meeting, error) {
	now := s.clk.Now()

	if !in.StartTime.After(now) {
		return nil, fmt.Errorf("%w: start time is in the past", model.ErrInvalidState)
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = model.SlotGranularityMinutes
	}

	meeting := &model.Meeting{
		RecruiterID:     in.RecruiterID,
		StudentID:       in.StudentID,
		ScheduledTime:   in.StartTime,
		DurationMinutes: in.DurationMinutes,
		Title:           in.Title,
		Status:          model.MeetingStatusScheduled,
	}
	s.fillDisplayNames(ctx, meeting)

	ctx, cancel := context.WithTimeout(ctx, s.reserveTimeout)
	defer cancel()

	err := s.slots.WithTx(ctx, func(txCtx context.Context) error {
		slot, err := s.slots.FindPending(txCtx, in.RecruiterID, in.StartTime)
		if err != nil {
			return err
		}

		if slot != nil {
			if err := s.slots.Book(txCtx, slot.ID); err != nil {
				return err
			}
			meeting.SlotID = &slot.ID
			meeting.DurationMinutes = slot.DurationMinutes
		} else {
			ok, err := s.directBookable(txCtx, in.RecruiterID, in.StartTime, in.DurationMinutes)
			if err != nil {
				return err
			}
			if !ok {
				return model.ErrSlotUnavailable
			}
		}

		return s.meetings.Create(txCtx, meeting)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, model.ErrReserveTimeout
		}
		return nil, err
	}

	s.cache.InvalidateDay(in.RecruiterID, in.StartTime)
	s.bus.Publish(events.EventMeetingCreated, events.Payload{
		"meeting_id":   meeting.ID,
		"recruiter_id": meeting.RecruiterID,
		"start_time":   meeting.ScheduledTime,
	})

	s.logger.Info("Meeting reserved",
		zap.Int64("meeting_id", meeting.ID),
		zap.Int64("recruiter_id", in.RecruiterID),
		zap.Int64("student_id", in.StudentID),
		zap.Time("start_time", in.StartTime),
		zap.Bool("slot_backed", meeting.SlotID != nil),
		zap.Int64("actor_id", in.Actor.ID),
		zap.String("actor_role", string(in.Actor.Role)),
	)

	go s.requestInvite(*meeting)

	return meeting, nil
}

// GetAvailableSlots returns the bookable [start, end) intervals for the
// recruiter on the given day: declared pending slots plus, when the
// recruiter has working-hours rules, the free direct-booking grid. Results
// are cached for a short TTL only; reservation correctness never depends on
// this projection.
func (s *BookingService) GetAvailableSlots(ctx context.Context, recruiterID int64, date time.Time) ([]model.Interval, error) {
	if cached, ok := s.cache.Get(recruiterID, date); ok {
		return cached, nil
	}

	now := s.clk.Now()
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	pending, err := s.slots.ListByRecruiter(ctx, recruiterID, dayStart, dayEnd, model.SlotStatusPending)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]bool)
	var available []model.Interval
	for _, slot := range pending {
		if !slot.StartTime.After(now) {
			continue
		}
		available = append(available, model.Interval{Start: slot.StartTime, End: slot.EndTime()})
		seen[slot.StartTime.UTC()] = true
	}

	grid, err := s.directGrid(ctx, recruiterID, dayStart, dayEnd, now)
	if err != nil {
		return nil, err
	}
	for _, iv := range grid {
		if seen[iv.Start.UTC()] {
			continue
		}
		available = append(available, iv)
	}

	sortIntervals(available)
	s.cache.Add(recruiterID, date, available)

	return available, nil
}

// directBookable validates a candidate start against working hours, booked
// meetings and external busy windows. Runs inside the reservation
// transaction; the unique meeting index remains the final arbiter.
func (s *BookingService) directBookable(ctx context.Context, recruiterID int64, start time.Time, minutes int) (bool, error) {
	candidate := model.Interval{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}

	rules, err := s.rules.ListByRecruiter(ctx, recruiterID)
	if err != nil {
		return false, err
	}

	inWindow := false
	for _, rule := range rules {
		ws, we, ok := rule.WindowOn(start.UTC())
		if !ok {
			continue
		}
		if !candidate.Start.Before(ws) && !candidate.End.After(we) {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return false, nil
	}

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	booked, err := s.meetings.ListBookedIntervals(ctx, recruiterID, dayStart, dayEnd)
	if err != nil {
		return false, err
	}
	for _, iv := range booked {
		if candidate.Overlaps(iv) {
			return false, nil
		}
	}

	busy, err := s.cal.BusyIntervals(ctx, recruiterID, dayStart, dayEnd)
	if err != nil {
		// Without the external calendar we cannot prove the window is free,
		// so direct bookings fail closed.
		return false, fmt.Errorf("%w: busy intervals unavailable: %v", model.ErrExternalService, err)
	}
	for _, iv := range busy {
		if candidate.Overlaps(iv) {
			return false, nil
		}
	}

	return true, nil
}

// directGrid enumerates free fixed-size candidate intervals across the
// recruiter's working hours for the day.
func (s *BookingService) directGrid(ctx context.Context, recruiterID int64, dayStart, dayEnd, now time.Time) ([]model.Interval, error) {
	rules, err := s.rules.ListByRecruiter(ctx, recruiterID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}

	booked, err := s.meetings.ListBookedIntervals(ctx, recruiterID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	busy, err := s.cal.BusyIntervals(ctx, recruiterID, dayStart, dayEnd)
	if err != nil {
		// The projection degrades to declared slots only; reservation still
		// re-validates, so this is safe.
		s.logger.Warn("Busy intervals unavailable, omitting direct-booking grid",
			zap.Int64("recruiter_id", recruiterID),
			zap.Error(err),
		)
		return nil, nil
	}

	blocked := append(booked, busy...)

	var grid []model.Interval
	for _, rule := range rules {
		ws, we, ok := rule.WindowOn(dayStart)
		if !ok {
			continue
		}

		step := time.Duration(rule.SlotMinutes) * time.Minute
		if step <= 0 {
			step = model.SlotGranularityMinutes * time.Minute
		}

		for cur := ws; !cur.Add(step).After(we); cur = cur.Add(step) {
			if !cur.After(now) {
				continue
			}
			candidate := model.Interval{Start: cur, End: cur.Add(step)}
			if overlapsAny(candidate, blocked) {
				continue
			}
			grid = append(grid, candidate)
		}
	}

	return grid, nil
}

// requestInvite asks the calendar provider for a meeting link after the
// reservation committed. Fire-and-forget: on failure the meeting stays
// scheduled without a link and the backfill worker retries later.
func (s *BookingService) requestInvite(meeting model.Meeting) {
	ctx, cancel := context.WithTimeout(context.Background(), s.inviteTimeout)
	defer cancel()

	link, err := s.cal.CreateInvite(ctx, calendar.InviteRequest{
		MeetingID:       meeting.ID,
		RecruiterID:     meeting.RecruiterID,
		StudentID:       meeting.StudentID,
		StartTime:       meeting.ScheduledTime,
		DurationMinutes: meeting.DurationMinutes,
		Title:           meeting.Title,
		RequestID:       calendar.InviteRequestID(meeting.ID),
	})
	if err != nil {
		s.logger.Warn("Calendar invite failed, leaving to backfill",
			zap.Int64("meeting_id", meeting.ID),
			zap.Error(err),
		)
		return
	}

	if err := s.meetings.AttachLink(ctx, meeting.ID, link); err != nil {
		s.logger.Warn("Failed to attach meeting link",
			zap.Int64("meeting_id", meeting.ID),
			zap.Error(err),
		)
	}
}

// fillDisplayNames denormalizes participant names from the roster service.
// Best-effort: lookups never block or fail a reservation.
func (s *BookingService) fillDisplayNames(ctx context.Context, meeting *model.Meeting) {
	if s.roster == nil {
		return
	}

	if student, err := s.roster.Student(ctx, meeting.StudentID); err == nil && student != nil {
		meeting.StudentName = student.Name
	}
	if recruiter, err := s.roster.Recruiter(ctx, meeting.RecruiterID); err == nil && recruiter != nil {
		meeting.RecruiterName = recruiter.Name
	}
}

func overlapsAny(candidate model.Interval, blocked []model.Interval) bool {
	for _, iv := range blocked {
		if candidate.Overlaps(iv) {
			return true
		}
	}
	return false
}

func sortIntervals(ivs []model.Interval) {
	sort.Slice(ivs, func(i, j int) bool {
		return ivs[i].Start.Before(ivs[j].Start)
	})
}
