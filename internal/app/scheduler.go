package app

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/talentbridge/interview-scheduler/internal/calendar"
	"github.com/talentbridge/interview-scheduler/internal/model"
	"go.uber.org/zap"
)

// SlotGenerator materializes pending slots from recurring availability
// rules.
type SlotGenerator interface {
	GenerateSlots(ctx context.Context, weeksAhead int) (int, error)
}

// BackfillStore lists committed meetings still missing their calendar link
// and attaches links once obtained.
type BackfillStore interface {
	ListMissingLinks(ctx context.Context, limit int) ([]*model.Meeting, error)
	AttachLink(ctx context.Context, id int64, link string) error
}

// Scheduler runs the background tasks: daily slot generation from rules and
// the calendar-invite backfill loop.
type Scheduler struct {
	generator  SlotGenerator
	backfill   BackfillStore
	cal        calendar.Provider
	logger     *zap.Logger
	weeksAhead int
	interval   time.Duration
	newBackoff func() retry.Backoff
	stopChan   chan struct{}
}

const backfillBatchSize = 50

func NewScheduler(generator SlotGenerator, backfill BackfillStore, cal calendar.Provider, weeksAhead int, backfillInterval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		generator:  generator,
		backfill:   backfill,
		cal:        cal,
		logger:     logger,
		weeksAhead: weeksAhead,
		interval:   backfillInterval,
		newBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(time.Second))
		},
		stopChan: make(chan struct{}),
	}
}

// Start launches the background tasks.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runSlotGenerationTask(ctx)
	go s.runBackfillTask(ctx)
}

// Stop stops the background tasks.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runSlotGenerationTask periodically generates slots from availability
// rules, first run at startup so slots are always available weeks ahead.
func (s *Scheduler) runSlotGenerationTask(ctx context.Context) {
	s.generateSlots(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.generateSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot generation task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot generation task cancelled")
			return
		}
	}
}

func (s *Scheduler) generateSlots(ctx context.Context) {
	count, err := s.generator.GenerateSlots(ctx, s.weeksAhead)
	if err != nil {
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	s.logger.Info("Slot generation completed", zap.Int("created", count))
}

// runBackfillTask periodically attaches calendar links to meetings whose
// fire-and-forget invite request failed at reservation time.
func (s *Scheduler) runBackfillTask(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.backfillLinks(ctx)
		case <-s.stopChan:
			s.logger.Info("Invite backfill task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Invite backfill task cancelled")
			return
		}
	}
}

func (s *Scheduler) backfillLinks(ctx context.Context) {
	meetings, err := s.backfill.ListMissingLinks(ctx, backfillBatchSize)
	if err != nil {
		s.logger.Error("Failed to list meetings missing links", zap.Error(err))
		return
	}

	for _, meeting := range meetings {
		if err := s.attachLink(ctx, meeting); err != nil {
			s.logger.Warn("Invite backfill failed, will retry next cycle",
				zap.Int64("meeting_id", meeting.ID),
				zap.Error(err),
			)
		}
	}
}

// attachLink retries invite creation with capped exponential backoff before
// giving the meeting back to the next backfill cycle.
func (s *Scheduler) attachLink(ctx context.Context, meeting *model.Meeting) error {
	// One idempotency key per meeting, reused across every attempt: a
	// timed-out-but-committed invite must not be duplicated on retry.
	req := calendar.InviteRequest{
		MeetingID:       meeting.ID,
		RecruiterID:     meeting.RecruiterID,
		StudentID:       meeting.StudentID,
		StartTime:       meeting.ScheduledTime,
		DurationMinutes: meeting.DurationMinutes,
		Title:           meeting.Title,
		RequestID:       calendar.InviteRequestID(meeting.ID),
	}

	var link string
	err := retry.Do(ctx, s.newBackoff(), func(ctx context.Context) error {
		var err error
		link, err = s.cal.CreateInvite(ctx, req)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.backfill.AttachLink(ctx, meeting.ID, link); err != nil {
		return err
	}

	s.logger.Info("Calendar link backfilled",
		zap.Int64("meeting_id", meeting.ID),
	)

	return nil
}
