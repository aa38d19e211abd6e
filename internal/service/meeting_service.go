package service

import (
	"context"
	"fmt"
	"time"

	"github.com/talentbridge/interview-scheduler/internal/clock"
	"github.com/talentbridge/interview-scheduler/internal/events"
	"github.com/talentbridge/interview-scheduler/internal/model"
	"go.uber.org/zap"
)

// MeetingStore is the meeting persistence surface for lifecycle management
// and read projections.
type MeetingStore interface {
	GetByID(ctx context.Context, id int64) (*model.Meeting, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.MeetingStatus) error
	List(ctx context.Context, filter model.MeetingFilter, now time.Time) ([]*model.Meeting, error)
	Stats(ctx context.Context, recruiterID int64, now time.Time) (*model.MeetingStats, error)
}

// MeetingService applies lifecycle transitions to existing meetings and
// serves the list/stats projections. Status changes are the only mutation
// path for a meeting after creation.
type MeetingService struct {
	meetings MeetingStore
	clk      clock.Clock
	bus      *events.Bus
	logger   *zap.Logger
}

func NewMeetingService(meetings MeetingStore, clk clock.Clock, bus *events.Bus, logger *zap.Logger) *MeetingService {
	return &MeetingService{
		meetings: meetings,
		clk:      clk,
		bus:      bus,
		logger:   logger,
	}
}

// ApplyStatus validates and applies a status transition:
//
//	scheduled → confirmed → completed
//	scheduled|confirmed → cancelled
//	confirmed → no_show
//
// completed and no_show additionally require the meeting time to have
// passed. Illegal transitions fail without mutating the store. Cancelling a
// meeting does not release its slot: the slot stays booked as a historical
// record and the recruiter declares a new slot at another time to reopen
// capacity.
func (s *MeetingService) ApplyStatus(ctx context.Context, actor model.Actor, meetingID int64, newStatus model.MeetingStatus) (*model.Meeting, error) {
	if !model.ValidMeetingStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidTransition, newStatus)
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(meeting.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s → %s", model.ErrInvalidTransition, meeting.Status, newStatus)
	}

	switch newStatus {
	case model.MeetingStatusCompleted, model.MeetingStatusNoShow:
		if s.clk.Now().Before(meeting.EndTime()) {
			return nil, fmt.Errorf("%w: meeting has not finished yet", model.ErrInvalidState)
		}
	}

	// CAS on the current status: a concurrent transition makes this a no-op
	// and the caller must re-read.
	if err := s.meetings.UpdateStatus(ctx, meetingID, meeting.Status, newStatus); err != nil {
		return nil, err
	}

	previous := meeting.Status
	meeting.Status = newStatus

	s.bus.Publish(events.EventMeetingStatusChanged, events.Payload{
		"meeting_id":   meeting.ID,
		"recruiter_id": meeting.RecruiterID,
		"start_time":   meeting.ScheduledTime,
		"status":       string(newStatus),
	})

	s.logger.Info("Meeting status changed",
		zap.Int64("meeting_id", meetingID),
		zap.String("from", string(previous)),
		zap.String("to", string(newStatus)),
		zap.Int64("actor_id", actor.ID),
		zap.String("actor_role", string(actor.Role)),
	)

	return meeting, nil
}

// GetMeeting returns a single meeting.
func (s *MeetingService) GetMeeting(ctx context.Context, meetingID int64) (*model.Meeting, error) {
	return s.meetings.GetByID(ctx, meetingID)
}

// ListMeetings returns meetings matching the filter.
func (s *MeetingService) ListMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	switch filter {
	case "", model.MeetingFilterAll:
		filter = model.MeetingFilterAll
	case model.MeetingFilterUpcoming, model.MeetingFilterCompleted, model.MeetingFilterCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", model.ErrInvalidState, filter)
	}
	return s.meetings.List(ctx, filter, s.clk.Now())
}

// GetStats returns the recruiter dashboard aggregates.
func (s *MeetingService) GetStats(ctx context.Context, recruiterID int64) (*model.MeetingStats, error) {
	return s.meetings.Stats(ctx, recruiterID, s.clk.Now())
}
