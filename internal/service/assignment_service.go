package service

import (
	"context"
	"fmt"

	"github.com/talentbridge/interview-scheduler/internal/model"
	"github.com/talentbridge/interview-scheduler/internal/roster"
	"go.uber.org/zap"
)

// SlotReader fetches a slot for assignment validation.
type SlotReader interface {
	GetByID(ctx context.Context, id int64) (*model.AvailabilitySlot, error)
}

// Reserver is the booking engine surface the assignment workflow delegates
// to.
type Reserver interface {
	Reserve(ctx context.Context, in ReserveInput) (*model.Meeting, error)
}

// AssignmentService is the admin-only matching path: it pairs a waitlisted
// student with a pending slot through the same atomic reservation as the
// public booking flow, so two admins (or an admin and a student) racing for
// one slot still produce exactly one meeting.
type AssignmentService struct {
	slots   SlotReader
	booking Reserver
	roster  roster.Service
	logger  *zap.Logger
}

func NewAssignmentService(slots SlotReader, booking Reserver, rosterSvc roster.Service, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{
		slots:   slots,
		booking: booking,
		roster:  rosterSvc,
		logger:  logger,
	}
}

// ConfirmAssignment books the slot for the student. Fails with
// model.ErrSlotUnavailable when another request won the race; the admin UI
// must refresh its pending-slot list on that error rather than retry.
func (s *AssignmentService) ConfirmAssignment(ctx context.Context, actor model.Actor, slotID, studentID int64, agenda string) (*model.Meeting, error) {
	if actor.Role != model.ActorRoleAdmin {
		return nil, fmt.Errorf("%w: assignment requires an admin actor", model.ErrPermissionDenied)
	}

	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != model.SlotStatusPending {
		return nil, model.ErrSlotUnavailable
	}

	onWaitlist, err := s.roster.OnWaitlist(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !onWaitlist {
		return nil, model.ErrStudentNotOnWaitlist
	}

	meeting, err := s.booking.Reserve(ctx, ReserveInput{
		RecruiterID:     slot.RecruiterID,
		StudentID:       studentID,
		StartTime:       slot.StartTime,
		DurationMinutes: slot.DurationMinutes,
		Title:           agenda,
		Actor:           actor,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assignment confirmed",
		zap.Int64("slot_id", slotID),
		zap.Int64("student_id", studentID),
		zap.Int64("meeting_id", meeting.ID),
		zap.Int64("admin_id", actor.ID),
	)

	return meeting, nil
}
