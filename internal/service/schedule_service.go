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

// SlotAdmin is the slot persistence surface for recruiter-facing schedule
// management.
type SlotAdmin interface {
	Create(ctx context.Context, slot *model.AvailabilitySlot) error
	GetByID(ctx context.Context, id int64) (*model.AvailabilitySlot, error)
	Cancel(ctx context.Context, slotID int64) error
	ListByRecruiter(ctx context.Context, recruiterID int64, from, to time.Time, status model.SlotStatus) ([]*model.AvailabilitySlot, error)
	Exists(ctx context.Context, recruiterID int64, startTime time.Time) (bool, error)
}

// RuleStore is the availability-rule persistence surface.
type RuleStore interface {
	Create(ctx context.Context, rule *model.AvailabilityRule) error
	ListByRecruiter(ctx context.Context, recruiterID int64) ([]*model.AvailabilityRule, error)
	ListActive(ctx context.Context) ([]*model.AvailabilityRule, error)
	Deactivate(ctx context.Context, recruiterID, ruleID int64) error
}

// ScheduleService manages recruiter availability: declared slots and
// recurring working-hours rules.
type ScheduleService struct {
	slots  SlotAdmin
	rules  RuleStore
	clk    clock.Clock
	bus    *events.Bus
	logger *zap.Logger
}

func NewScheduleService(slots SlotAdmin, rules RuleStore, clk clock.Clock, bus *events.Bus, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		slots:  slots,
		rules:  rules,
		clk:    clk,
		bus:    bus,
		logger: logger,
	}
}

// DeclareSlot publishes a new pending availability slot. Duplicate
// (recruiter, startTime) declarations fail with model.ErrSlotConflict.
func (s *ScheduleService) DeclareSlot(ctx context.Context, actor model.Actor, recruiterID int64, startTime time.Time, durationMinutes int) (*model.AvailabilitySlot, error) {
	if durationMinutes <= 0 || durationMinutes%model.SlotGranularityMinutes != 0 {
		return nil, fmt.Errorf("%w: duration must be a positive multiple of %d minutes",
			model.ErrInvalidState, model.SlotGranularityMinutes)
	}
	if !startTime.After(s.clk.Now()) {
		return nil, fmt.Errorf("%w: cannot declare a slot in the past", model.ErrInvalidState)
	}

	slot := &model.AvailabilitySlot{
		RecruiterID:     recruiterID,
		StartTime:       startTime,
		DurationMinutes: durationMinutes,
		Status:          model.SlotStatusPending,
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.bus.Publish(events.EventSlotDeclared, events.Payload{
		"slot_id":      slot.ID,
		"recruiter_id": slot.RecruiterID,
		"start_time":   slot.StartTime,
	})

	s.logger.Info("Slot declared",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("recruiter_id", recruiterID),
		zap.Time("start_time", startTime),
		zap.Int64("actor_id", actor.ID),
	)

	return slot, nil
}

// CancelSlot withdraws a pending slot. A booked slot cannot be cancelled;
// its meeting has to be cancelled first and the slot stays consumed.
func (s *ScheduleService) CancelSlot(ctx context.Context, actor model.Actor, slotID int64) error {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return err
	}

	if err := s.slots.Cancel(ctx, slotID); err != nil {
		return err
	}

	s.bus.Publish(events.EventSlotCancelled, events.Payload{
		"slot_id":      slot.ID,
		"recruiter_id": slot.RecruiterID,
		"start_time":   slot.StartTime,
	})

	s.logger.Info("Slot cancelled",
		zap.Int64("slot_id", slotID),
		zap.Int64("recruiter_id", slot.RecruiterID),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// ListSlots returns the recruiter's slots in [from, to), optionally filtered
// by status, ordered by start time.
func (s *ScheduleService) ListSlots(ctx context.Context, recruiterID int64, from, to time.Time, status model.SlotStatus) ([]*model.AvailabilitySlot, error) {
	if status != "" {
		switch status {
		case model.SlotStatusPending, model.SlotStatusBooked, model.SlotStatusCancelled:
		default:
			return nil, fmt.Errorf("%w: unknown slot status %q", model.ErrInvalidState, status)
		}
	}
	return s.slots.ListByRecruiter(ctx, recruiterID, from, to, status)
}

// DeclareRule adds a recurring weekly working-hours window.
func (s *ScheduleService) DeclareRule(ctx context.Context, actor model.Actor, rule *model.AvailabilityRule) (*model.AvailabilityRule, error) {
	if rule.StartMinute < 0 || rule.EndMinute > 24*60 || rule.StartMinute >= rule.EndMinute {
		return nil, fmt.Errorf("%w: rule window is empty or out of range", model.ErrInvalidState)
	}
	if rule.SlotMinutes <= 0 {
		rule.SlotMinutes = model.SlotGranularityMinutes
	}
	rule.Active = true

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Availability rule declared",
		zap.Int64("rule_id", rule.ID),
		zap.Int64("recruiter_id", rule.RecruiterID),
		zap.Int("weekday", int(rule.Weekday)),
		zap.Int64("actor_id", actor.ID),
	)

	return rule, nil
}

// ListRules returns the recruiter's active rules.
func (s *ScheduleService) ListRules(ctx context.Context, recruiterID int64) ([]*model.AvailabilityRule, error) {
	return s.rules.ListByRecruiter(ctx, recruiterID)
}

// DeactivateRule turns a recurring window off. Already-generated slots stay;
// the rule simply stops feeding the generator and the direct-booking grid.
func (s *ScheduleService) DeactivateRule(ctx context.Context, actor model.Actor, recruiterID, ruleID int64) error {
	if err := s.rules.Deactivate(ctx, recruiterID, ruleID); err != nil {
		return err
	}

	s.logger.Info("Availability rule deactivated",
		zap.Int64("rule_id", ruleID),
		zap.Int64("recruiter_id", recruiterID),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// GenerateSlots materializes pending slots from all active rules up to
// weeksAhead weeks out. Already-occupied (recruiter, startTime) pairs are
// skipped. Called by the background scheduler.
func (s *ScheduleService) GenerateSlots(ctx context.Context, weeksAhead int) (int, error) {
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	now := s.clk.Now()
	count := 0

	for _, rule := range rules {
		for day := 0; day < weeksAhead*7; day++ {
			date := now.AddDate(0, 0, day)
			ws, we, ok := rule.WindowOn(date)
			if !ok {
				continue
			}

			step := time.Duration(rule.SlotMinutes) * time.Minute
			for cur := ws; !cur.Add(step).After(we); cur = cur.Add(step) {
				if !cur.After(now) {
					continue
				}

				exists, err := s.slots.Exists(ctx, rule.RecruiterID, cur)
				if err != nil {
					s.logger.Warn("Failed to check slot existence",
						zap.Error(err),
						zap.Time("start_time", cur),
					)
					continue
				}
				if exists {
					continue
				}

				slot := &model.AvailabilitySlot{
					RecruiterID:     rule.RecruiterID,
					StartTime:       cur,
					DurationMinutes: rule.SlotMinutes,
					Status:          model.SlotStatusPending,
				}
				if err := s.slots.Create(ctx, slot); err != nil {
					// A concurrent generator or declaration may have won the
					// unique index; skip quietly.
					if err != model.ErrSlotConflict {
						s.logger.Warn("Failed to generate slot",
							zap.Error(err),
							zap.Time("start_time", cur),
						)
					}
					continue
				}
				count++
			}
		}
	}

	return count, nil
}
