package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/talentbridge/interview-scheduler/internal/calendar"
	"github.com/talentbridge/interview-scheduler/internal/clock"
	"github.com/talentbridge/interview-scheduler/internal/events"
	"github.com/talentbridge/interview-scheduler/internal/model"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type bookingFixture struct {
	svc      *BookingService
	slots    *fakeSlotStore
	meetings *fakeMeetingStore
	rules    *fakeRuleStore
	cal      *fakeCalendar
}

func newBookingFixture(t *testing.T, opts ...BookingOption) *bookingFixture {
	t.Helper()

	slots := newFakeSlotStore()
	meetings := newFakeMeetingStore()
	rules := newFakeRuleStore()
	cal := newFakeCalendar()

	svc := NewBookingService(
		slots, meetings, rules, cal, newFakeRoster(),
		clock.NewFixed(testNow), events.NewBus(),
		NewAvailabilityCache(time.Minute), testLogger(), opts...,
	)

	return &bookingFixture{svc: svc, slots: slots, meetings: meetings, rules: rules, cal: cal}
}

func declareTestSlot(t *testing.T, fx *bookingFixture, recruiterID int64, start time.Time) *model.AvailabilitySlot {
	t.Helper()

	slot := &model.AvailabilitySlot{
		RecruiterID:     recruiterID,
		StartTime:       start,
		DurationMinutes: 30,
		Status:          model.SlotStatusPending,
	}
	if err := fx.slots.Create(context.Background(), slot); err != nil {
		t.Fatalf("declare slot: %v", err)
	}
	return slot
}

func TestBookingService_Reserve(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	actor := model.Actor{ID: 7, Role: model.ActorRoleStudent}

	t.Run("consumes a pending slot", func(t *testing.T) {
		fx := newBookingFixture(t)
		slot := declareTestSlot(t, fx, 1, start)

		meeting, err := fx.svc.Reserve(context.Background(), ReserveInput{
			RecruiterID: 1, StudentID: 42, StartTime: start, Actor: actor,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if meeting.Status != model.MeetingStatusScheduled {
			t.Fatalf("expected status scheduled, got %s", meeting.Status)
		}
		if meeting.SlotID == nil || *meeting.SlotID != slot.ID {
			t.Fatalf("expected meeting backed by slot %d", slot.ID)
		}

		stored, err := fx.slots.GetByID(context.Background(), slot.ID)
		if err != nil {
			t.Fatalf("get slot: %v", err)
		}
		if stored.Status != model.SlotStatusBooked {
			t.Fatalf("expected slot booked, got %s", stored.Status)
		}
	})

	t.Run("rejects a start time in the past", func(t *testing.T) {
		fx := newBookingFixture(t)

		_, err := fx.svc.Reserve(context.Background(), ReserveInput{
			RecruiterID: 1, StudentID: 42, StartTime: testNow.Add(-time.Hour), Actor: actor,
		})
		if !errors.Is(err, model.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("rejects direct booking outside working hours", func(t *testing.T) {
		fx := newBookingFixture(t)

		_, err := fx.svc.Reserve(context.Background(), ReserveInput{
			RecruiterID: 1, StudentID: 42, StartTime: start, Actor: actor,
		})
		if !errors.Is(err, model.ErrSlotUnavailable) {
			t.Fatalf("expected ErrSlotUnavailable, got %v", err)
		}
	})

	t.Run("direct booking inside working hours succeeds", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.rules.Create(context.Background(), &model.AvailabilityRule{
			RecruiterID: 1,
			Weekday:     time.Monday, // 2025-03-10 is a Monday
			StartMinute: 9 * 60,
			EndMinute:   17 * 60,
			SlotMinutes: 30,
			Active:      true,
		})

		meeting, err := fx.svc.Reserve(context.Background(), ReserveInput{
			RecruiterID: 1, StudentID: 42, StartTime: start, Actor: actor,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if meeting.SlotID != nil {
			t.Fatalf("expected direct booking without backing slot")
		}
	})

	t.Run("direct booking rejects a busy calendar window", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.rules.Create(context.Background(), &model.AvailabilityRule{
			RecruiterID: 1, Weekday: time.Monday,
			StartMinute: 9 * 60, EndMinute: 17 * 60, SlotMinutes: 30, Active: true,
		})
		fx.cal.busy = []model.Interval{{Start: start, End: start.Add(time.Hour)}}

		_, err := fx.svc.Reserve(context.Background(), ReserveInput{
			RecruiterID: 1, StudentID: 42, StartTime: start, Actor: actor,
		})
		if !errors.Is(err, model.ErrSlotUnavailable) {
			t.Fatalf("expected ErrSlotUnavailable, got %v", err)
		}
	})

	t.Run("invite failure does not roll back the reservation", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.cal.inviteErr = errors.New("calendar down")
		declareTestSlot(t, fx, 1, start)

		meeting, err := fx.svc.Reserve(context.Background(), ReserveInput{
			RecruiterID: 1, StudentID: 42, StartTime: start, Actor: actor,
		})
		if err != nil {
			t.Fatalf("expected reservation to succeed, got %v", err)
		}

		select {
		case <-fx.cal.invoked:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected an invite attempt")
		}

		stored, err := fx.meetings.GetByID(context.Background(), meeting.ID)
		if err != nil {
			t.Fatalf("get meeting: %v", err)
		}
		if stored.Status != model.MeetingStatusScheduled {
			t.Fatalf("expected meeting still scheduled, got %s", stored.Status)
		}
		if stored.ExternalLink != "" {
			t.Fatalf("expected no link after failed invite")
		}
	})

	t.Run("attaches the link when the invite succeeds", func(t *testing.T) {
		fx := newBookingFixture(t)
		declareTestSlot(t, fx, 1, start)

		meeting, err := fx.svc.Reserve(context.Background(), ReserveInput{
			RecruiterID: 1, StudentID: 42, StartTime: start, Actor: actor,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		select {
		case <-fx.cal.invoked:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected an invite attempt")
		}

		deadline := time.Now().Add(2 * time.Second)
		for {
			stored, err := fx.meetings.GetByID(context.Background(), meeting.ID)
			if err != nil {
				t.Fatalf("get meeting: %v", err)
			}
			if stored.ExternalLink != "" {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("expected link to be attached")
			}
			time.Sleep(10 * time.Millisecond)
		}

		fx.cal.mu.Lock()
		defer fx.cal.mu.Unlock()
		if got, want := fx.cal.invites[0].RequestID, calendar.InviteRequestID(meeting.ID); got != want {
			t.Fatalf("expected stable idempotency key %s, got %s", want, got)
		}
	})

	t.Run("times out distinguishably when commit cannot be acquired", func(t *testing.T) {
		fx := newBookingFixture(t, WithReserveTimeout(50*time.Millisecond))
		fx.slots.blockTx = true

		_, err := fx.svc.Reserve(context.Background(), ReserveInput{
			RecruiterID: 1, StudentID: 42, StartTime: start, Actor: actor,
		})
		if !errors.Is(err, model.ErrReserveTimeout) {
			t.Fatalf("expected ErrReserveTimeout, got %v", err)
		}
	})
}

func TestBookingService_Reserve_Linearizable(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	fx := newBookingFixture(t)
	declareTestSlot(t, fx, 1, start)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		studentID := int64(100 + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.Reserve(context.Background(), ReserveInput{
				RecruiterID: 1,
				StudentID:   studentID,
				StartTime:   start,
				Actor:       model.Actor{ID: studentID, Role: model.ActorRoleStudent},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, model.ErrSlotUnavailable):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if losses != n-1 {
		t.Fatalf("expected %d losers, got %d", n-1, losses)
	}
}

func TestBookingService_GetAvailableSlots(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	fx := newBookingFixture(t)
	declareTestSlot(t, fx, 1, start)

	available, err := fx.svc.GetAvailableSlots(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !containsStart(available, start) {
		t.Fatalf("expected availability to include %v", start)
	}

	_, err = fx.svc.Reserve(context.Background(), ReserveInput{
		RecruiterID: 1, StudentID: 42, StartTime: start,
		Actor: model.Actor{ID: 42, Role: model.ActorRoleStudent},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	available, err = fx.svc.GetAvailableSlots(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if containsStart(available, start) {
		t.Fatalf("expected %v to be gone after reservation", start)
	}
}

func TestBookingService_GetAvailableSlots_DirectGrid(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	fx := newBookingFixture(t)
	fx.rules.Create(context.Background(), &model.AvailabilityRule{
		RecruiterID: 1, Weekday: time.Monday,
		StartMinute: 14 * 60, EndMinute: 16 * 60, SlotMinutes: 30, Active: true,
	})
	// External calendar blocks 14:00–15:00.
	fx.cal.busy = []model.Interval{{
		Start: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}}

	available, err := fx.svc.GetAvailableSlots(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []time.Time{
		time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC),
	}
	if len(available) != len(want) {
		t.Fatalf("expected %d intervals, got %d: %v", len(want), len(available), available)
	}
	for i, w := range want {
		if !available[i].Start.Equal(w) {
			t.Fatalf("interval %d: expected start %v, got %v", i, w, available[i].Start)
		}
	}
}

func containsStart(ivs []model.Interval, start time.Time) bool {
	for _, iv := range ivs {
		if iv.Start.Equal(start) {
			return true
		}
	}
	return false
}
