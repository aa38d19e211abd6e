package service

import (
	"context"
	"sync"
	"time"

	"github.com/talentbridge/interview-scheduler/internal/calendar"
	"github.com/talentbridge/interview-scheduler/internal/model"
	"github.com/talentbridge/interview-scheduler/internal/roster"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type slotKey struct {
	recruiterID int64
	start       int64
}

// fakeSlotStore mirrors the storage-layer guarantees of the Postgres
// repository: a unique (recruiter, startTime) key and compare-and-swap
// booking, both under one mutex so concurrent tests exercise the same
// linearizability the database provides.
type fakeSlotStore struct {
	mu     sync.Mutex
	nextID int64
	slots  map[int64]*model.AvailabilitySlot
	byKey  map[slotKey]int64

	// blockTx, when set, makes WithTx wait for ctx cancellation, simulating
	// a commit that cannot be acquired in time.
	blockTx bool
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{
		slots: make(map[int64]*model.AvailabilitySlot),
		byKey: make(map[slotKey]int64),
	}
}

func keyOf(recruiterID int64, start time.Time) slotKey {
	return slotKey{recruiterID: recruiterID, start: start.UTC().UnixNano()}
}

func (f *fakeSlotStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.blockTx {
		<-ctx.Done()
		return ctx.Err()
	}
	return fn(ctx)
}

func (f *fakeSlotStore) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := keyOf(slot.RecruiterID, slot.StartTime)
	if _, exists := f.byKey[key]; exists {
		return model.ErrSlotConflict
	}

	f.nextID++
	slot.ID = f.nextID
	slot.CreatedAt = time.Now().UTC()

	copied := *slot
	f.slots[slot.ID] = &copied
	f.byKey[key] = slot.ID
	return nil
}

func (f *fakeSlotStore) GetByID(ctx context.Context, id int64) (*model.AvailabilitySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[id]
	if !ok {
		return nil, model.ErrSlotNotFound
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeSlotStore) FindPending(ctx context.Context, recruiterID int64, startTime time.Time) (*model.AvailabilitySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.byKey[keyOf(recruiterID, startTime)]
	if !ok {
		return nil, nil
	}
	slot := f.slots[id]
	if slot.Status != model.SlotStatusPending {
		return nil, nil
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeSlotStore) Book(ctx context.Context, slotID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[slotID]
	if !ok || slot.Status != model.SlotStatusPending {
		return model.ErrSlotUnavailable
	}
	slot.Status = model.SlotStatusBooked
	return nil
}

func (f *fakeSlotStore) Cancel(ctx context.Context, slotID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[slotID]
	if !ok {
		return model.ErrSlotNotFound
	}
	if slot.Status != model.SlotStatusPending {
		return model.ErrInvalidState
	}
	slot.Status = model.SlotStatusCancelled
	return nil
}

func (f *fakeSlotStore) ListByRecruiter(ctx context.Context, recruiterID int64, from, to time.Time, status model.SlotStatus) ([]*model.AvailabilitySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var slots []*model.AvailabilitySlot
	for _, slot := range f.slots {
		if slot.RecruiterID != recruiterID {
			continue
		}
		if slot.StartTime.Before(from) || !slot.StartTime.Before(to) {
			continue
		}
		if status != "" && slot.Status != status {
			continue
		}
		copied := *slot
		slots = append(slots, &copied)
	}
	return slots, nil
}

func (f *fakeSlotStore) Exists(ctx context.Context, recruiterID int64, startTime time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.byKey[keyOf(recruiterID, startTime)]
	return ok, nil
}

// fakeMeetingStore enforces the unique (recruiter_id, scheduled_time) index
// under a mutex, like the real table.
type fakeMeetingStore struct {
	mu       sync.Mutex
	nextID   int64
	meetings map[int64]*model.Meeting
	byKey    map[slotKey]int64
}

func newFakeMeetingStore() *fakeMeetingStore {
	return &fakeMeetingStore{
		meetings: make(map[int64]*model.Meeting),
		byKey:    make(map[slotKey]int64),
	}
}

func (f *fakeMeetingStore) Create(ctx context.Context, m *model.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := keyOf(m.RecruiterID, m.ScheduledTime)
	if _, exists := f.byKey[key]; exists {
		return model.ErrSlotUnavailable
	}

	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt

	copied := *m
	f.meetings[m.ID] = &copied
	f.byKey[key] = m.ID
	return nil
}

func (f *fakeMeetingStore) GetByID(ctx context.Context, id int64) (*model.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.meetings[id]
	if !ok {
		return nil, model.ErrMeetingNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMeetingStore) UpdateStatus(ctx context.Context, id int64, from, to model.MeetingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.meetings[id]
	if !ok || m.Status != from {
		return model.ErrInvalidTransition
	}
	m.Status = to
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeMeetingStore) List(ctx context.Context, filter model.MeetingFilter, now time.Time) ([]*model.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Meeting
	for _, m := range f.meetings {
		switch filter {
		case model.MeetingFilterUpcoming:
			if m.ScheduledTime.Before(now) || m.Status.IsTerminal() {
				continue
			}
		case model.MeetingFilterCompleted:
			if m.Status != model.MeetingStatusCompleted {
				continue
			}
		case model.MeetingFilterCancelled:
			if m.Status != model.MeetingStatusCancelled {
				continue
			}
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeMeetingStore) Stats(ctx context.Context, recruiterID int64, now time.Time) (*model.MeetingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &model.MeetingStats{}
	for _, m := range f.meetings {
		if m.RecruiterID != recruiterID {
			continue
		}
		stats.Total++
		if m.Status == model.MeetingStatusCompleted {
			stats.Completed++
		}
		if !m.ScheduledTime.Before(now) && !m.Status.IsTerminal() {
			stats.Upcoming++
			if stats.NextMeeting == nil || m.ScheduledTime.Before(stats.NextMeeting.ScheduledTime) {
				copied := *m
				stats.NextMeeting = &copied
			}
		}
	}
	return stats, nil
}

func (f *fakeMeetingStore) ListBookedIntervals(ctx context.Context, recruiterID int64, from, to time.Time) ([]model.Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Interval
	for _, m := range f.meetings {
		if m.RecruiterID != recruiterID || m.Status.IsTerminal() {
			continue
		}
		if m.ScheduledTime.Before(from) || !m.ScheduledTime.Before(to) {
			continue
		}
		out = append(out, model.Interval{Start: m.ScheduledTime, End: m.EndTime()})
	}
	return out, nil
}

func (f *fakeMeetingStore) ListMissingLinks(ctx context.Context, limit int) ([]*model.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Meeting
	for _, m := range f.meetings {
		if m.ExternalLink != "" || m.Status.IsTerminal() {
			continue
		}
		copied := *m
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMeetingStore) AttachLink(ctx context.Context, id int64, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.meetings[id]
	if !ok {
		return model.ErrMeetingNotFound
	}
	m.ExternalLink = link
	return nil
}

type fakeRuleStore struct {
	mu     sync.Mutex
	nextID int64
	rules  []*model.AvailabilityRule
}

func newFakeRuleStore() *fakeRuleStore {
	return &fakeRuleStore{}
}

func (f *fakeRuleStore) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	rule.ID = f.nextID
	copied := *rule
	f.rules = append(f.rules, &copied)
	return nil
}

func (f *fakeRuleStore) ListByRecruiter(ctx context.Context, recruiterID int64) ([]*model.AvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.AvailabilityRule
	for _, rule := range f.rules {
		if rule.RecruiterID == recruiterID && rule.Active {
			copied := *rule
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRuleStore) ListActive(ctx context.Context) ([]*model.AvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.AvailabilityRule
	for _, rule := range f.rules {
		if rule.Active {
			copied := *rule
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRuleStore) Deactivate(ctx context.Context, recruiterID, ruleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rule := range f.rules {
		if rule.ID == ruleID && rule.RecruiterID == recruiterID {
			rule.Active = false
			return nil
		}
	}
	return model.ErrSlotNotFound
}

// fakeCalendar lets tests control busy intervals and invite outcomes, and
// signals each invite attempt so async paths can be awaited.
type fakeCalendar struct {
	mu        sync.Mutex
	busy      []model.Interval
	inviteErr error
	link      string
	invites   []calendar.InviteRequest
	invoked   chan struct{}
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		link:    "https://meet.example.com/abc",
		invoked: make(chan struct{}, 16),
	}
}

func (f *fakeCalendar) CreateInvite(ctx context.Context, req calendar.InviteRequest) (string, error) {
	f.mu.Lock()
	f.invites = append(f.invites, req)
	err := f.inviteErr
	link := f.link
	f.mu.Unlock()

	select {
	case f.invoked <- struct{}{}:
	default:
	}

	if err != nil {
		return "", err
	}
	return link, nil
}

func (f *fakeCalendar) BusyIntervals(ctx context.Context, recruiterID int64, from, to time.Time) ([]model.Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Interval(nil), f.busy...), nil
}

type fakeRoster struct {
	waitlisted map[int64]bool
}

func newFakeRoster(waitlisted ...int64) *fakeRoster {
	m := make(map[int64]bool)
	for _, id := range waitlisted {
		m[id] = true
	}
	return &fakeRoster{waitlisted: m}
}

func (f *fakeRoster) Student(ctx context.Context, id int64) (*roster.Person, error) {
	return &roster.Person{ID: id, Name: "Ada Student", Affiliation: "State University"}, nil
}

func (f *fakeRoster) Recruiter(ctx context.Context, id int64) (*roster.Person, error) {
	return &roster.Person{ID: id, Name: "Rae Recruiter", Affiliation: "Acme Corp"}, nil
}

func (f *fakeRoster) OnWaitlist(ctx context.Context, studentID int64) (bool, error) {
	return f.waitlisted[studentID], nil
}
