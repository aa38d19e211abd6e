package model

import "time"

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusConfirmed MeetingStatus = "confirmed"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
	MeetingStatusNoShow    MeetingStatus = "no_show"
)

// Meeting is a committed interview between a recruiter and a student.
// Slot-backed meetings reference the consumed slot; direct bookings carry a
// nil SlotID. Uniqueness per (recruiter_id, scheduled_time) is enforced by
// the database.
type Meeting struct {
	ID              int64         `json:"id"`
	RecruiterID     int64         `json:"recruiter_id"`
	StudentID       int64         `json:"student_id"`
	SlotID          *int64        `json:"slot_id,omitempty"`
	ScheduledTime   time.Time     `json:"scheduled_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Title           string        `json:"title"`
	Status          MeetingStatus `json:"status"`
	ExternalLink    string        `json:"external_link,omitempty"`
	StudentName     string        `json:"student_name,omitempty"`
	RecruiterName   string        `json:"recruiter_name,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// EndTime returns the instant the meeting is over.
func (m *Meeting) EndTime() time.Time {
	return m.ScheduledTime.Add(time.Duration(m.DurationMinutes) * time.Minute)
}

// IsTerminal reports whether no further status changes are allowed.
func (s MeetingStatus) IsTerminal() bool {
	switch s {
	case MeetingStatusCompleted, MeetingStatusCancelled, MeetingStatusNoShow:
		return true
	}
	return false
}

// meetingTransitions holds the legal status edges. Time-based preconditions
// (completed and no_show only after the scheduled time) are checked by the
// lifecycle service on top of this table.
var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusScheduled: {MeetingStatusConfirmed, MeetingStatusCancelled},
	MeetingStatusConfirmed: {MeetingStatusCompleted, MeetingStatusCancelled, MeetingStatusNoShow},
}

// CanTransition reports whether from → to is a legal edge of the meeting
// state machine, ignoring time-based preconditions.
func CanTransition(from, to MeetingStatus) bool {
	for _, next := range meetingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidMeetingStatus reports whether s names a known status.
func ValidMeetingStatus(s MeetingStatus) bool {
	switch s {
	case MeetingStatusScheduled, MeetingStatusConfirmed, MeetingStatusCompleted,
		MeetingStatusCancelled, MeetingStatusNoShow:
		return true
	}
	return false
}

// MeetingFilter selects a projection of the meeting list.
type MeetingFilter string

const (
	MeetingFilterAll       MeetingFilter = "all"
	MeetingFilterUpcoming  MeetingFilter = "upcoming"
	MeetingFilterCompleted MeetingFilter = "completed"
	MeetingFilterCancelled MeetingFilter = "cancelled"
)

// MeetingStats is the aggregate projection backing the recruiter dashboard.
type MeetingStats struct {
	Total       int      `json:"total"`
	Upcoming    int      `json:"upcoming"`
	Today       int      `json:"today"`
	Completed   int      `json:"completed"`
	NextMeeting *Meeting `json:"next_meeting,omitempty"`
}
