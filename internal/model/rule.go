package model

import "time"

// AvailabilityRule is a recurring weekly working-hours window. Rules drive
// two things: the candidate grid for direct bookings and the background
// generator that materializes pending slots ahead of time.
type AvailabilityRule struct {
	ID          int64        `json:"id"`
	RecruiterID int64        `json:"recruiter_id"`
	Weekday     time.Weekday `json:"weekday"`
	StartMinute int          `json:"start_minute"` // minutes after midnight
	EndMinute   int          `json:"end_minute"`
	SlotMinutes int          `json:"slot_minutes"`
	Active      bool         `json:"active"`
	CreatedAt   time.Time    `json:"created_at"`
}

// WindowOn returns the rule's concrete window on the given date, or false
// if the rule does not apply to that weekday.
func (r *AvailabilityRule) WindowOn(date time.Time) (start, end time.Time, ok bool) {
	if date.Weekday() != r.Weekday {
		return time.Time{}, time.Time{}, false
	}
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start = midnight.Add(time.Duration(r.StartMinute) * time.Minute)
	end = midnight.Add(time.Duration(r.EndMinute) * time.Minute)
	return start, end, true
}
