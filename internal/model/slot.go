package model

import "time"

type SlotStatus string

const (
	SlotStatusPending   SlotStatus = "pending"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// SlotGranularityMinutes is the fixed slot length the booking grid works in.
const SlotGranularityMinutes = 30

// AvailabilitySlot is a recruiter-declared time window eligible for booking.
// At most one slot may exist per (recruiter_id, start_time); the database
// enforces this with a unique index.
type AvailabilitySlot struct {
	ID              int64      `json:"id"`
	RecruiterID     int64      `json:"recruiter_id"`
	StartTime       time.Time  `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          SlotStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

// EndTime returns the instant the slot's window closes.
func (s *AvailabilitySlot) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
