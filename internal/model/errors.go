package model

import "errors"

var (
	// ErrSlotConflict: a slot already exists for (recruiter_id, start_time).
	ErrSlotConflict = errors.New("slot already declared for this time")
	// ErrSlotUnavailable: the reservation race was lost; the caller must
	// re-fetch availability and re-pick, never silently choose another time.
	ErrSlotUnavailable = errors.New("slot no longer available")
	// ErrReserveTimeout: the reservation could not commit within the bounded
	// time. Distinct from ErrSlotUnavailable so clients may retry.
	ErrReserveTimeout    = errors.New("reservation timed out")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrInvalidTransition = errors.New("illegal meeting status transition")
	// ErrExternalService: a collaborator call failed. Never rolls back a
	// committed reservation.
	ErrExternalService = errors.New("external service error")

	ErrPermissionDenied = errors.New("actor not permitted to perform this operation")

	ErrSlotNotFound         = errors.New("slot not found")
	ErrMeetingNotFound      = errors.New("meeting not found")
	ErrStudentNotOnWaitlist = errors.New("student is not on the unassigned roster")
)
