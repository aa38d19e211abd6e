package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talentbridge/interview-scheduler/internal/model"
)

// InviteRequest carries everything the provider needs to create a calendar
// event with a meeting link.
type InviteRequest struct {
	MeetingID       int64     `json:"meeting_id"`
	RecruiterID     int64     `json:"recruiter_id"`
	StudentID       int64     `json:"student_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Title           string    `json:"title"`
	RequestID       string    `json:"request_id"`
}

// InviteRequestID derives the idempotency key for a meeting's invite. The key
// is a function of the meeting only, so every retry of the same invite, in
// the booking path or the backfill worker, presents the same RequestID and
// the provider can deduplicate.
func InviteRequestID(meetingID int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("meeting-invite-%d", meetingID))).String()
}

// Provider is the external calendar collaborator. Both operations are
// best-effort: a failure never corrupts scheduling state, it only delays the
// link or widens the candidate grid.
type Provider interface {
	// CreateInvite asks the provider to create a calendar event and returns
	// the generated meeting link. Retryable; the same RequestID must not
	// produce duplicate events.
	CreateInvite(ctx context.Context, req InviteRequest) (string, error)

	// BusyIntervals reports the recruiter's busy windows in [from, to) from
	// the connected external calendar.
	BusyIntervals(ctx context.Context, recruiterID int64, from, to time.Time) ([]model.Interval, error)
}
