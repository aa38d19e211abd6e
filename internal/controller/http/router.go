package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/talentbridge/interview-scheduler/internal/events"
	"github.com/talentbridge/interview-scheduler/internal/model"
	"github.com/talentbridge/interview-scheduler/internal/service"
	"go.uber.org/zap"
)

// ScheduleAPI is the slot/rule management surface (recruiter calendar view).
type ScheduleAPI interface {
	DeclareSlot(ctx context.Context, actor model.Actor, recruiterID int64, startTime time.Time, durationMinutes int) (*model.AvailabilitySlot, error)
	CancelSlot(ctx context.Context, actor model.Actor, slotID int64) error
	ListSlots(ctx context.Context, recruiterID int64, from, to time.Time, status model.SlotStatus) ([]*model.AvailabilitySlot, error)
	DeclareRule(ctx context.Context, actor model.Actor, rule *model.AvailabilityRule) (*model.AvailabilityRule, error)
	ListRules(ctx context.Context, recruiterID int64) ([]*model.AvailabilityRule, error)
	DeactivateRule(ctx context.Context, actor model.Actor, recruiterID, ruleID int64) error
}

// BookingAPI is the public booking surface.
type BookingAPI interface {
	Reserve(ctx context.Context, in service.ReserveInput) (*model.Meeting, error)
	GetAvailableSlots(ctx context.Context, recruiterID int64, date time.Time) ([]model.Interval, error)
}

// MeetingAPI is the lifecycle/list surface (interview list view).
type MeetingAPI interface {
	ApplyStatus(ctx context.Context, actor model.Actor, meetingID int64, newStatus model.MeetingStatus) (*model.Meeting, error)
	ListMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error)
	GetStats(ctx context.Context, recruiterID int64) (*model.MeetingStats, error)
}

// AssignmentAPI is the admin matching surface.
type AssignmentAPI interface {
	ConfirmAssignment(ctx context.Context, actor model.Actor, slotID, studentID int64, agenda string) (*model.Meeting, error)
}

// Handler wires the core services to the REST surface consumed by the
// recruiter calendar, public booking page and admin assignment console.
type Handler struct {
	schedule   ScheduleAPI
	booking    BookingAPI
	meetings   MeetingAPI
	assignment AssignmentAPI
	bus        *events.Bus
	logger     *zap.Logger
}

func NewHandler(schedule ScheduleAPI, booking BookingAPI, meetings MeetingAPI, assignment AssignmentAPI, bus *events.Bus, logger *zap.Logger) *Handler {
	return &Handler{
		schedule:   schedule,
		booking:    booking,
		meetings:   meetings,
		assignment: assignment,
		bus:        bus,
		logger:     logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.logger))
	r.Use(WithActor)

	r.Get("/healthz", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/recruiters/{recruiterID}", func(r chi.Router) {
			r.Post("/slots", h.declareSlot)
			r.Get("/slots", h.listSlots)
			r.Post("/rules", h.declareRule)
			r.Get("/rules", h.listRules)
			r.Delete("/rules/{ruleID}", h.deactivateRule)
			r.Get("/availability", h.availability)
			r.Get("/stats", h.getStats)
		})

		r.Delete("/slots/{slotID}", h.cancelSlot)

		r.Post("/bookings", h.reserve)
		r.Post("/assignments", h.confirmAssignment)

		r.Get("/meetings", h.listMeetings)
		r.Patch("/meetings/{meetingID}/status", h.applyStatus)

		r.Get("/events", h.streamEvents)
	})

	return r
}
