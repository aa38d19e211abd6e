package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/talentbridge/interview-scheduler/internal/model"
)

type declareSlotRequest struct {
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

type declareRuleRequest struct {
	Weekday     int `json:"weekday"`
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
	SlotMinutes int `json:"slot_minutes"`
}

func (h *Handler) declareSlot(w http.ResponseWriter, r *http.Request) {
	recruiterID, ok := pathID(w, r, "recruiterID")
	if !ok {
		return
	}

	var req declareSlotRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	slot, err := h.schedule.DeclareSlot(r.Context(), actorFrom(r.Context()), recruiterID, req.StartTime, req.DurationMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, slot)
}

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request) {
	recruiterID, ok := pathID(w, r, "recruiterID")
	if !ok {
		return
	}

	from, to := rangeParams(r)
	status := model.SlotStatus(r.URL.Query().Get("status"))

	slots, err := h.schedule.ListSlots(r.Context(), recruiterID, from, to, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (h *Handler) cancelSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathID(w, r, "slotID")
	if !ok {
		return
	}

	if err := h.schedule.CancelSlot(r.Context(), actorFrom(r.Context()), slotID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) declareRule(w http.ResponseWriter, r *http.Request) {
	recruiterID, ok := pathID(w, r, "recruiterID")
	if !ok {
		return
	}

	var req declareRuleRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	rule, err := h.schedule.DeclareRule(r.Context(), actorFrom(r.Context()), &model.AvailabilityRule{
		RecruiterID: recruiterID,
		Weekday:     time.Weekday(req.Weekday),
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		SlotMinutes: req.SlotMinutes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	recruiterID, ok := pathID(w, r, "recruiterID")
	if !ok {
		return
	}

	rules, err := h.schedule.ListRules(r.Context(), recruiterID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) deactivateRule(w http.ResponseWriter, r *http.Request) {
	recruiterID, ok := pathID(w, r, "recruiterID")
	if !ok {
		return
	}
	ruleID, ok := pathID(w, r, "ruleID")
	if !ok {
		return
	}

	if err := h.schedule.DeactivateRule(r.Context(), actorFrom(r.Context()), recruiterID, ruleID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	recruiterID, ok := pathID(w, r, "recruiterID")
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "date must be YYYY-MM-DD")
		return
	}

	intervals, err := h.booking.GetAvailableSlots(r.Context(), recruiterID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"available": intervals})
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid id")
		return 0, false
	}
	return id, true
}

// rangeParams parses from/to query params, defaulting to the next 30 days.
func rangeParams(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	from, to := now, now.AddDate(0, 0, 30)

	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}

	return from, to
}
