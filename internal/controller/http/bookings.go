package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/talentbridge/interview-scheduler/internal/service"
)

type reserveRequest struct {
	RecruiterID     int64     `json:"recruiter_id"`
	StudentID       int64     `json:"student_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Title           string    `json:"title"`
}

func (r reserveRequest) validate() error {
	if r.RecruiterID <= 0 || r.StudentID <= 0 {
		return errors.New("recruiter_id and student_id are required")
	}
	if r.StartTime.IsZero() {
		return errors.New("start_time is required")
	}
	return nil
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}

	meeting, err := h.booking.Reserve(r.Context(), service.ReserveInput{
		RecruiterID:     req.RecruiterID,
		StudentID:       req.StudentID,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Title:           req.Title,
		Actor:           actorFrom(r.Context()),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, meeting)
}

type assignmentRequest struct {
	SlotID    int64  `json:"slot_id"`
	StudentID int64  `json:"student_id"`
	Agenda    string `json:"agenda"`
}

func (h *Handler) confirmAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.SlotID <= 0 || req.StudentID <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "slot_id and student_id are required")
		return
	}

	meeting, err := h.assignment.ConfirmAssignment(r.Context(), actorFrom(r.Context()), req.SlotID, req.StudentID, req.Agenda)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, meeting)
}
