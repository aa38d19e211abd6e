package http

import (
	"encoding/json"
	"net/http"

	"github.com/talentbridge/interview-scheduler/internal/model"
)

func (h *Handler) listMeetings(w http.ResponseWriter, r *http.Request) {
	filter := model.MeetingFilter(r.URL.Query().Get("filter"))

	meetings, err := h.meetings.ListMeetings(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"meetings": meetings})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) applyStatus(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathID(w, r, "meetingID")
	if !ok {
		return
	}

	var req statusRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	meeting, err := h.meetings.ApplyStatus(r.Context(), actorFrom(r.Context()), meetingID, model.MeetingStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meeting)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	recruiterID, ok := pathID(w, r, "recruiterID")
	if !ok {
		return
	}

	stats, err := h.meetings.GetStats(r.Context(), recruiterID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
