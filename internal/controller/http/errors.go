package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/talentbridge/interview-scheduler/internal/model"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeSlotConflict       = "slot_conflict"
	codeSlotUnavailable    = "slot_unavailable"
	codeReserveTimeout     = "reserve_timeout"
	codeInvalidState       = "invalid_state"
	codeInvalidTransition  = "invalid_transition"
	codeNotOnWaitlist      = "student_not_on_waitlist"
	codeForbidden          = "forbidden"
	codeNotFound           = "not_found"
	codeExternalService    = "external_service_error"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, Code: code})
}

// writeServiceError maps the core error taxonomy to HTTP statuses. Callers
// surface every reservation/transition failure verbatim; no fallback to a
// different time or status happens here.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrSlotConflict):
		writeError(w, http.StatusConflict, codeSlotConflict, err.Error())
	case errors.Is(err, model.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, codeSlotUnavailable, err.Error())
	case errors.Is(err, model.ErrReserveTimeout):
		writeError(w, http.StatusGatewayTimeout, codeReserveTimeout, err.Error())
	case errors.Is(err, model.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidTransition, err.Error())
	case errors.Is(err, model.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidState, err.Error())
	case errors.Is(err, model.ErrStudentNotOnWaitlist):
		writeError(w, http.StatusConflict, codeNotOnWaitlist, err.Error())
	case errors.Is(err, model.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, model.ErrSlotNotFound), errors.Is(err, model.ErrMeetingNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, model.ErrExternalService):
		writeError(w, http.StatusBadGateway, codeExternalService, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
