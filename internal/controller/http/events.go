package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/talentbridge/interview-scheduler/internal/events"
)

// streamEvents pushes slot and meeting mutation events to the client as
// server-sent events, so the three UIs can refresh without polling. The feed
// is advisory: consumers re-fetch authoritative state, they never replay it.
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	type tagged struct {
		eventType events.EventType
		payload   events.Payload
	}
	merged := make(chan tagged, 16)

	var subs []struct {
		t   events.EventType
		sub events.Subscriber
	}
	for _, eventType := range events.AllTypes() {
		sub := h.bus.Subscribe(eventType)
		subs = append(subs, struct {
			t   events.EventType
			sub events.Subscriber
		}{eventType, sub})
		go func(t events.EventType, sub events.Subscriber) {
			for payload := range sub {
				select {
				case merged <- tagged{t, payload}:
				default:
				}
			}
		}(eventType, sub)
	}
	defer func() {
		for _, s := range subs {
			h.bus.Unsubscribe(s.t, s.sub)
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-merged:
			data, err := json.Marshal(ev.payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.eventType, data)
			flusher.Flush()
		}
	}
}
