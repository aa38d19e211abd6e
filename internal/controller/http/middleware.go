package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/talentbridge/interview-scheduler/internal/model"
	"go.uber.org/zap"
)

type actorKey struct{}

// WithActor extracts the request-scoped actor from the X-Actor-ID and
// X-Actor-Role headers set by the authenticating gateway. The core never
// reads ambient session state; every operation receives this actor
// explicitly.
func WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := model.Actor{Role: model.ActorRole(r.Header.Get("X-Actor-Role"))}
		if id, err := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64); err == nil {
			actor.ID = id
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFrom(ctx context.Context) model.Actor {
	actor, _ := ctx.Value(actorKey{}).(model.Actor)
	return actor
}

// RequestLogger logs each request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
