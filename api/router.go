package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts every endpoint under /api/v1
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Route("/api/v1/downloads", func(r chi.Router) {
		r.Get("/", h.ListDownloading)
		r.Post("/", h.Enqueue)
		r.Get("/events", h.Events)

		r.Get("/limit", h.GetLimit)
		r.Put("/limit", h.SetLimit)

		r.Post("/all/{action}", h.BulkAction)
		r.Post("/{id}/{action}", h.ItemAction)

		r.Route("/waiting", func(r chi.Router) {
			r.Get("/", h.ListWaiting)
			r.Post("/{id}/move", h.MoveWaiting)
			r.Delete("/{id}", h.RemoveWaiting)
		})
	})

	return r
}

// requestLogger logs one line per request once it completes
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
