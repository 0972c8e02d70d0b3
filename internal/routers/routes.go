package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ujjwalshri/CodeColab/internal/handlers"
	"github.com/ujjwalshri/CodeColab/internal/metrics"
)

// New wires the HTTP surface. The WebSocket endpoint sits outside the
// metrics middleware because an upgraded connection holds its request open
// for the connection's whole lifetime.
func New(h *handlers.Handlers, clientURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{clientURL},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/ws", h.CollabWS)

	r.Group(func(r chi.Router) {
		r.Use(metrics.Middleware)

		r.Get("/healthz", h.Health)
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/rooms/{roomID}", h.GetRoomInfo)
			r.Get("/webrtc/config", h.GetWebRTCConfig)
		})
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}
