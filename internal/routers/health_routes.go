package routers

import (
	"intervuex/internal/handlers"
	"intervuex/internal/metrics"
	"intervuex/internal/realtime"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(router *chi.Mux, healthHandler *handlers.HealthHandler) {
	router.Get("/health", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Handle("/metrics", metrics.Handler())
}

func RealtimeRoutes(router *chi.Mux, wsHandler *realtime.Handler) {
	router.Get("/ws/sessions/{id}", wsHandler.SessionWS)
}
