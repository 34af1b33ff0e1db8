package routers

import (
	"intervuex/internal/auth"
	"intervuex/internal/handlers"
	"intervuex/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func ProctoringRoutes(r *chi.Mux, proctoringHandler *handlers.ProctoringHandler, tokens middleware.TokenParser) {
	r.Route("/api/v1/proctoring/{id}", func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))

		candidateOnly := middleware.RequireRole(auth.RoleCandidate)
		r.With(candidateOnly, middleware.ValidateRequest[*handlers.ViolationRequest]()).Post("/violations", proctoringHandler.RecordViolationHandler)
		r.With(candidateOnly).Post("/heartbeat", proctoringHandler.HeartbeatHandler)

		// candidate or owning recruiter
		r.Get("/violations", proctoringHandler.ListViolationsHandler)
		r.Get("/integrity", proctoringHandler.IntegrityHandler)
	})
}
