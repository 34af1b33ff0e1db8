package routers

import (
	"intervuex/internal/auth"
	"intervuex/internal/handlers"
	"intervuex/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RecruiterRoutes(r *chi.Mux, recruiterHandler *handlers.RecruiterHandler, tokens middleware.TokenParser) {
	r.Route("/api/v1/recruiter", func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens), middleware.RequireRole(auth.RoleRecruiter))

		r.Get("/dashboard", recruiterHandler.DashboardHandler)
		r.With(middleware.ValidateRequest[*handlers.CreateCandidateRequest]()).Post("/candidates", recruiterHandler.CreateCandidateHandler)
		r.Get("/candidates", recruiterHandler.ListCandidatesHandler)
		r.Get("/shortlisted", recruiterHandler.ShortlistedHandler)

		r.With(middleware.ValidateRequest[*handlers.ScheduleInterviewRequest]()).Post("/interviews", recruiterHandler.ScheduleInterviewHandler)
		r.Route("/interviews/{id}", func(r chi.Router) {
			r.Get("/report", recruiterHandler.ReportHandler)
			r.Get("/breakdown", recruiterHandler.BreakdownHandler)
			r.With(middleware.ValidateRequest[*handlers.ShortlistRequest]()).Put("/shortlist", recruiterHandler.ShortlistHandler)
			r.Post("/rescore", recruiterHandler.RescoreHandler)
			r.With(middleware.ValidateRequest[*handlers.TerminateRequest]()).Post("/terminate", recruiterHandler.TerminateHandler)
			r.Delete("/", recruiterHandler.DeleteHandler)
		})
	})
}
