package routers

import (
	"intervuex/internal/auth"
	"intervuex/internal/handlers"
	"intervuex/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func InterviewRoutes(r *chi.Mux, interviewHandler *handlers.InterviewHandler, tokens middleware.TokenParser) {
	r.Route("/api/v1/interviews/{id}", func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens), middleware.RequireRole(auth.RoleCandidate))

		r.Post("/start", interviewHandler.StartHandler)
		r.Get("/", interviewHandler.GetHandler)
		r.With(middleware.ValidateRequest[*handlers.SubmitAnswerRequest]()).Post("/answers", interviewHandler.SubmitAnswerHandler)
		r.Get("/time-remaining", interviewHandler.TimeRemainingHandler)
		r.Post("/end", interviewHandler.EndHandler)
		r.With(middleware.ValidateRequest[*handlers.TerminateRequest]()).Post("/terminate", interviewHandler.TerminateHandler)
	})
}
