package routers

import (
	"intervuex/internal/handlers"
	"intervuex/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(r *chi.Mux, authHandler *handlers.AuthHandler, tokens middleware.TokenParser) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*handlers.CandidateLoginRequest]()).Post("/candidate/login", authHandler.CandidateLoginHandler) // One-time link login
		r.With(middleware.ValidateRequest[*handlers.RegisterRecruiterRequest]()).Post("/recruiter/register", authHandler.RegisterHandler)
		r.With(middleware.ValidateRequest[*handlers.RecruiterLoginRequest]()).Post("/recruiter/login", authHandler.LoginHandler)
		r.With(middleware.Authenticate(tokens)).Get("/me", authHandler.MeHandler) // Current caller
	})
}
