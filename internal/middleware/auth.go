package middleware

import (
	"net/http"

	"intervuex/internal/auth"
	"intervuex/internal/errs"
	"intervuex/internal/utils"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token and stores its claims in the context.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.ExtractBearer(r.Header.Get("Authorization"))
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, errs.CodeUnauthenticated, err.Error())
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, errs.CodeUnauthenticated, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole lets through only callers holding one of roles. It must run after Authenticate.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				utils.JSONError(w, http.StatusUnauthorized, errs.CodeUnauthenticated, "authentication required")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.JSONError(w, http.StatusForbidden, errs.CodeForbidden, "role not allowed")
		})
	}
}
