package handlers

import (
	"net"
	"net/http"
	"strings"

	"intervuex/internal/auth"
	"intervuex/internal/errs"
	"intervuex/internal/lifecycle"
	"intervuex/internal/models"
)

// callerClaims returns the claims stored by middleware.Authenticate. Routes using it are always
// mounted behind that middleware.
func callerClaims(r *http.Request) *auth.Claims {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		return &auth.Claims{}
	}
	return claims
}

func actorOf(claims *auth.Claims) lifecycle.Actor {
	if claims.Role == auth.RoleRecruiter {
		return lifecycle.Actor{Kind: lifecycle.ActorRecruiter, ID: claims.Subject}
	}
	return lifecycle.Actor{Kind: lifecycle.ActorCandidate, ID: claims.Subject}
}

// candidateSession rejects candidate tokens issued for a different session than the URL names.
func candidateSession(claims *auth.Claims, sessionID string) error {
	if claims.Role != auth.RoleCandidate || claims.SessionID != sessionID {
		return errs.Forbidden("token is not valid for this session")
	}
	return nil
}

// participant allows the session's candidate and its owning recruiter.
func participant(claims *auth.Claims, session *models.InterviewSession) error {
	switch claims.Role {
	case auth.RoleCandidate:
		if claims.SessionID == session.ID && claims.Subject == session.CandidateID {
			return nil
		}
	case auth.RoleRecruiter:
		if claims.Subject == session.RecruiterID {
			return nil
		}
	}
	return errs.Forbidden("not a participant of this session")
}

// clientIP prefers the address set by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
