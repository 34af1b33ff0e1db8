// Package auth issues and verifies the bearer tokens of recruiters and candidates.
package auth

import (
	"errors"
	"strings"
	"time"

	"intervuex/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

var (
	ErrMissingAuthHeader = errors.New("missing or malformed Authorization header")
	ErrInvalidToken      = errors.New("invalid token")
)

// Claims identify the caller. Subject is the recruiter or candidate id; candidate tokens are
// also bound to one session.
type Claims struct {
	Role      Role   `json:"role"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret       []byte
	recruiterTTL time.Duration
	candidateTTL time.Duration
	now          func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret:       []byte(cfg.Secret),
		recruiterTTL: cfg.RecruiterTTL,
		candidateTTL: cfg.CandidateTTL,
		now:          time.Now,
	}
}

func (s *TokenService) IssueRecruiter(recruiterID, email string) (string, time.Time, error) {
	return s.issue(Claims{Role: RoleRecruiter, Email: email}, recruiterID, s.recruiterTTL)
}

func (s *TokenService) IssueCandidate(candidateID, sessionID string) (string, time.Time, error) {
	return s.issue(Claims{Role: RoleCandidate, SessionID: sessionID}, candidateID, s.candidateTTL)
}

func (s *TokenService) issue(claims Claims, subject string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies signature, algorithm and expiry.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" || (claims.Role != RoleRecruiter && claims.Role != RoleCandidate) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>" header value.
func ExtractBearer(header string) (string, error) {
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", ErrMissingAuthHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrMissingAuthHeader
	}
	return token, nil
}
