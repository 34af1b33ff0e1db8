package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"intervuex/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService() *TokenService {
	return NewTokenService(config.JWTConfig{Secret: testSecret, RecruiterTTL: 24 * time.Hour, CandidateTTL: time.Hour})
}

func TestTokenService_RoundTrip(t *testing.T) {
	s := newTestService()

	t.Run("recruiter", func(t *testing.T) {
		token, exp, err := s.IssueRecruiter("rec-1", "grace@example.com")
		if err != nil {
			t.Fatalf("IssueRecruiter: %v", err)
		}
		if d := time.Until(exp); d < 23*time.Hour || d > 25*time.Hour {
			t.Fatalf("unexpected expiry %v", exp)
		}
		claims, err := s.Parse(token)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if claims.Subject != "rec-1" || claims.Role != RoleRecruiter || claims.Email != "grace@example.com" {
			t.Fatalf("unexpected claims %+v", claims)
		}
	})

	t.Run("candidate", func(t *testing.T) {
		token, _, err := s.IssueCandidate("cand-1", "sess-1")
		if err != nil {
			t.Fatalf("IssueCandidate: %v", err)
		}
		claims, err := s.Parse(token)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if claims.Subject != "cand-1" || claims.Role != RoleCandidate || claims.SessionID != "sess-1" {
			t.Fatalf("unexpected claims %+v", claims)
		}
	})
}

func TestTokenService_Rejects(t *testing.T) {
	s := newTestService()

	t.Run("expired", func(t *testing.T) {
		past := newTestService()
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := past.IssueCandidate("cand-1", "sess-1")
		if err != nil {
			t.Fatalf("IssueCandidate: %v", err)
		}
		if _, err := s.Parse(token); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewTokenService(config.JWTConfig{Secret: "ffffffffffffffffffffffffffffffff", RecruiterTTL: time.Hour})
		token, _, _ := other.IssueRecruiter("rec-1", "")
		if _, err := s.Parse(token); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rsa signed", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("failed to generate key: %v", err)
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
			Role:             RoleRecruiter,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "rec-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString(key)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		if _, err := s.Parse(signed); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		token, _, err := s.issue(Claims{Role: "admin"}, "root", time.Hour)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := s.Parse(token); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := s.Parse("not-a-jwt"); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestExtractBearer(t *testing.T) {
	if _, err := ExtractBearer(""); err != ErrMissingAuthHeader {
		t.Fatalf("expected ErrMissingAuthHeader, got %v", err)
	}
	if _, err := ExtractBearer("Token abc"); err != ErrMissingAuthHeader {
		t.Fatalf("expected ErrMissingAuthHeader, got %v", err)
	}
	if _, err := ExtractBearer("Bearer  "); err != ErrMissingAuthHeader {
		t.Fatalf("expected ErrMissingAuthHeader, got %v", err)
	}
	token, err := ExtractBearer("Bearer abc.def")
	if err != nil || token != "abc.def" {
		t.Fatalf("unexpected result %q, %v", token, err)
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("expected mismatch")
	}
}

func TestClaimsContext(t *testing.T) {
	if _, ok := ClaimsFromContext(context.Background()); ok {
		t.Fatal("expected no claims")
	}
	ctx := WithClaims(context.Background(), &Claims{Role: RoleCandidate})
	c, ok := ClaimsFromContext(ctx)
	if !ok || c.Role != RoleCandidate {
		t.Fatalf("unexpected claims %+v", c)
	}
}
