package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/models"

	"go.uber.org/zap"
)

type fakeSessions struct {
	byToken   map[string]*models.InterviewSession
	recorded  []string
	lookupErr error
}

func (f *fakeSessions) GetByAccessToken(_ context.Context, token string) (*models.InterviewSession, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	s, ok := f.byToken[token]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSessions) RecordFingerprint(_ context.Context, id, fingerprint string) (bool, error) {
	for _, s := range f.byToken {
		if s.ID == id && s.DeviceFingerprint == "" {
			s.DeviceFingerprint = fingerprint
			f.recorded = append(f.recorded, fingerprint)
			return true, nil
		}
	}
	return false, nil
}

type fakeAudit struct {
	entries []*models.AuditLog
	err     error
}

func (f *fakeAudit) Append(_ context.Context, entry *models.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

var base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newValidator(sessions *fakeSessions, audit *fakeAudit, enforce bool, now time.Time) *Validator {
	v := NewValidator(sessions, audit, enforce, zap.NewNop())
	v.now = func() time.Time { return now }
	return v
}

func ptr(t time.Time) *time.Time { return &t }

func windowSession() *models.InterviewSession {
	return &models.InterviewSession{
		ID:          "s1",
		CandidateID: "c1",
		Status:      models.StatusScheduled,
		ValidFrom:   ptr(base),
		ValidUntil:  ptr(base.Add(2 * time.Hour)),
	}
}

func expectCode(t *testing.T, err error, code string) *errs.ValidationError {
	t.Helper()
	var vErr *errs.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError %s, got %v", code, err)
	}
	if vErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, vErr.Code)
	}
	return vErr
}

func TestValidate_UnknownTokenIsInvalidLink(t *testing.T) {
	v := newValidator(&fakeSessions{byToken: map[string]*models.InterviewSession{}}, &fakeAudit{}, false, base)

	_, err := v.Validate(context.Background(), "nope", "")
	expectCode(t, err, errs.CodeInvalidLink)

	_, err = v.Validate(context.Background(), "  ", "")
	expectCode(t, err, errs.CodeInvalidLink)
}

func TestValidate_UsedLinkIsInvalid(t *testing.T) {
	s := windowSession()
	s.Status = models.StatusActive
	v := newValidator(&fakeSessions{byToken: map[string]*models.InterviewSession{"tok": s}}, &fakeAudit{}, false, base.Add(time.Minute))

	_, err := v.Validate(context.Background(), "tok", "")
	expectCode(t, err, errs.CodeInvalidLink)
}

func TestValidate_WindowBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		wantCode string
		boundary time.Time
	}{
		{"before window", base.Add(-time.Second), errs.CodeNotYetActive, base},
		{"at opening", base, "", time.Time{}},
		{"one second before close", base.Add(2*time.Hour - time.Second), "", time.Time{}},
		{"at close", base.Add(2 * time.Hour), "", time.Time{}},
		{"one second after close", base.Add(2*time.Hour + time.Second), errs.CodeWindowExpired, base.Add(2 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{byToken: map[string]*models.InterviewSession{"tok": windowSession()}}
			v := newValidator(sessions, &fakeAudit{}, false, tt.now)

			got, err := v.Validate(context.Background(), "tok", "")
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if got.ID != "s1" {
					t.Fatalf("unexpected session %+v", got)
				}
				return
			}
			vErr := expectCode(t, err, tt.wantCode)
			if vErr.Boundary == nil || !vErr.Boundary.Equal(tt.boundary) {
				t.Fatalf("expected boundary %s, got %v", tt.boundary, vErr.Boundary)
			}
		})
	}
}

func TestValidate_SingleExpiry(t *testing.T) {
	s := &models.InterviewSession{ID: "s1", Status: models.StatusScheduled, ExpiresAt: ptr(base)}
	sessions := &fakeSessions{byToken: map[string]*models.InterviewSession{"tok": s}}

	if _, err := newValidator(sessions, &fakeAudit{}, false, base).Validate(context.Background(), "tok", ""); err != nil {
		t.Fatalf("expected success at expiry instant, got %v", err)
	}

	_, err := newValidator(sessions, &fakeAudit{}, false, base.Add(time.Second)).Validate(context.Background(), "tok", "")
	vErr := expectCode(t, err, errs.CodeExpired)
	if !vErr.Boundary.Equal(base) {
		t.Fatalf("expected expiry boundary, got %v", vErr.Boundary)
	}
}

func TestValidate_NoTimeRestrictionsAccepts(t *testing.T) {
	s := &models.InterviewSession{ID: "s1", Status: models.StatusScheduled}
	v := newValidator(&fakeSessions{byToken: map[string]*models.InterviewSession{"tok": s}}, &fakeAudit{}, false, base)

	if _, err := v.Validate(context.Background(), "tok", ""); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestValidate_FingerprintWriteOnce(t *testing.T) {
	s := windowSession()
	sessions := &fakeSessions{byToken: map[string]*models.InterviewSession{"tok": s}}
	v := newValidator(sessions, &fakeAudit{}, false, base.Add(time.Minute))

	if _, err := v.Validate(context.Background(), "tok", "device-a"); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if _, err := v.Validate(context.Background(), "tok", "device-b"); err != nil {
		t.Fatalf("mismatch must be tolerated when binding is off: %v", err)
	}
	if len(sessions.recorded) != 1 || sessions.recorded[0] != "device-a" {
		t.Fatalf("expected only the first fingerprint recorded, got %v", sessions.recorded)
	}
}

func TestValidate_FingerprintEnforced(t *testing.T) {
	s := windowSession()
	s.DeviceFingerprint = "device-a"
	v := newValidator(&fakeSessions{byToken: map[string]*models.InterviewSession{"tok": s}}, &fakeAudit{}, true, base.Add(time.Minute))

	_, err := v.Validate(context.Background(), "tok", "device-b")
	var authErr *errs.AuthorizationError
	if !errors.As(err, &authErr) || authErr.Code != errs.CodeDeviceMismatch {
		t.Fatalf("expected device mismatch, got %v", err)
	}

	if _, err := v.Validate(context.Background(), "tok", "device-a"); err != nil {
		t.Fatalf("same device must pass: %v", err)
	}
}

func TestValidate_LookupFailureIsWrapped(t *testing.T) {
	boom := errors.New("db down")
	v := newValidator(&fakeSessions{lookupErr: boom}, &fakeAudit{}, false, base)

	_, err := v.Validate(context.Background(), "tok", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestLogin_AppendsAudit(t *testing.T) {
	audit := &fakeAudit{}
	v := newValidator(&fakeSessions{byToken: map[string]*models.InterviewSession{"tok": windowSession()}}, audit, false, base.Add(time.Minute))

	session, err := v.Login(context.Background(), LoginAttempt{Token: "tok", Fingerprint: "fp", IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if session.CandidateID != "c1" {
		t.Fatalf("unexpected session %+v", session)
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.Action != models.AuditCandidateLogin || entry.IPAddress != "10.0.0.1" || entry.SessionID != "s1" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
}

func TestLogin_RejectedAttemptIsNotAudited(t *testing.T) {
	audit := &fakeAudit{}
	v := newValidator(&fakeSessions{byToken: map[string]*models.InterviewSession{"tok": windowSession()}}, audit, false, base.Add(-time.Hour))

	if _, err := v.Login(context.Background(), LoginAttempt{Token: "tok"}); err == nil {
		t.Fatal("expected rejection before window")
	}
	if len(audit.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(audit.entries))
	}
}
