// Package access validates one-time interview links.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type SessionLookup interface {
	GetByAccessToken(ctx context.Context, token string) (*models.InterviewSession, error)
	RecordFingerprint(ctx context.Context, id, fingerprint string) (bool, error)
}

type AuditWriter interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// LoginAttempt is what a candidate presents when opening the link.
type LoginAttempt struct {
	Token       string
	Fingerprint string
	IPAddress   string
}

type Validator struct {
	sessions             SessionLookup
	audit                AuditWriter
	enforceDeviceBinding bool
	now                  func() time.Time
	logger               *zap.Logger
}

func NewValidator(sessions SessionLookup, audit AuditWriter, enforceDeviceBinding bool, logger *zap.Logger) *Validator {
	return &Validator{
		sessions:             sessions,
		audit:                audit,
		enforceDeviceBinding: enforceDeviceBinding,
		now:                  time.Now,
		logger:               utils.OrNop(logger),
	}
}

// Validate resolves the token to its session, or returns a *errs.ValidationError naming
// why the link cannot be used right now.
func (v *Validator) Validate(ctx context.Context, token, fingerprint string) (*models.InterviewSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errs.Validation(errs.CodeInvalidLink, "interview link is invalid")
	}

	session, err := v.sessions.GetByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Validation(errs.CodeInvalidLink, "interview link is invalid")
		}
		return nil, fmt.Errorf("lookup access token: %w", err)
	}
	if session.Status != models.StatusScheduled {
		return nil, errs.Validation(errs.CodeInvalidLink, "interview link has already been used")
	}

	if err := CheckWindow(session, v.now()); err != nil {
		v.logger.Info("interview link rejected",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return nil, err
	}

	if fingerprint != "" {
		if session.DeviceFingerprint == "" {
			if _, err := v.sessions.RecordFingerprint(ctx, session.ID, fingerprint); err != nil {
				return nil, fmt.Errorf("record device fingerprint: %w", err)
			}
			session.DeviceFingerprint = fingerprint
		} else if session.DeviceFingerprint != fingerprint {
			if v.enforceDeviceBinding {
				return nil, &errs.AuthorizationError{Code: errs.CodeDeviceMismatch, Message: "interview link is bound to another device"}
			}
			v.logger.Warn("device fingerprint mismatch",
				zap.String("session_id", session.ID))
		}
	}

	return session, nil
}

// CheckWindow applies the time rules of a link. Both window edges are inclusive.
func CheckWindow(session *models.InterviewSession, now time.Time) error {
	if session.HasWindow() {
		if now.Before(*session.ValidFrom) {
			from := *session.ValidFrom
			return &errs.ValidationError{Code: errs.CodeNotYetActive, Message: "interview link is not active yet", Boundary: &from}
		}
		if now.After(*session.ValidUntil) {
			until := *session.ValidUntil
			return &errs.ValidationError{Code: errs.CodeWindowExpired, Message: "interview window has closed", Boundary: &until}
		}
		return nil
	}
	if session.ExpiresAt != nil && now.After(*session.ExpiresAt) {
		exp := *session.ExpiresAt
		return &errs.ValidationError{Code: errs.CodeExpired, Message: "interview link has expired", Boundary: &exp}
	}
	return nil
}

// Login validates the attempt and records CANDIDATE_LOGIN.
func (v *Validator) Login(ctx context.Context, attempt LoginAttempt) (*models.InterviewSession, error) {
	session, err := v.Validate(ctx, attempt.Token, attempt.Fingerprint)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditLog{
		SessionID: session.ID,
		ActorID:   session.CandidateID,
		Action:    models.AuditCandidateLogin,
		Details:   datatypes.JSONMap{"fingerprintRecorded": attempt.Fingerprint != ""},
		IPAddress: attempt.IPAddress,
	}
	if err := v.audit.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append login audit: %w", err)
	}

	v.logger.Info("candidate logged in",
		zap.String("session_id", session.ID),
		zap.String("candidate_id", session.CandidateID))
	return session, nil
}
