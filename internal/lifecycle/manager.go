// Package lifecycle owns the status machine of an interview session.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/metrics"
	"intervuex/internal/models"
	"intervuex/internal/notify"
	"intervuex/internal/utils"

	"go.uber.org/zap"
)

// End reasons
const (
	ReasonCandidate = "candidate_submitted"
	ReasonRecruiter = "recruiter_ended"
	ReasonTimeout   = "timeout"
)

type SessionStore interface {
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
	RecordFingerprint(ctx context.Context, id, fingerprint string) (bool, error)
	Transition(ctx context.Context, id string, from []models.SessionStatus, to models.SessionStatus, updates map[string]any) (bool, error)
}

type Scorer interface {
	ScoreSession(ctx context.Context, sessionID string) (*models.ScoreRecord, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.SessionEvent) error
}

type AuditWriter interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

type RecruiterReader interface {
	GetByID(ctx context.Context, id string) (*models.Recruiter, error)
}

type CandidateReader interface {
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
}

type ActorKind string

const (
	ActorCandidate ActorKind = "candidate"
	ActorRecruiter ActorKind = "recruiter"
	ActorSystem    ActorKind = "system"
)

// Actor is whoever asks for a transition.
type Actor struct {
	Kind ActorKind
	ID   string
}

var System = Actor{Kind: ActorSystem}

type StartInput struct {
	SessionID   string
	CandidateID string
	Fingerprint string
	IPAddress   string
}

type TerminateInput struct {
	SessionID      string
	Reason         string
	IntegrityScore *int
	ViolationCount *int
	Actor          Actor
}

// EndResult is a completed session and its score. Score is nil when scoring failed; the
// recruiter can rescore later.
type EndResult struct {
	Session *models.InterviewSession `json:"session"`
	Score   *models.ScoreRecord      `json:"score,omitempty"`
}

type Manager struct {
	sessions   SessionStore
	scorer     Scorer
	events     EventPublisher
	audit      AuditWriter
	notifier   notify.Notifier
	recruiters RecruiterReader
	candidates CandidateReader
	now        func() time.Time
	logger     *zap.Logger

	notifications sync.WaitGroup
}

func NewManager(sessions SessionStore, scorer Scorer, events EventPublisher, audit AuditWriter, notifier notify.Notifier, recruiters RecruiterReader, candidates CandidateReader, logger *zap.Logger) *Manager {
	return &Manager{
		sessions:   sessions,
		scorer:     scorer,
		events:     events,
		audit:      audit,
		notifier:   notifier,
		recruiters: recruiters,
		candidates: candidates,
		now:        time.Now,
		logger:     utils.OrNop(logger),
	}
}

// Start activates a scheduled session for its candidate.
func (m *Manager) Start(ctx context.Context, in StartInput) (*models.InterviewSession, error) {
	session, err := m.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.CandidateID != in.CandidateID {
		return nil, errs.Forbidden("session belongs to another candidate")
	}
	if session.Status != models.StatusScheduled {
		return nil, &errs.StateError{Op: "start", Status: string(session.Status)}
	}

	now := m.now().UTC()
	updates := map[string]any{"start_time": now}
	if in.IPAddress != "" {
		updates["ip_address"] = in.IPAddress
	}
	if err := m.transition(ctx, session.ID, "start", []models.SessionStatus{models.StatusScheduled}, models.StatusActive, updates); err != nil {
		return nil, err
	}
	if in.Fingerprint != "" {
		if _, err := m.sessions.RecordFingerprint(ctx, session.ID, in.Fingerprint); err != nil {
			m.logger.Warn("failed to record device fingerprint", zap.String("session_id", session.ID), zap.Error(err))
		}
	}
	metrics.SessionTransition(string(models.StatusActive), "start")

	m.appendAudit(ctx, &models.AuditLog{
		SessionID: session.ID,
		ActorID:   in.CandidateID,
		Action:    models.AuditInterviewStarted,
		Details:   map[string]any{"startTime": now.Format(time.RFC3339)},
		IPAddress: in.IPAddress,
	})
	m.publish(ctx, models.SessionEvent{
		Type:      models.EventInterviewStarted,
		SessionID: session.ID,
		Audience:  models.AudienceAll,
		Payload:   map[string]any{"startTime": now, "durationSeconds": session.DurationSeconds},
		At:        now,
	})
	m.logger.Info("interview started", zap.String("session_id", session.ID))

	return m.sessions.GetByID(ctx, session.ID)
}

// End completes an active session, scores it and notifies the recruiter in the background.
func (m *Manager) End(ctx context.Context, sessionID, reason string, actor Actor) (*EndResult, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err := authorize(session, actor); err != nil {
		return nil, err
	}
	if session.Status != models.StatusActive {
		return nil, &errs.StateError{Op: "end", Status: string(session.Status)}
	}
	if reason == "" {
		reason = defaultReason(actor)
	}

	now := m.now().UTC()
	if err := m.transition(ctx, session.ID, "end", []models.SessionStatus{models.StatusActive}, models.StatusCompleted,
		map[string]any{"end_time": now, "end_reason": reason}); err != nil {
		return nil, err
	}
	metrics.SessionTransition(string(models.StatusCompleted), reason)

	// The session is already completed, so scoring must not depend on the caller staying connected.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completionTimeout)
	defer cancel()

	rec, err := m.scorer.ScoreSession(ctx, session.ID)
	if err != nil {
		m.logger.Error("failed to score completed session",
			zap.String("session_id", session.ID),
			zap.Error(err))
		rec = nil
	}

	details := map[string]any{"reason": reason}
	if rec != nil {
		details["final"] = rec.Final
		details["shortlistStatus"] = string(rec.ShortlistStatus)
	}
	m.appendAudit(ctx, &models.AuditLog{
		SessionID: session.ID,
		ActorID:   actor.ID,
		Action:    models.AuditInterviewCompleted,
		Details:   details,
	})
	m.publish(ctx, models.SessionEvent{
		Type:      models.EventInterviewCompleted,
		SessionID: session.ID,
		Audience:  models.AudienceAll,
		Payload:   map[string]any{"reason": reason, "autoSubmitted": reason == ReasonTimeout},
		At:        now,
	})
	m.logger.Info("interview completed",
		zap.String("session_id", session.ID),
		zap.String("reason", reason))

	updated, err := m.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}
	m.notifyCompletion(updated, rec)
	return &EndResult{Session: updated, Score: rec}, nil
}

// Terminate stops a session that has not finished. Terminated sessions are never scored.
func (m *Manager) Terminate(ctx context.Context, in TerminateInput) (*models.InterviewSession, error) {
	session, err := m.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err := authorize(session, in.Actor); err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, &errs.StateError{Op: "terminate", Status: string(session.Status)}
	}
	reason := in.Reason
	if reason == "" {
		reason = "terminated"
	}

	now := m.now().UTC()
	if err := m.transition(ctx, session.ID, "terminate", []models.SessionStatus{models.StatusScheduled, models.StatusActive}, models.StatusTerminated,
		map[string]any{"end_time": now, "end_reason": reason}); err != nil {
		return nil, err
	}
	metrics.SessionTransition(string(models.StatusTerminated), reason)

	details := map[string]any{"reason": reason}
	if in.IntegrityScore != nil {
		details["integrityScore"] = *in.IntegrityScore
	}
	if in.ViolationCount != nil {
		details["violationCount"] = *in.ViolationCount
	}
	m.appendAudit(ctx, &models.AuditLog{
		SessionID: session.ID,
		ActorID:   in.Actor.ID,
		Action:    models.AuditInterviewTerminated,
		Details:   details,
	})
	m.publish(ctx, models.SessionEvent{
		Type:      models.EventInterviewTerminated,
		SessionID: session.ID,
		Audience:  models.AudienceAll,
		Payload:   map[string]any{"reason": reason},
		At:        now,
	})
	m.logger.Warn("interview terminated",
		zap.String("session_id", session.ID),
		zap.String("reason", reason),
		zap.String("actor", string(in.Actor.Kind)))

	return m.sessions.GetByID(ctx, session.ID)
}

// transition applies the compare-and-swap and turns a lost race into a StateError carrying
// the status that won.
func (m *Manager) transition(ctx context.Context, id, op string, from []models.SessionStatus, to models.SessionStatus, updates map[string]any) error {
	ok, err := m.sessions.Transition(ctx, id, from, to, updates)
	if err != nil {
		return fmt.Errorf("%s session: %w", op, err)
	}
	if ok {
		return nil
	}
	current, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload session: %w", err)
	}
	return &errs.StateError{Op: op, Status: string(current.Status)}
}

func authorize(session *models.InterviewSession, actor Actor) error {
	switch actor.Kind {
	case ActorSystem:
		return nil
	case ActorCandidate:
		if actor.ID == session.CandidateID {
			return nil
		}
	case ActorRecruiter:
		if actor.ID == session.RecruiterID {
			return nil
		}
	}
	return errs.Forbidden("not allowed to act on this session")
}

func defaultReason(actor Actor) string {
	switch actor.Kind {
	case ActorRecruiter:
		return ReasonRecruiter
	case ActorSystem:
		return ReasonTimeout
	default:
		return ReasonCandidate
	}
}

func (m *Manager) appendAudit(ctx context.Context, entry *models.AuditLog) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Append(ctx, entry); err != nil {
		m.logger.Error("failed to append audit log",
			zap.String("session_id", entry.SessionID),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

func (m *Manager) publish(ctx context.Context, event models.SessionEvent) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish session event",
			zap.String("session_id", event.SessionID),
			zap.String("type", event.Type),
			zap.Error(err))
	}
}

const (
	notifyTimeout     = 30 * time.Second
	completionTimeout = 2 * time.Minute
)

// background runs fn outside the request with its own deadline. Wait drains it.
func (m *Manager) background(fn func(ctx context.Context)) {
	m.notifications.Add(1)
	go func() {
		defer m.notifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Notify sends msg without blocking the caller. Failures are logged only.
func (m *Manager) Notify(sessionID string, msg notify.Message) {
	if m.notifier == nil {
		return
	}
	m.background(func(ctx context.Context) {
		if err := m.notifier.Send(ctx, msg); err != nil {
			m.logger.Warn("notification failed",
				zap.String("session_id", sessionID),
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		m.logger.Info("notification sent",
			zap.String("session_id", sessionID),
			zap.String("subject", msg.Subject))
	})
}

// notifyCompletion emails the recruiter without blocking the caller. Failures are logged only.
func (m *Manager) notifyCompletion(session *models.InterviewSession, rec *models.ScoreRecord) {
	if m.notifier == nil || m.recruiters == nil {
		return
	}
	m.background(func(ctx context.Context) {
		recruiter, err := m.recruiters.GetByID(ctx, session.RecruiterID)
		if err != nil {
			m.logger.Warn("completion notification skipped, recruiter unavailable",
				zap.String("session_id", session.ID),
				zap.Error(err))
			return
		}
		candidateName := session.CandidateID
		if m.candidates != nil {
			if c, err := m.candidates.GetByID(ctx, session.CandidateID); err == nil {
				candidateName = c.FullName
			}
		}
		if err := m.notifier.Send(ctx, notify.Completion(recruiter, session, candidateName, rec)); err != nil {
			m.logger.Warn("completion notification failed",
				zap.String("session_id", session.ID),
				zap.Error(err))
			return
		}
		m.logger.Info("completion notification sent", zap.String("session_id", session.ID))
	})
}

// Wait blocks until background notifications have finished.
func (m *Manager) Wait() {
	m.notifications.Wait()
}

// IsStateError reports whether err is a rejected transition.
func IsStateError(err error) bool {
	var serr *errs.StateError
	return errors.As(err, &serr)
}
