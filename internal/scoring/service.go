package scoring

import (
	"context"
	"errors"
	"fmt"

	"intervuex/internal/errs"
	"intervuex/internal/metrics"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"go.uber.org/zap"
)

type ScoreStore interface {
	CreateIfAbsent(ctx context.Context, rec *models.ScoreRecord) (bool, error)
	Get(ctx context.Context, sessionID string) (*models.ScoreRecord, error)
	UpdateComputed(ctx context.Context, rec *models.ScoreRecord) error
	SetOverride(ctx context.Context, sessionID string, status models.ShortlistStatus, notes string) error
}

type QuestionReader interface {
	ListQuestions(ctx context.Context, sessionID string) ([]models.Question, error)
	ListAnswers(ctx context.Context, sessionID string) ([]models.Answer, error)
}

type ViolationReader interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Violation, error)
}

type SessionReader interface {
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
}

type AuditWriter interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// Service persists score records for completed sessions.
type Service struct {
	engine     *Engine
	scores     ScoreStore
	questions  QuestionReader
	violations ViolationReader
	sessions   SessionReader
	audit      AuditWriter
	logger     *zap.Logger
}

func NewService(engine *Engine, scores ScoreStore, questions QuestionReader, violations ViolationReader, sessions SessionReader, audit AuditWriter, logger *zap.Logger) *Service {
	return &Service{
		engine:     engine,
		scores:     scores,
		questions:  questions,
		violations: violations,
		sessions:   sessions,
		audit:      audit,
		logger:     utils.OrNop(logger),
	}
}

func (s *Service) compute(ctx context.Context, sessionID string) (*models.ScoreRecord, error) {
	questions, err := s.questions.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.questions.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	violations, err := s.violations.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	return s.engine.Compute(ctx, Input{
		SessionID:  sessionID,
		Questions:  questions,
		Answers:    answers,
		Violations: violations,
	}), nil
}

// ScoreSession computes and stores the record of a completed session. A session is scored at
// most once; a second call returns the stored record.
func (s *Service) ScoreSession(ctx context.Context, sessionID string) (*models.ScoreRecord, error) {
	rec, err := s.compute(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	created, err := s.scores.CreateIfAbsent(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("store score: %w", err)
	}
	if !created {
		s.logger.Info("session already scored", zap.String("session_id", sessionID))
		return s.scores.Get(ctx, sessionID)
	}

	metrics.ShortlistDecision(string(rec.ShortlistStatus))
	s.logger.Info("session scored",
		zap.String("session_id", sessionID),
		zap.Int("final", rec.Final),
		zap.Int("integrity_risk", rec.IntegrityRisk),
		zap.String("shortlist_status", string(rec.ShortlistStatus)))
	return rec, nil
}

// ownedSession loads the session and checks it belongs to the recruiter.
func (s *Service) ownedSession(ctx context.Context, sessionID, recruiterID string) (*models.InterviewSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.RecruiterID != recruiterID {
		return nil, errs.Forbidden("session belongs to another recruiter")
	}
	return session, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (*models.ScoreRecord, error) {
	return s.scores.Get(ctx, sessionID)
}

func (s *Service) Breakdown(ctx context.Context, sessionID, recruiterID string) (*Breakdown, error) {
	if _, err := s.ownedSession(ctx, sessionID, recruiterID); err != nil {
		return nil, err
	}
	rec, err := s.scores.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewBreakdown(rec), nil
}

// Rescore recomputes every computed field from the current state. Running it twice gives the
// same record. A recruiter override survives.
func (s *Service) Rescore(ctx context.Context, sessionID, recruiterID string) (*models.ScoreRecord, error) {
	session, err := s.ownedSession(ctx, sessionID, recruiterID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusCompleted {
		return nil, &errs.StateError{Op: "rescore", Status: string(session.Status)}
	}

	rec, err := s.compute(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	err = s.scores.UpdateComputed(ctx, rec)
	if errors.Is(err, errs.ErrNotFound) {
		// completion stored no record, e.g. the database was down at the time
		_, err = s.scores.CreateIfAbsent(ctx, rec)
	}
	if err != nil {
		return nil, fmt.Errorf("store score: %w", err)
	}

	s.appendAudit(ctx, &models.AuditLog{
		SessionID: sessionID,
		ActorID:   recruiterID,
		Action:    models.AuditScoresRecomputed,
		Details: map[string]any{
			"final":           rec.Final,
			"shortlistStatus": string(rec.ShortlistStatus),
		},
	})
	return s.scores.Get(ctx, sessionID)
}

// Override records the recruiter's decision without touching the computed scores.
func (s *Service) Override(ctx context.Context, sessionID, recruiterID string, status models.ShortlistStatus, notes string) (*models.ScoreRecord, error) {
	if !status.IsValid() {
		return nil, errs.InvalidInput("invalid shortlist status %q", status)
	}
	if _, err := s.ownedSession(ctx, sessionID, recruiterID); err != nil {
		return nil, err
	}
	if err := s.scores.SetOverride(ctx, sessionID, status, notes); err != nil {
		return nil, fmt.Errorf("override shortlist: %w", err)
	}

	s.appendAudit(ctx, &models.AuditLog{
		SessionID: sessionID,
		ActorID:   recruiterID,
		Action:    models.AuditShortlistOverridden,
		Details:   map[string]any{"status": string(status), "notes": notes},
	})
	return s.scores.Get(ctx, sessionID)
}

func (s *Service) appendAudit(ctx context.Context, entry *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit log",
			zap.String("session_id", entry.SessionID),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}
