package integrity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/metrics"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ViolationStore interface {
	Create(ctx context.Context, v *models.Violation) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Violation, error)
}

type SessionReader interface {
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.SessionEvent) error
}

type AuditWriter interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// RecordInput is one fully formed violation, from the API or from the classifier.
type RecordInput struct {
	SessionID     string
	Type          string
	Severity      string
	Source        string
	Message       string
	Details       map[string]any
	ScreenshotRef string
	OccurredAt    time.Time
}

// RecordResult acknowledges an appended violation with the integrity score after it.
type RecordResult struct {
	Violation      *models.Violation `json:"violation"`
	IntegrityScore int               `json:"integrityScore"`
	Acknowledged   bool              `json:"acknowledged"`
}

// Service appends violations and answers integrity queries. Scores are always recomputed from
// the full log, so reads are idempotent and never patched.
type Service struct {
	violations ViolationStore
	sessions   SessionReader
	events     EventPublisher
	audit      AuditWriter
	weights    Weights
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(violations ViolationStore, sessions SessionReader, events EventPublisher, audit AuditWriter, weights Weights, logger *zap.Logger) *Service {
	return &Service{
		violations: violations,
		sessions:   sessions,
		events:     events,
		audit:      audit,
		weights:    weights,
		now:        time.Now,
		logger:     utils.OrNop(logger),
	}
}

func (s *Service) Weights() Weights {
	return s.weights
}

// Record validates and appends a violation. The session may be in any status; late
// client events after completion are still kept for the report.
func (s *Service) Record(ctx context.Context, in RecordInput) (*RecordResult, error) {
	violationType := strings.ToUpper(strings.TrimSpace(in.Type))
	if violationType == "" {
		return nil, errs.InvalidInput("violation type is required")
	}
	severity, ok := models.ParseSeverity(in.Severity)
	if !ok {
		return nil, errs.InvalidInput("invalid severity %q", in.Severity)
	}
	source := in.Source
	if source == "" {
		source = models.ViolationSourceAPI
	}

	if _, err := s.sessions.GetByID(ctx, in.SessionID); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	v := &models.Violation{
		SessionID:     in.SessionID,
		Type:          violationType,
		Severity:      severity,
		Source:        source,
		Message:       in.Message,
		ImpactWeight:  s.weights.For(severity),
		ScreenshotRef: in.ScreenshotRef,
		OccurredAt:    occurredAt.UTC(),
	}
	if len(in.Details) > 0 {
		v.Details = datatypes.JSONMap(in.Details)
	}
	if err := s.violations.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("append violation: %w", err)
	}
	metrics.ViolationRecorded(v.Type, string(v.Severity), v.Source)

	all, err := s.violations.ListBySession(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	score := s.weights.IntegrityScore(all)

	if err := s.audit.Append(ctx, &models.AuditLog{
		SessionID: in.SessionID,
		Action:    models.AuditViolationLogged,
		Details: datatypes.JSONMap{
			"violationId": v.ID,
			"type":        v.Type,
			"severity":    string(v.Severity),
			"source":      v.Source,
		},
	}); err != nil {
		s.logger.Warn("failed to audit violation", zap.String("session_id", in.SessionID), zap.Error(err))
	}

	event := models.SessionEvent{
		Type:      models.EventViolationRecorded,
		SessionID: in.SessionID,
		Audience:  models.AudienceRecruiters,
		Payload: map[string]any{
			"violation":      v,
			"integrityScore": score,
		},
		At: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish violation event", zap.String("session_id", in.SessionID), zap.Error(err))
	}

	s.logger.Info("violation recorded",
		zap.String("session_id", in.SessionID),
		zap.String("type", v.Type),
		zap.String("severity", string(v.Severity)),
		zap.String("source", v.Source),
		zap.Int("integrity_score", score))

	return &RecordResult{Violation: v, IntegrityScore: score, Acknowledged: true}, nil
}

// Current returns the integrity summary computed from every violation logged so far.
func (s *Service) Current(ctx context.Context, sessionID string) (*Summary, error) {
	all, err := s.violations.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	summary := s.weights.Summarize(all)
	return &summary, nil
}

func (s *Service) List(ctx context.Context, sessionID string) ([]models.Violation, error) {
	return s.violations.ListBySession(ctx, sessionID)
}
