package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/integrity"
	"intervuex/internal/lifecycle"
	"intervuex/internal/middleware"
	"intervuex/internal/models"
	"intervuex/internal/notify"
	"intervuex/internal/questions"
	"intervuex/internal/repositories"
	"intervuex/internal/resume"
	"intervuex/internal/scoring"
	"intervuex/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentSessionsLimit = 10

type RecruiterSessionStore interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
	ListByRecruiter(ctx context.Context, recruiterID string, status models.SessionStatus) ([]models.InterviewSession, error)
	CountByStatus(ctx context.Context, recruiterID string) (map[models.SessionStatus]int64, error)
	Delete(ctx context.Context, id string) error
}

type CandidateStore interface {
	Create(ctx context.Context, c *models.Candidate) error
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
	ListByRecruiter(ctx context.Context, recruiterID string) ([]models.Candidate, error)
}

type ReportReader interface {
	ListQuestions(ctx context.Context, sessionID string) ([]models.Question, error)
	ListAnswers(ctx context.Context, sessionID string) ([]models.Answer, error)
}

type ShortlistReader interface {
	ListShortlisted(ctx context.Context, recruiterID string) ([]repositories.ShortlistedEntry, error)
	CountByEffectiveStatus(ctx context.Context, recruiterID string) (map[models.ShortlistStatus]int64, error)
}

// SchedulingConfig holds the defaults applied when scheduling interviews.
type SchedulingConfig struct {
	BaseURL         string
	DefaultDuration int
	LinkExpiry      time.Duration
}

type RecruiterDeps struct {
	Sessions   RecruiterSessionStore
	Candidates CandidateStore
	Records    ReportReader
	Shortlist  ShortlistReader
	Questions  *questions.Engine
	Scoring    *scoring.Service
	Lifecycle  *lifecycle.Manager
	Integrity  *integrity.Service
	Extractor  resume.Extractor
}

type RecruiterHandler struct {
	RecruiterDeps
	config SchedulingConfig
	now    func() time.Time
	logger *zap.Logger
}

func NewRecruiterHandler(deps RecruiterDeps, cfg SchedulingConfig, logger *zap.Logger) *RecruiterHandler {
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 1800
	}
	if cfg.LinkExpiry <= 0 {
		cfg.LinkExpiry = 24 * time.Hour
	}
	return &RecruiterHandler{
		RecruiterDeps: deps,
		config:        cfg,
		now:           time.Now,
		logger:        utils.OrNop(logger),
	}
}

func (h *RecruiterHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	recruiterID := callerClaims(r).Subject

	stats, err := h.Sessions.CountByStatus(r.Context(), recruiterID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	shortlist, err := h.Shortlist.CountByEffectiveStatus(r.Context(), recruiterID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	recent, err := h.Sessions.ListByRecruiter(r.Context(), recruiterID, "")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if len(recent) > recentSessionsLimit {
		recent = recent[:recentSessionsLimit]
	}

	sessionStats := map[models.SessionStatus]int64{}
	for _, s := range []models.SessionStatus{models.StatusScheduled, models.StatusActive, models.StatusCompleted, models.StatusTerminated} {
		sessionStats[s] = stats[s]
	}
	shortlistStats := map[models.ShortlistStatus]int64{}
	for _, s := range []models.ShortlistStatus{models.Shortlisted, models.Review, models.Rejected} {
		shortlistStats[s] = shortlist[s]
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"stats":          sessionStats,
		"shortlistStats": shortlistStats,
		"recentSessions": recent,
	})
}

// CreateCandidateHandler stores a candidate, enriching the profile from the resume text.
func (h *RecruiterHandler) CreateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*CreateCandidateRequest](r)

	c := &models.Candidate{
		CreatedBy:  callerClaims(r).Subject,
		FullName:   strings.TrimSpace(req.Name),
		Email:      utils.NormalizeEmail(req.Email),
		Phone:      req.Phone,
		Experience: req.Experience,
	}
	skills := req.Skills
	if strings.TrimSpace(req.ResumeText) != "" {
		profile, err := h.Extractor.Extract(r.Context(), req.ResumeText)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		skills = mergeSkills(skills, profile.Skills)
		if c.Experience == "" {
			c.Experience = profile.Experience
		}
		c.Education = profile.Education
		c.Projects = profile.Projects
	}
	c.SetSkills(mergeSkills(skills, nil))

	if err := h.Candidates.Create(r.Context(), c); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("candidate created",
		zap.String("candidate_id", c.ID),
		zap.Int("skills", len(c.SkillList())))
	utils.JSON(w, http.StatusCreated, map[string]any{"candidate": c})
}

func (h *RecruiterHandler) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.Candidates.ListByRecruiter(r.Context(), callerClaims(r).Subject)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

// ScheduleInterviewHandler creates a session with a fresh one-time link, seeds its opening
// questions and sends the invitation. A failed email does not fail the request.
func (h *RecruiterHandler) ScheduleInterviewHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*ScheduleInterviewRequest](r)
	recruiterID := callerClaims(r).Subject

	candidate, err := h.Candidates.GetByID(r.Context(), req.CandidateID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if candidate.CreatedBy != recruiterID {
		writeError(w, h.logger, errs.Forbidden("candidate belongs to another recruiter"))
		return
	}

	session := h.newSession(req, candidate, recruiterID)
	if err := h.Sessions.Create(r.Context(), session); err != nil {
		writeError(w, h.logger, err)
		return
	}
	seeded, err := h.Questions.Seed(r.Context(), session.ID, candidate.Profile())
	if err != nil {
		if derr := h.Sessions.Delete(r.Context(), session.ID); derr != nil {
			h.logger.Error("failed to roll back session", zap.String("session_id", session.ID), zap.Error(derr))
		}
		writeError(w, h.logger, err)
		return
	}

	link := fmt.Sprintf("%s/interview/%s", strings.TrimRight(h.config.BaseURL, "/"), session.AccessToken)
	// delivery happens after the response; failures are logged by the manager
	h.Lifecycle.Notify(session.ID, notify.Invitation(candidate, session, link))

	h.logger.Info("interview scheduled",
		zap.String("session_id", session.ID),
		zap.String("candidate_id", candidate.ID),
		zap.Bool("window", session.HasWindow()))
	utils.JSON(w, http.StatusCreated, map[string]any{
		"sessionId":     session.ID,
		"interviewUrl":  link,
		"accessToken":   session.AccessToken,
		"expiresAt":     session.ExpiresAt,
		"validFrom":     session.ValidFrom,
		"validUntil":    session.ValidUntil,
		"duration":      session.DurationSeconds,
		"seedQuestions": len(seeded),
		"emailQueued":   true,
	})
}

func (h *RecruiterHandler) newSession(req *ScheduleInterviewRequest, candidate *models.Candidate, recruiterID string) *models.InterviewSession {
	duration := req.DurationSeconds
	if duration == 0 {
		duration = h.config.DefaultDuration
	}
	s := &models.InterviewSession{
		CandidateID:     candidate.ID,
		RecruiterID:     recruiterID,
		AccessToken:     uuid.NewString(),
		Status:          models.StatusScheduled,
		DurationSeconds: duration,
	}
	if req.ValidFrom != nil {
		from, until := req.ValidFrom.UTC(), req.ValidUntil.UTC()
		s.ValidFrom = &from
		s.ValidUntil = &until
		s.ExpiresAt = &until
		return s
	}
	expiry := h.config.LinkExpiry
	if req.ExpiresInHours > 0 {
		expiry = time.Duration(req.ExpiresInHours) * time.Hour
	}
	exp := h.now().UTC().Add(expiry)
	s.ExpiresAt = &exp
	return s
}

func (h *RecruiterHandler) ownedSession(r *http.Request) (*models.InterviewSession, error) {
	session, err := h.Sessions.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if session.RecruiterID != callerClaims(r).Subject {
		return nil, errs.Forbidden("session belongs to another recruiter")
	}
	return session, nil
}

// ReportHandler gathers everything recorded for one session.
func (h *RecruiterHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.ownedSession(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ctx := r.Context()

	candidate, err := h.Candidates.GetByID(ctx, session.CandidateID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	qs, err := h.Records.ListQuestions(ctx, session.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	answers, err := h.Records.ListAnswers(ctx, session.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	violations, err := h.Integrity.List(ctx, session.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	score, err := h.Scoring.Get(ctx, session.ID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		writeError(w, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"session":    session,
		"candidate":  candidate,
		"questions":  qs,
		"answers":    answers,
		"violations": integrity.GroupBySeverity(violations),
		"integrity":  h.Integrity.Weights().Summarize(violations),
		"score":      score,
	})
}

func (h *RecruiterHandler) BreakdownHandler(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.Scoring.Breakdown(r.Context(), chi.URLParam(r, "id"), callerClaims(r).Subject)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, breakdown)
}

func (h *RecruiterHandler) ShortlistHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*ShortlistRequest](r)
	rec, err := h.Scoring.Override(r.Context(), chi.URLParam(r, "id"), callerClaims(r).Subject, models.ShortlistStatus(req.Status), req.Notes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"score": rec})
}

func (h *RecruiterHandler) RescoreHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Scoring.Rescore(r.Context(), chi.URLParam(r, "id"), callerClaims(r).Subject)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"score": rec})
}

func (h *RecruiterHandler) TerminateHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*TerminateRequest](r)
	session, err := h.Lifecycle.Terminate(r.Context(), lifecycle.TerminateInput{
		SessionID:      chi.URLParam(r, "id"),
		Reason:         req.Reason,
		IntegrityScore: req.IntegrityScore,
		ViolationCount: req.ViolationCount,
		Actor:          actorOf(callerClaims(r)),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"session": session})
}

// DeleteHandler removes a session that is not running. Active sessions must be ended or
// terminated first.
func (h *RecruiterHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.ownedSession(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if session.Status == models.StatusActive {
		writeError(w, h.logger, &errs.StateError{Op: "delete", Status: string(session.Status)})
		return
	}
	if err := h.Sessions.Delete(r.Context(), session.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("interview deleted", zap.String("session_id", session.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecruiterHandler) ShortlistedHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Shortlist.ListShortlisted(r.Context(), callerClaims(r).Subject)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"candidates": entries})
}

// mergeSkills appends extra to base, dropping case-insensitive duplicates and blanks.
func mergeSkills(base, extra []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}
