package handlers

import (
	"context"
	"net/http"
	"time"

	"intervuex/internal/integrity"
	"intervuex/internal/middleware"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SessionHeartbeat interface {
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
	Touch(ctx context.Context, id string) error
}

// ProctoringHandler is the direct API path for violations and integrity reads.
type ProctoringHandler struct {
	integrity *integrity.Service
	sessions  SessionHeartbeat
	logger    *zap.Logger
}

func NewProctoringHandler(svc *integrity.Service, sessions SessionHeartbeat, logger *zap.Logger) *ProctoringHandler {
	return &ProctoringHandler{
		integrity: svc,
		sessions:  sessions,
		logger:    utils.OrNop(logger),
	}
}

func (h *ProctoringHandler) RecordViolationHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := candidateSession(callerClaims(r), sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req := middleware.GetValidatedRequest[*ViolationRequest](r)

	in := integrity.RecordInput{
		SessionID:     sessionID,
		Type:          req.Type,
		Severity:      req.Severity,
		Source:        models.ViolationSourceAPI,
		Message:       req.Message,
		Details:       req.Details,
		ScreenshotRef: req.ScreenshotRef,
	}
	if req.Timestamp != nil {
		in.OccurredAt = *req.Timestamp
	}
	res, err := h.integrity.Record(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, res)
}

func (h *ProctoringHandler) ListViolationsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if !h.authorize(w, r, sessionID) {
		return
	}

	violations, err := h.integrity.List(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"violations":     violations,
		"grouped":        integrity.GroupBySeverity(violations),
		"integrityScore": h.integrity.Weights().IntegrityScore(violations),
	})
}

func (h *ProctoringHandler) IntegrityHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if !h.authorize(w, r, sessionID) {
		return
	}

	summary, err := h.integrity.Current(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}

// HeartbeatHandler marks the candidate client as alive.
func (h *ProctoringHandler) HeartbeatHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := candidateSession(callerClaims(r), sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.sessions.Touch(r.Context(), sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"acknowledged": true, "at": time.Now().UTC()})
}

func (h *ProctoringHandler) authorize(w http.ResponseWriter, r *http.Request, sessionID string) bool {
	session, err := h.sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return false
	}
	if err := participant(callerClaims(r), session); err != nil {
		writeError(w, h.logger, err)
		return false
	}
	return true
}
