package handlers

import (
	"net/http"

	"intervuex/internal/lifecycle"
	"intervuex/internal/middleware"
	"intervuex/internal/questions"
	"intervuex/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FingerprintHeader carries the candidate's device fingerprint on start.
const FingerprintHeader = "X-Device-Fingerprint"

// InterviewHandler serves the candidate side of a session.
type InterviewHandler struct {
	lifecycle *lifecycle.Manager
	questions *questions.Engine
	logger    *zap.Logger
}

func NewInterviewHandler(manager *lifecycle.Manager, engine *questions.Engine, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		lifecycle: manager,
		questions: engine,
		logger:    utils.OrNop(logger),
	}
}

type interviewView struct {
	*lifecycle.Snapshot
	*questions.State
}

func (h *InterviewHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	claims := callerClaims(r)
	if err := candidateSession(claims, sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.lifecycle.Start(r.Context(), lifecycle.StartInput{
		SessionID:   sessionID,
		CandidateID: claims.Subject,
		Fingerprint: r.Header.Get(FingerprintHeader),
		IPAddress:   clientIP(r),
	}); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondWithView(w, r, sessionID, claims.Subject)
}

func (h *InterviewHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	claims := callerClaims(r)
	if err := candidateSession(claims, sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondWithView(w, r, sessionID, claims.Subject)
}

func (h *InterviewHandler) respondWithView(w http.ResponseWriter, r *http.Request, sessionID, candidateID string) {
	snap, err := h.lifecycle.TimeRemaining(r.Context(), sessionID, candidateID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	state, err := h.questions.State(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, interviewView{Snapshot: snap, State: state})
}

// SubmitAnswerHandler applies the lazy timeout before accepting the answer, so a late answer
// after the budget ran out is rejected with the completed status.
func (h *InterviewHandler) SubmitAnswerHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	claims := callerClaims(r)
	if err := candidateSession(claims, sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req := middleware.GetValidatedRequest[*SubmitAnswerRequest](r)

	snap, err := h.lifecycle.TimeRemaining(r.Context(), sessionID, claims.Subject)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.questions.SubmitAnswer(r.Context(), questions.SubmitInput{
		SessionID:   sessionID,
		CandidateID: claims.Subject,
		QuestionID:  req.QuestionID,
		Answer:      req.Answer,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"analysis":             res.Analysis,
		"nextQuestion":         res.NextQuestion,
		"progress":             res.Progress,
		"allQuestionsAnswered": res.Completed,
		"timeRemaining":        snap.TimeRemaining,
	})
}

func (h *InterviewHandler) TimeRemainingHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	claims := callerClaims(r)
	if err := candidateSession(claims, sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	snap, err := h.lifecycle.TimeRemaining(r.Context(), sessionID, claims.Subject)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"timeRemaining": snap.TimeRemaining,
		"warnings":      snap.Warnings,
		"status":        snap.Session.Status,
		"autoSubmitted": snap.AutoSubmitted,
	})
}

func (h *InterviewHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	claims := callerClaims(r)
	if err := candidateSession(claims, sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.lifecycle.End(r.Context(), sessionID, lifecycle.ReasonCandidate, actorOf(claims))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	// candidates do not see their score
	utils.JSON(w, http.StatusOK, map[string]any{"session": res.Session, "scored": res.Score != nil})
}

// TerminateHandler lets the candidate client stop the session after severe violations.
func (h *InterviewHandler) TerminateHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	claims := callerClaims(r)
	if err := candidateSession(claims, sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req := middleware.GetValidatedRequest[*TerminateRequest](r)

	session, err := h.lifecycle.Terminate(r.Context(), lifecycle.TerminateInput{
		SessionID:      sessionID,
		Reason:         req.Reason,
		IntegrityScore: req.IntegrityScore,
		ViolationCount: req.ViolationCount,
		Actor:          actorOf(claims),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"session": session})
}
