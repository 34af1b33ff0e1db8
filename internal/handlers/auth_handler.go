package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"intervuex/internal/access"
	"intervuex/internal/auth"
	"intervuex/internal/errs"
	"intervuex/internal/middleware"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"go.uber.org/zap"
)

type RecruiterStore interface {
	Create(ctx context.Context, rec *models.Recruiter) error
	GetByEmail(ctx context.Context, email string) (*models.Recruiter, error)
	GetByID(ctx context.Context, id string) (*models.Recruiter, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

type TokenIssuer interface {
	IssueRecruiter(recruiterID, email string) (string, time.Time, error)
	IssueCandidate(candidateID, sessionID string) (string, time.Time, error)
}

// AuthHandler manages the candidate link login and recruiter accounts.
type AuthHandler struct {
	links      *access.Validator
	recruiters RecruiterStore
	tokens     TokenIssuer
	logger     *zap.Logger
}

func NewAuthHandler(links *access.Validator, recruiters RecruiterStore, tokens TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		links:      links,
		recruiters: recruiters,
		tokens:     tokens,
		logger:     utils.OrNop(logger),
	}
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      auth.Role `json:"role"`
	Subject   any       `json:"user,omitempty"`
	Session   any       `json:"session,omitempty"`
}

func (h *AuthHandler) CandidateLoginHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*CandidateLoginRequest](r)

	session, err := h.links.Login(r.Context(), access.LoginAttempt{
		Token:       req.Token,
		Fingerprint: req.DeviceFingerprint,
		IPAddress:   clientIP(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, exp, err := h.tokens.IssueCandidate(session.CandidateID, session.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: exp,
		Role:      auth.RoleCandidate,
		Subject:   map[string]string{"id": session.CandidateID},
		Session: map[string]any{
			"id":       session.ID,
			"duration": session.DurationSeconds,
			"status":   session.Status,
		},
	})
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*RegisterRecruiterRequest](r)
	email := utils.NormalizeEmail(req.Email)

	if _, err := h.recruiters.GetByEmail(r.Context(), email); err == nil {
		utils.JSONError(w, http.StatusConflict, errs.CodeConflict, "email already registered")
		return
	} else if !errors.Is(err, errs.ErrNotFound) {
		writeError(w, h.logger, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec := &models.Recruiter{FullName: req.Name, Email: email, PasswordHash: hash, Company: req.Company}
	if err := h.recruiters.Create(r.Context(), rec); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, exp, err := h.tokens.IssueRecruiter(rec.ID, rec.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("recruiter registered", zap.String("recruiter_id", rec.ID))
	utils.JSON(w, http.StatusCreated, authResponse{Token: token, ExpiresAt: exp, Role: auth.RoleRecruiter, Subject: rec})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*RecruiterLoginRequest](r)

	rec, err := h.recruiters.GetByEmail(r.Context(), utils.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			utils.JSONError(w, http.StatusUnauthorized, errs.CodeUnauthenticated, "invalid credentials")
			return
		}
		writeError(w, h.logger, err)
		return
	}
	if !auth.CheckPassword(rec.PasswordHash, req.Password) {
		utils.JSONError(w, http.StatusUnauthorized, errs.CodeUnauthenticated, "invalid credentials")
		return
	}

	now := time.Now().UTC()
	if err := h.recruiters.TouchLogin(r.Context(), rec.ID, now); err != nil {
		h.logger.Warn("failed to record login time", zap.String("recruiter_id", rec.ID), zap.Error(err))
	}
	rec.LastLogin = &now

	token, exp, err := h.tokens.IssueRecruiter(rec.ID, rec.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, authResponse{Token: token, ExpiresAt: exp, Role: auth.RoleRecruiter, Subject: rec})
}

// MeHandler describes the caller of the current token.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, errs.CodeUnauthenticated, "authentication required")
		return
	}

	if claims.Role == auth.RoleCandidate {
		utils.JSON(w, http.StatusOK, map[string]any{
			"id":        claims.Subject,
			"role":      claims.Role,
			"sessionId": claims.SessionID,
		})
		return
	}

	rec, err := h.recruiters.GetByID(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"id":   rec.ID,
		"role": claims.Role,
		"user": rec,
	})
}
