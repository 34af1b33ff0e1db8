package handlers

import (
	"errors"
	"net/http"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"go.uber.org/zap"
)

// statusForCode maps link and validation codes to HTTP statuses. Unknown or unusable links are
// 401; links that exist but cannot be used at this moment are 403.
func statusForCode(code string) int {
	switch code {
	case errs.CodeInvalidLink, errs.CodeExpired, errs.CodeUnauthenticated:
		return http.StatusUnauthorized
	case errs.CodeNotYetActive, errs.CodeWindowExpired, errs.CodeDeviceMismatch, errs.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// writeError renders err as an ErrorResponse. Anything not recognised is logged and hidden
// behind a 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		verr *errs.ValidationError
		aerr *errs.AuthorizationError
		serr *errs.StateError
		cerr *errs.CollaboratorError
	)
	switch {
	case errors.As(err, &verr):
		resp := models.ErrorResponse{Code: verr.Code, Message: verr.Message}
		if verr.Boundary != nil {
			resp.Boundary = verr.Boundary.UTC().Format(time.RFC3339)
		}
		utils.JSON(w, statusForCode(verr.Code), resp)
	case errors.As(err, &aerr):
		utils.JSONError(w, http.StatusForbidden, aerr.Code, aerr.Message)
	case errors.Is(err, errs.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, errs.CodeNotFound, "resource not found")
	case errors.As(err, &serr):
		utils.JSONError(w, http.StatusConflict, errs.CodeInvalidState, serr.Error())
	case errors.Is(err, errs.ErrConflict):
		utils.JSONError(w, http.StatusConflict, errs.CodeConflict, "request conflicts with a concurrent change")
	case errors.As(err, &cerr):
		logger.Error("collaborator failure", zap.String("collaborator", cerr.Collaborator), zap.Error(err))
		utils.JSONError(w, http.StatusBadGateway, errs.CodeUpstream, cerr.Collaborator+" is unavailable")
	default:
		logger.Error("request failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, errs.CodeInternal, "internal server error")
	}
}
