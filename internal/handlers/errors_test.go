package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteError(t *testing.T) {
	boundary := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		boundary string
	}{
		{"invalid link", errs.Validation(errs.CodeInvalidLink, "bad"), http.StatusUnauthorized, errs.CodeInvalidLink, ""},
		{"expired", &errs.ValidationError{Code: errs.CodeExpired, Message: "late", Boundary: &boundary}, http.StatusUnauthorized, errs.CodeExpired, "2026-03-01T09:00:00Z"},
		{"not yet active", &errs.ValidationError{Code: errs.CodeNotYetActive, Message: "early", Boundary: &boundary}, http.StatusForbidden, errs.CodeNotYetActive, "2026-03-01T09:00:00Z"},
		{"window closed", errs.Validation(errs.CodeWindowExpired, "closed"), http.StatusForbidden, errs.CodeWindowExpired, ""},
		{"invalid input", errs.InvalidInput("answer must not be empty"), http.StatusBadRequest, errs.CodeInvalidInput, ""},
		{"forbidden", errs.Forbidden("no"), http.StatusForbidden, errs.CodeForbidden, ""},
		{"device mismatch", &errs.AuthorizationError{Code: errs.CodeDeviceMismatch, Message: "other device"}, http.StatusForbidden, errs.CodeDeviceMismatch, ""},
		{"not found wrapped", fmt.Errorf("load session: %w", errs.ErrNotFound), http.StatusNotFound, errs.CodeNotFound, ""},
		{"state", &errs.StateError{Op: "end", Status: "completed"}, http.StatusConflict, errs.CodeInvalidState, ""},
		{"conflict", errs.ErrConflict, http.StatusConflict, errs.CodeConflict, ""},
		{"collaborator", &errs.CollaboratorError{Collaborator: "llm", Message: "timeout"}, http.StatusBadGateway, errs.CodeUpstream, ""},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, errs.CodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, zap.NewNop(), tt.err)

			require.Equal(t, tt.status, rec.Code)
			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.boundary, body.Boundary)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Message, "disk")
			}
		})
	}
}

func TestMergeSkills(t *testing.T) {
	got := mergeSkills([]string{"Go", " ", "docker"}, []string{"go", "Docker", "Kubernetes"})
	assert.Equal(t, []string{"Go", "docker", "Kubernetes"}, got)
	assert.Equal(t, []string{}, mergeSkills(nil, nil))
}

func TestReadyzHandler(t *testing.T) {
	h := NewHealthHandler(map[string]Check{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	h.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "ok", body.Checks["db"].Status)
	assert.Equal(t, "connection refused", body.Checks["redis"].Message)

	healthy := NewHealthHandler(map[string]Check{"db": func(context.Context) error { return nil }})
	rec = httptest.NewRecorder()
	healthy.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
