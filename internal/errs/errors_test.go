package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestValidationErrorIncludesBoundary(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	err := &ValidationError{Code: CodeNotYetActive, Message: "link not active yet", Boundary: &at}

	if !strings.Contains(err.Error(), "2025-03-01T09:00:00Z") {
		t.Fatalf("expected boundary in message, got %q", err.Error())
	}

	plain := Validation(CodeInvalidLink, "unknown link")
	if plain.Error() != "INVALID_LINK: unknown link" {
		t.Fatalf("unexpected message %q", plain.Error())
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("start session: %w", &StateError{Op: "start", Status: "completed"})

	var stateErr *StateError
	if !errors.As(wrapped, &stateErr) {
		t.Fatalf("expected StateError in chain")
	}
	if stateErr.Op != "start" {
		t.Fatalf("unexpected op %s", stateErr.Op)
	}
}

func TestCollaboratorErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &CollaboratorError{Collaborator: "gemini", Code: ErrCodeServiceDown, Message: "request failed", Err: cause}

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if err.Error() != "gemini error: request failed (dial tcp: refused)" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	bare := &CollaboratorError{Collaborator: "smtp", Message: "no host"}
	if bare.Error() != "smtp error: no host" {
		t.Fatalf("unexpected message %q", bare.Error())
	}
}
