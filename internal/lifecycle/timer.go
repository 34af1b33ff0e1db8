package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"intervuex/internal/errs"
	"intervuex/internal/models"

	"go.uber.org/zap"
)

// Warning marks in seconds, each announced during the 5 seconds before it.
var warningMarks = []struct {
	at      int
	message string
}{
	{300, "5 minutes remaining"},
	{600, "10 minutes remaining"},
}

const warningWindow = 5

// Snapshot is a session as seen at read time, with the derived time budget.
type Snapshot struct {
	Session       *models.InterviewSession `json:"session"`
	TimeRemaining int                      `json:"timeRemaining"`
	Warnings      []string                 `json:"warnings"`
	AutoSubmitted bool                     `json:"autoSubmitted"`
}

// CheckTimeout completes an active session whose budget is used up. It returns the current
// session and whether this call completed it. A concurrent completion is not an error.
func (m *Manager) CheckTimeout(ctx context.Context, session *models.InterviewSession) (*models.InterviewSession, bool, error) {
	if session.Status != models.StatusActive || session.StartTime == nil {
		return session, false, nil
	}
	if session.TimeRemaining(m.now()) > 0 {
		return session, false, nil
	}

	res, err := m.End(ctx, session.ID, ReasonTimeout, System)
	if err != nil {
		if IsStateError(err) {
			current, gerr := m.sessions.GetByID(ctx, session.ID)
			if gerr != nil {
				return nil, false, fmt.Errorf("reload session: %w", gerr)
			}
			return current, false, nil
		}
		return nil, false, err
	}
	m.logger.Info("interview auto-submitted on timeout", zap.String("session_id", session.ID))
	return res.Session, true, nil
}

// Snapshot loads the session, applying the lazy timeout first.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return m.snapshotOf(ctx, session)
}

// TimeRemaining is Snapshot restricted to the owning candidate.
func (m *Manager) TimeRemaining(ctx context.Context, sessionID, candidateID string) (*Snapshot, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.CandidateID != candidateID {
		return nil, errs.Forbidden("session belongs to another candidate")
	}
	return m.snapshotOf(ctx, session)
}

func (m *Manager) snapshotOf(ctx context.Context, session *models.InterviewSession) (*Snapshot, error) {
	session, auto, err := m.CheckTimeout(ctx, session)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Session: session, AutoSubmitted: auto, Warnings: []string{}}
	switch session.Status {
	case models.StatusActive:
		snap.TimeRemaining = session.TimeRemaining(m.now())
		snap.Warnings = warningsFor(snap.TimeRemaining)
	case models.StatusScheduled:
		snap.TimeRemaining = session.DurationSeconds
	}
	return snap, nil
}

func warningsFor(remaining int) []string {
	out := []string{}
	for _, w := range warningMarks {
		if remaining <= w.at && remaining > w.at-warningWindow {
			out = append(out, w.message)
		}
	}
	return out
}

// SweepExpired applies CheckTimeout to every active session and returns how many it
// completed.
func (m *Manager) SweepExpired(ctx context.Context, active []models.InterviewSession) (int, error) {
	completed := 0
	var errList []error
	for i := range active {
		_, auto, err := m.CheckTimeout(ctx, &active[i])
		if err != nil {
			errList = append(errList, fmt.Errorf("session %s: %w", active[i].ID, err))
			continue
		}
		if auto {
			completed++
		}
	}
	return completed, errors.Join(errList...)
}
