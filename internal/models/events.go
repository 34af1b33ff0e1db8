package models

import "time"

// Event types pushed to session rooms.
const (
	EventInterviewStarted    = "INTERVIEW_STARTED"
	EventInterviewCompleted  = "INTERVIEW_COMPLETED"
	EventInterviewTerminated = "INTERVIEW_TERMINATED"
	EventViolationRecorded   = "VIOLATION_RECORDED"
)

// Audience of an event inside a session room.
const (
	AudienceAll        = "all"
	AudienceRecruiters = "recruiters"
)

// SessionEvent travels over the broker to every instance holding the session room.
type SessionEvent struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Audience  string         `json:"audience"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}
