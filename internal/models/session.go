package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	StatusScheduled  SessionStatus = "scheduled"
	StatusActive     SessionStatus = "active"
	StatusCompleted  SessionStatus = "completed"
	StatusTerminated SessionStatus = "terminated"
)

// IsTerminal reports whether no further transition is possible.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusTerminated
}

func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusCompleted, StatusTerminated:
		return true
	default:
		return false
	}
}

// InterviewSession is a single timed assessment attempt bound to one access token.
type InterviewSession struct {
	ID                string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CandidateID       string        `gorm:"type:varchar(36);not null;index" json:"candidateId"`
	RecruiterID       string        `gorm:"type:varchar(36);not null;index" json:"recruiterId"`
	AccessToken       string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Status            SessionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	ValidFrom         *time.Time    `json:"validFrom,omitempty"`
	ValidUntil        *time.Time    `json:"validUntil,omitempty"`
	ExpiresAt         *time.Time    `json:"expiresAt,omitempty"`
	DurationSeconds   int           `gorm:"not null" json:"durationSeconds"`
	StartTime         *time.Time    `json:"startTime,omitempty"`
	EndTime           *time.Time    `json:"endTime,omitempty"`
	EndReason         string        `gorm:"type:varchar(64)" json:"endReason,omitempty"`
	DeviceFingerprint string        `gorm:"type:text" json:"-"`
	IPAddress         string        `gorm:"type:varchar(64)" json:"-"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

func (s *InterviewSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// HasWindow reports whether the link is restricted to [ValidFrom, ValidUntil].
func (s *InterviewSession) HasWindow() bool {
	return s.ValidFrom != nil && s.ValidUntil != nil
}

// TimeRemaining is derived from the start time and never stored.
func (s *InterviewSession) TimeRemaining(now time.Time) int {
	if s.StartTime == nil {
		return s.DurationSeconds
	}
	elapsed := int(now.Sub(*s.StartTime) / time.Second)
	remaining := s.DurationSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
