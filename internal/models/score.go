package models

import "time"

type ShortlistStatus string

const (
	Shortlisted ShortlistStatus = "SHORTLISTED"
	Review      ShortlistStatus = "REVIEW"
	Rejected    ShortlistStatus = "REJECTED"
)

func (s ShortlistStatus) IsValid() bool {
	return s == Shortlisted || s == Review || s == Rejected
}

// ScoreRecord holds the computed result for one completed session. Computed columns are only
// written by the scoring service; recruiters may set the override columns.
type ScoreRecord struct {
	SessionID          string           `gorm:"primaryKey;type:varchar(36)" json:"sessionId"`
	Technical          int              `json:"technical"`
	ProblemSolving     int              `json:"problemSolving"`
	Communication      int              `json:"communication"`
	ResumeAuthenticity int              `json:"resumeAuthenticity"`
	IntegrityRisk      int              `json:"integrityRisk"`
	Confidence         int              `json:"confidence"`
	Final              int              `json:"final"`
	ShortlistStatus    ShortlistStatus  `gorm:"type:varchar(16);not null;index" json:"shortlistStatus"`
	HasCritical        bool             `json:"hasCritical"`
	OverrideStatus     *ShortlistStatus `gorm:"type:varchar(16)" json:"overrideStatus,omitempty"`
	RecruiterNotes     string           `gorm:"type:text" json:"recruiterNotes,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// EffectiveStatus prefers the recruiter override over the automated decision.
func (s *ScoreRecord) EffectiveStatus() ShortlistStatus {
	if s.OverrideStatus != nil {
		return *s.OverrideStatus
	}
	return s.ShortlistStatus
}
