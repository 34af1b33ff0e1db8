package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditCandidateLogin      = "CANDIDATE_LOGIN"
	AuditInterviewStarted    = "INTERVIEW_STARTED"
	AuditInterviewCompleted  = "INTERVIEW_COMPLETED"
	AuditInterviewTerminated = "INTERVIEW_TERMINATED"
	AuditViolationLogged     = "VIOLATION_LOGGED"
	AuditShortlistOverridden = "SHORTLIST_OVERRIDDEN"
	AuditScoresRecomputed    = "SCORES_RECOMPUTED"
)

// AuditLog is an append-only trail of security relevant actions.
type AuditLog struct {
	ID        uint              `gorm:"primaryKey" json:"id" bson:"-"`
	SessionID string            `gorm:"type:varchar(36);index" json:"sessionId" bson:"session_id"`
	ActorID   string            `gorm:"type:varchar(36)" json:"actorId,omitempty" bson:"actor_id,omitempty"`
	Action    string            `gorm:"type:varchar(32);not null;index" json:"action" bson:"action"`
	Details   datatypes.JSONMap `json:"details,omitempty" bson:"details,omitempty"`
	IPAddress string            `gorm:"type:varchar(64)" json:"ipAddress,omitempty" bson:"ip_address,omitempty"`
	CreatedAt time.Time         `json:"createdAt" bson:"created_at"`
}
