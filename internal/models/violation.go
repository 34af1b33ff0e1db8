package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// ParseSeverity accepts any casing.
func ParseSeverity(raw string) (Severity, bool) {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.IsValid()
}

// Known violation types. The direct API also accepts types outside this list.
const (
	ViolationMultipleFaces   = "MULTIPLE_FACES"
	ViolationNoFace          = "NO_FACE"
	ViolationFaceDisappeared = "FACE_DISAPPEARED"
	ViolationUnknownFace     = "UNKNOWN_FACE_DETECTED"
	ViolationFaceSubstituted = "FACE_SUBSTITUTION"
	ViolationSecondVoice     = "SECOND_VOICE_DETECTED"
	ViolationBackgroundNoise = "BACKGROUND_NOISE"
	ViolationTabSwitch       = "TAB_SWITCH"
	ViolationWindowBlur      = "WINDOW_BLUR"
	ViolationCopyPaste       = "COPY_PASTE"
	ViolationDevTools        = "DEV_TOOLS"
	ViolationLookingAway     = "LOOKING_AWAY"
	ViolationPhoneDetected   = "PHONE_DETECTED"
	ViolationSilence         = "SILENCE"
	ViolationHesitation      = "HESITATION"
)

// Ingestion path of a violation.
const (
	ViolationSourceAPI     = "api"
	ViolationSourceChannel = "channel"
)

// Violation is never updated after insert.
type Violation struct {
	ID            string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID     string            `gorm:"type:varchar(36);not null;index" json:"sessionId"`
	Type          string            `gorm:"type:varchar(48);not null;index" json:"type"`
	Severity      Severity          `gorm:"type:varchar(16);not null" json:"severity"`
	Source        string            `gorm:"type:varchar(16);not null" json:"source"`
	Message       string            `gorm:"type:text" json:"message,omitempty"`
	Details       datatypes.JSONMap `json:"details,omitempty"`
	ImpactWeight  int               `json:"impactWeight"`
	ScreenshotRef string            `gorm:"type:text" json:"screenshotRef,omitempty"`
	OccurredAt    time.Time         `gorm:"not null;index" json:"timestamp"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func (v *Violation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
