package handlers

import (
	"net/mail"
	"strings"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/models"
)

type CandidateLoginRequest struct {
	Token             string `json:"token"`
	DeviceFingerprint string `json:"deviceFingerprint"`
}

func (r *CandidateLoginRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return &models.ErrorResponse{Code: errs.CodeInvalidInput, Message: "token is required"}
	}
	return nil
}

type RegisterRecruiterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Company  string `json:"company"`
}

func (r *RegisterRecruiterRequest) Validate() error {
	var details []models.ValidationErrorDetail
	if strings.TrimSpace(r.Name) == "" {
		details = append(details, models.ValidationErrorDetail{Field: "name", Reason: "required"})
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		details = append(details, models.ValidationErrorDetail{Field: "email", Reason: "must be a valid address"})
	}
	if len(r.Password) < 8 {
		details = append(details, models.ValidationErrorDetail{Field: "password", Reason: "must be at least 8 characters"})
	}
	if len(details) > 0 {
		return &models.ErrorResponse{Code: errs.CodeInvalidInput, Message: "invalid registration", Details: details}
	}
	return nil
}

type RecruiterLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RecruiterLoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return &models.ErrorResponse{Code: errs.CodeInvalidInput, Message: "email and password are required"}
	}
	return nil
}

type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

func (r *SubmitAnswerRequest) Validate() error {
	if r.QuestionID == "" {
		return errs.InvalidInput("questionId is required")
	}
	if strings.TrimSpace(r.Answer) == "" {
		return errs.InvalidInput("answer must not be empty")
	}
	return nil
}

type TerminateRequest struct {
	Reason         string `json:"reason"`
	IntegrityScore *int   `json:"integrityScore"`
	ViolationCount *int   `json:"violationCount"`
}

func (r *TerminateRequest) Validate() error {
	if r.IntegrityScore != nil && (*r.IntegrityScore < 0 || *r.IntegrityScore > 100) {
		return errs.InvalidInput("integrityScore must be between 0 and 100")
	}
	if r.ViolationCount != nil && *r.ViolationCount < 0 {
		return errs.InvalidInput("violationCount must not be negative")
	}
	return nil
}

type ViolationRequest struct {
	Type          string         `json:"type"`
	Severity      string         `json:"severity"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details"`
	ScreenshotRef string         `json:"screenshotRef"`
	Timestamp     *time.Time     `json:"timestamp"`
}

func (r *ViolationRequest) Validate() error {
	if strings.TrimSpace(r.Type) == "" {
		return errs.InvalidInput("type is required")
	}
	if _, ok := models.ParseSeverity(r.Severity); !ok {
		return errs.InvalidInput("severity must be one of LOW, MEDIUM, HIGH, CRITICAL")
	}
	return nil
}

type CreateCandidateRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	ResumeText string   `json:"resumeText"`
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
}

func (r *CreateCandidateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errs.InvalidInput("name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errs.InvalidInput("email must be a valid address")
	}
	return nil
}

type ScheduleInterviewRequest struct {
	CandidateID     string     `json:"candidateId"`
	DurationSeconds int        `json:"duration"`
	ExpiresInHours  int        `json:"expiresIn"`
	ValidFrom       *time.Time `json:"validFrom"`
	ValidUntil      *time.Time `json:"validUntil"`
}

func (r *ScheduleInterviewRequest) Validate() error {
	if r.CandidateID == "" {
		return errs.InvalidInput("candidateId is required")
	}
	if r.DurationSeconds < 0 || r.ExpiresInHours < 0 {
		return errs.InvalidInput("duration and expiresIn must not be negative")
	}
	if (r.ValidFrom == nil) != (r.ValidUntil == nil) {
		return errs.InvalidInput("validFrom and validUntil must be set together")
	}
	if r.ValidFrom != nil && !r.ValidFrom.Before(*r.ValidUntil) {
		return errs.InvalidInput("validFrom must be before validUntil")
	}
	return nil
}

type ShortlistRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (r *ShortlistRequest) Validate() error {
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	if !models.ShortlistStatus(r.Status).IsValid() {
		return errs.InvalidInput("status must be one of SHORTLISTED, REVIEW, REJECTED")
	}
	return nil
}
