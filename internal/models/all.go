package models

// All lists every gorm model for AutoMigrate.
func All() []any {
	return []any{
		&Recruiter{},
		&Candidate{},
		&InterviewSession{},
		&Question{},
		&Answer{},
		&Violation{},
		&ScoreRecord{},
		&AuditLog{},
	}
}
