package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxQuestions bounds the question list of a single session.
const MaxQuestions = 10

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) IsValid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

type QuestionType string

const (
	QuestionTechnical  QuestionType = "technical"
	QuestionCoding     QuestionType = "coding"
	QuestionScenario   QuestionType = "scenario"
	QuestionBehavioral QuestionType = "behavioral"
)

// Where a question came from.
const (
	SourceSeed = "seed"
	SourceAI   = "ai"
	SourcePool = "pool"
)

// Question rows are append-only; (session_id, sequence) is unique.
type Question struct {
	ID              string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID       string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_question_seq" json:"sessionId"`
	Sequence        int          `gorm:"not null;uniqueIndex:idx_question_seq" json:"questionNumber"`
	Text            string       `gorm:"type:text;not null" json:"question"`
	Type            QuestionType `gorm:"type:varchar(16);not null" json:"type"`
	Difficulty      Difficulty   `gorm:"type:varchar(8);not null" json:"difficulty"`
	ResumeClaim     string       `gorm:"type:text" json:"resumeClaim,omitempty"`
	ReferenceAnswer string       `gorm:"type:text" json:"-"`
	GeneratedFrom   string       `gorm:"type:text" json:"generatedFrom,omitempty"`
	Source          string       `gorm:"type:varchar(8)" json:"source"`
	CreatedAt       time.Time    `json:"timestamp"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// Answer rows are append-only; one answer per question.
type Answer struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_answer_seq" json:"sessionId"`
	QuestionID   string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"questionId"`
	Sequence     int       `gorm:"not null;uniqueIndex:idx_answer_seq" json:"sequence"`
	Text         string    `gorm:"type:text;not null" json:"answer"`
	Quality      string    `gorm:"type:varchar(16)" json:"quality"`
	QualityScore int       `json:"score"`
	CreatedAt    time.Time `json:"timestamp"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
