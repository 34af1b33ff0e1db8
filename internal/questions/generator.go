// Package questions drives the adaptive question flow of an interview.
package questions

import (
	"context"

	"intervuex/internal/models"
)

// Request carries everything a strategy may use to produce the next question.
type Request struct {
	SessionID        string
	Index            int
	Difficulty       models.Difficulty
	PreviousQuestion string
	PreviousAnswer   string
	PreviousQuality  string
	Profile          models.CandidateProfile
	History          []string
	// Amplify asks for a clearly different topic after a duplicate was rejected.
	Amplify bool
}

type Generated struct {
	Text       string
	Type       models.QuestionType
	Difficulty models.Difficulty
	Source     string
}

// Generator is a question generation strategy.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Generated, error)
	Name() string
}
