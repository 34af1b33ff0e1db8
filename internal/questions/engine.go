package questions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/heuristics"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Store interface {
	ListQuestions(ctx context.Context, sessionID string) ([]models.Question, error)
	ListAnswers(ctx context.Context, sessionID string) ([]models.Answer, error)
	CreateQuestion(ctx context.Context, q *models.Question) error
	CreateQuestions(ctx context.Context, qs []models.Question) error
	CreateAnswer(ctx context.Context, a *models.Answer) error
}

type SessionReader interface {
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
}

type CandidateReader interface {
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
}

type Progress struct {
	Answered   int `json:"answered"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func progressFor(answered int) Progress {
	pct := int(math.Round(float64(answered) / float64(models.MaxQuestions) * 100))
	return Progress{Answered: answered, Total: models.MaxQuestions, Percentage: pct}
}

type SubmitInput struct {
	SessionID   string
	CandidateID string
	QuestionID  string
	Answer      string
}

type SubmitResult struct {
	Analysis     heuristics.Analysis `json:"analysis"`
	NextQuestion *models.Question    `json:"nextQuestion"`
	Progress     Progress            `json:"progress"`
	Completed    bool                `json:"allQuestionsAnswered"`
}

// State is the question side of a session snapshot.
type State struct {
	Questions []models.Question `json:"questions"`
	Current   *models.Question  `json:"currentQuestion"`
	Progress  Progress          `json:"progress"`
}

type Engine struct {
	store      Store
	sessions   SessionReader
	candidates CandidateReader
	generator  Generator
	pool       *Pool
	seedCount  int
	logger     *zap.Logger
}

func NewEngine(store Store, sessions SessionReader, candidates CandidateReader, generator Generator, pool *Pool, seedCount int, logger *zap.Logger) *Engine {
	return &Engine{
		store:      store,
		sessions:   sessions,
		candidates: candidates,
		generator:  generator,
		pool:       pool,
		seedCount:  seedCount,
		logger:     utils.OrNop(logger),
	}
}

// Seed creates the opening questions of a newly scheduled session.
func (e *Engine) Seed(ctx context.Context, sessionID string, profile models.CandidateProfile) ([]models.Question, error) {
	n := e.seedCount
	if n < 1 {
		n = 1
	}
	qs := e.pool.SeedQuestions(profile, n)
	for i := range qs {
		qs[i].SessionID = sessionID
	}
	if err := e.store.CreateQuestions(ctx, qs); err != nil {
		return nil, fmt.Errorf("seed questions: %w", err)
	}
	return qs, nil
}

func (e *Engine) State(ctx context.Context, sessionID string) (*State, error) {
	questions, err := e.store.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := e.store.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	st := &State{Questions: questions, Progress: progressFor(len(answers))}
	if len(answers) < len(questions) {
		current := questions[len(answers)]
		st.Current = &current
	}
	return st, nil
}

// SubmitAnswer records the answer to the current question and, while the interview is not
// full, appends an adaptive follow-up.
func (e *Engine) SubmitAnswer(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	text := strings.TrimSpace(in.Answer)
	if text == "" {
		return nil, errs.InvalidInput("answer must not be empty")
	}
	if in.QuestionID == "" {
		return nil, errs.InvalidInput("questionId is required")
	}

	session, err := e.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.CandidateID != in.CandidateID {
		return nil, errs.Forbidden("session belongs to another candidate")
	}
	if session.Status != models.StatusActive {
		return nil, &errs.StateError{Op: "answer", Status: string(session.Status)}
	}

	questions, err := e.store.ListQuestions(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := e.store.ListAnswers(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if len(answers) >= len(questions) {
		return nil, fmt.Errorf("no unanswered question: %w", errs.ErrConflict)
	}
	current := questions[len(answers)]
	if current.ID != in.QuestionID {
		return nil, errs.InvalidInput("answer must target the current question %s", current.ID)
	}

	analysis := heuristics.AnalyzeAnswer(text)
	answer := &models.Answer{
		SessionID:    in.SessionID,
		QuestionID:   current.ID,
		Sequence:     len(answers) + 1,
		Text:         text,
		Quality:      analysis.Quality,
		QualityScore: analysis.Score,
	}
	if err := e.store.CreateAnswer(ctx, answer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("question already answered: %w", errs.ErrConflict)
		}
		return nil, fmt.Errorf("append answer: %w", err)
	}
	answered := len(answers) + 1

	if answered < models.MaxQuestions && len(questions) < models.MaxQuestions {
		if q := e.nextQuestion(ctx, session, questions, current, text, analysis.Quality); q != nil {
			questions = append(questions, *q)
		}
	}

	res := &SubmitResult{
		Analysis:  analysis,
		Progress:  progressFor(answered),
		Completed: answered >= models.MaxQuestions,
	}
	if answered < len(questions) {
		next := questions[answered]
		res.NextQuestion = &next
	}
	return res, nil
}

// nextQuestion generates and appends one follow-up. Generation problems are logged and leave
// the list as it is.
func (e *Engine) nextQuestion(ctx context.Context, session *models.InterviewSession, questions []models.Question, last models.Question, answer, quality string) *models.Question {
	history := make([]string, 0, len(questions))
	for _, q := range questions {
		history = append(history, q.Text)
	}
	index := len(questions) + 1
	req := Request{
		SessionID:        session.ID,
		Index:            index,
		Difficulty:       DifficultyFor(index, quality),
		PreviousQuestion: last.Text,
		PreviousAnswer:   answer,
		PreviousQuality:  quality,
		Profile:          e.profile(ctx, session.CandidateID),
		History:          history,
	}

	gen, err := e.generator.Generate(ctx, req)
	if err == nil && IsDuplicateOfAny(gen.Text, history) {
		e.logger.Info("generated question repeats history, retrying",
			zap.String("session_id", session.ID),
			zap.Int("index", index))
		req.Amplify = true
		// the retry is accepted as is
		gen, err = e.generator.Generate(ctx, req)
	}
	if err != nil {
		e.logger.Error("question generation failed",
			zap.String("session_id", session.ID),
			zap.Int("index", index),
			zap.Error(err))
		return nil
	}

	q := &models.Question{
		SessionID:     session.ID,
		Sequence:      index,
		Text:          gen.Text,
		Type:          gen.Type,
		Difficulty:    gen.Difficulty,
		GeneratedFrom: last.Text,
		Source:        gen.Source,
		CreatedAt:     time.Now().UTC(),
	}
	if !q.Difficulty.IsValid() {
		q.Difficulty = req.Difficulty
	}
	if q.Type == "" {
		q.Type = models.QuestionTechnical
	}
	if err := e.store.CreateQuestion(ctx, q); err != nil {
		e.logger.Error("failed to append generated question",
			zap.String("session_id", session.ID),
			zap.Int("index", index),
			zap.Error(err))
		return nil
	}
	return q
}

func (e *Engine) profile(ctx context.Context, candidateID string) models.CandidateProfile {
	if e.candidates == nil {
		return models.CandidateProfile{}
	}
	c, err := e.candidates.GetByID(ctx, candidateID)
	if err != nil {
		e.logger.Warn("candidate profile unavailable",
			zap.String("candidate_id", candidateID),
			zap.Error(err))
		return models.CandidateProfile{}
	}
	return c.Profile()
}
