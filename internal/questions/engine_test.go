package questions

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"intervuex/internal/errs"
	"intervuex/internal/models"
	"intervuex/internal/repositories"
	"intervuex/internal/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type engineFixture struct {
	engine    *Engine
	sessions  *repositories.SessionRepository
	questions *repositories.QuestionRepository
	gen       *stubGenerator
	session   *models.InterviewSession
}

func sequentialGenerator() *stubGenerator {
	n := 0
	return &stubGenerator{name: "stub", fn: func(_ context.Context, req Request) (*Generated, error) {
		n++
		return &Generated{
			Text:       fmt.Sprintf("Follow-up question number %d", n),
			Type:       models.QuestionTechnical,
			Difficulty: req.Difficulty,
			Source:     models.SourceAI,
		}, nil
	}}
}

func newEngineFixture(t *testing.T, db *gorm.DB, gen *stubGenerator, status models.SessionStatus) *engineFixture {
	t.Helper()
	pool, err := LoadPool()
	require.NoError(t, err)

	sessions := &repositories.SessionRepository{DB: db}
	questions := &repositories.QuestionRepository{DB: db}
	candidates := &repositories.CandidateRepository{DB: db}

	cand := &models.Candidate{CreatedBy: "rec-1", FullName: "Ada", Email: "ada@example.com"}
	cand.SetSkills([]string{"Go", "Postgres"})
	require.NoError(t, candidates.Create(context.Background(), cand))

	s := &models.InterviewSession{
		CandidateID:     cand.ID,
		RecruiterID:     "rec-1",
		AccessToken:     uuid.NewString(),
		Status:          status,
		DurationSeconds: 1800,
	}
	require.NoError(t, sessions.Create(context.Background(), s))

	engine := NewEngine(questions, sessions, candidates, gen, pool, 3, nil)
	_, err = engine.Seed(context.Background(), s.ID, cand.Profile())
	require.NoError(t, err)

	return &engineFixture{engine: engine, sessions: sessions, questions: questions, gen: gen, session: s}
}

func (f *engineFixture) submitCurrent(t *testing.T, answer string) *SubmitResult {
	t.Helper()
	st, err := f.engine.State(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.NotNil(t, st.Current)
	res, err := f.engine.SubmitAnswer(context.Background(), SubmitInput{
		SessionID:   f.session.ID,
		CandidateID: f.session.CandidateID,
		QuestionID:  st.Current.ID,
		Answer:      answer,
	})
	require.NoError(t, err)
	return res
}

func TestEngine_SeedAndState(t *testing.T) {
	f := newEngineFixture(t, testhelpers.SetupTestDB(t), sequentialGenerator(), models.StatusScheduled)

	st, err := f.engine.State(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.Len(t, st.Questions, 3)
	assert.Equal(t, st.Questions[0].ID, st.Current.ID)
	assert.Equal(t, "Go", st.Questions[2].ResumeClaim)
	assert.Equal(t, Progress{Answered: 0, Total: 10, Percentage: 0}, st.Progress)
}

func TestEngine_SubmitAppendsAdaptiveQuestion(t *testing.T) {
	f := newEngineFixture(t, testhelpers.SetupTestDB(t), sequentialGenerator(), models.StatusActive)

	res := f.submitCurrent(t, "SQL databases are relational with a fixed schema while NoSQL stores trade schema for flexibility.")
	require.NotNil(t, res.NextQuestion)
	assert.Equal(t, 2, res.NextQuestion.Sequence, "next question is the next unanswered one")
	assert.Equal(t, Progress{Answered: 1, Total: 10, Percentage: 10}, res.Progress)
	assert.False(t, res.Completed)

	require.Len(t, f.gen.calls, 1)
	req := f.gen.calls[0]
	assert.Equal(t, 4, req.Index)
	assert.Equal(t, []string{"Go", "Postgres"}, req.Profile.Skills)
	assert.Len(t, req.History, 3)

	qs, err := f.questions.ListQuestions(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.Len(t, qs, 4)
	assert.Equal(t, "Follow-up question number 1", qs[3].Text)
	assert.Equal(t, qs[0].Text, qs[3].GeneratedFrom)
	assert.Equal(t, 4, qs[3].Sequence)
}

func TestEngine_StopsAtTenQuestions(t *testing.T) {
	f := newEngineFixture(t, testhelpers.SetupTestDB(t), sequentialGenerator(), models.StatusActive)

	var last *SubmitResult
	for i := 0; i < models.MaxQuestions; i++ {
		last = f.submitCurrent(t, "A reasonably detailed answer about the trade-offs involved.")
	}
	assert.True(t, last.Completed)
	assert.Nil(t, last.NextQuestion)
	assert.Equal(t, 100, last.Progress.Percentage)
	assert.Len(t, f.gen.calls, models.MaxQuestions-3)

	qs, err := f.questions.ListQuestions(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Len(t, qs, models.MaxQuestions)

	_, err = f.engine.SubmitAnswer(context.Background(), SubmitInput{
		SessionID:   f.session.ID,
		CandidateID: f.session.CandidateID,
		QuestionID:  qs[9].ID,
		Answer:      "again",
	})
	assert.True(t, errors.Is(err, errs.ErrConflict))
}

func TestEngine_SubmitValidation(t *testing.T) {
	f := newEngineFixture(t, testhelpers.SetupTestDB(t), sequentialGenerator(), models.StatusActive)
	ctx := context.Background()
	st, err := f.engine.State(ctx, f.session.ID)
	require.NoError(t, err)

	var verr *errs.ValidationError
	_, err = f.engine.SubmitAnswer(ctx, SubmitInput{SessionID: f.session.ID, CandidateID: f.session.CandidateID, QuestionID: st.Current.ID, Answer: "   "})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, errs.CodeInvalidInput, verr.Code)

	_, err = f.engine.SubmitAnswer(ctx, SubmitInput{SessionID: f.session.ID, CandidateID: f.session.CandidateID, QuestionID: st.Questions[1].ID, Answer: "skip ahead"})
	require.True(t, errors.As(err, &verr), "answers must target the current question")

	var aerr *errs.AuthorizationError
	_, err = f.engine.SubmitAnswer(ctx, SubmitInput{SessionID: f.session.ID, CandidateID: "someone-else", QuestionID: st.Current.ID, Answer: "hi"})
	assert.True(t, errors.As(err, &aerr))

	_, err = f.engine.SubmitAnswer(ctx, SubmitInput{SessionID: "missing", CandidateID: f.session.CandidateID, QuestionID: st.Current.ID, Answer: "hi"})
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	assert.Empty(t, f.gen.calls)
}

func TestEngine_RejectsAnswersOutsideActiveSession(t *testing.T) {
	f := newEngineFixture(t, testhelpers.SetupTestDB(t), sequentialGenerator(), models.StatusScheduled)
	st, err := f.engine.State(context.Background(), f.session.ID)
	require.NoError(t, err)

	_, err = f.engine.SubmitAnswer(context.Background(), SubmitInput{
		SessionID:   f.session.ID,
		CandidateID: f.session.CandidateID,
		QuestionID:  st.Current.ID,
		Answer:      "too early",
	})
	var serr *errs.StateError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "answer", serr.Op)
}

func TestEngine_DuplicateGenerationRetriesOnce(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	calls := 0
	gen := &stubGenerator{name: "stub", fn: func(_ context.Context, req Request) (*Generated, error) {
		calls++
		if !req.Amplify {
			// repeats the first seed question
			return &Generated{Text: req.History[0], Difficulty: req.Difficulty}, nil
		}
		return &Generated{Text: "Describe a cache eviction policy you have tuned.", Difficulty: req.Difficulty}, nil
	}}
	f := newEngineFixture(t, db, gen, models.StatusActive)

	f.submitCurrent(t, "An answer.")
	assert.Equal(t, 2, calls)

	qs, err := f.questions.ListQuestions(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.Len(t, qs, 4)
	assert.Equal(t, "Describe a cache eviction policy you have tuned.", qs[3].Text)
	assert.Equal(t, models.QuestionTechnical, qs[3].Type)
}

func TestEngine_GenerationFailureKeepsList(t *testing.T) {
	gen := &stubGenerator{name: "stub", fn: func(context.Context, Request) (*Generated, error) {
		return nil, errors.New("boom")
	}}
	f := newEngineFixture(t, testhelpers.SetupTestDB(t), gen, models.StatusActive)

	res := f.submitCurrent(t, "An answer.")
	require.NotNil(t, res.NextQuestion)
	assert.Equal(t, 2, res.NextQuestion.Sequence)

	qs, err := f.questions.ListQuestions(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Len(t, qs, 3)
}
