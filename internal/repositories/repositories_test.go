package repositories

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/models"
	"intervuex/internal/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newSession(recruiterID string) *models.InterviewSession {
	return &models.InterviewSession{
		CandidateID:     uuid.NewString(),
		RecruiterID:     recruiterID,
		AccessToken:     uuid.NewString(),
		Status:          models.StatusScheduled,
		DurationSeconds: 1800,
	}
}

func TestSessionRepository_CreateAndLookup(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()

	s := newSession("rec-1")
	require.NoError(t, repo.Create(ctx, s))
	require.NotEmpty(t, s.ID)

	byID, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.AccessToken, byID.AccessToken)

	byToken, err := repo.GetByAccessToken(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.ID, byToken.ID)

	_, err = repo.GetByAccessToken(ctx, "missing")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestSessionRepository_TransitionIsCompareAndSwap(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()

	s := newSession("rec-1")
	require.NoError(t, repo.Create(ctx, s))

	now := time.Now().UTC()
	ok, err := repo.Transition(ctx, s.ID, []models.SessionStatus{models.StatusScheduled}, models.StatusActive, map[string]any{"start_time": now})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Transition(ctx, s.ID, []models.SessionStatus{models.StatusScheduled}, models.StatusActive, nil)
	require.NoError(t, err)
	assert.False(t, ok, "second start must lose")

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	require.NotNil(t, got.StartTime)
}

func TestSessionRepository_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()

	s := newSession("rec-1")
	s.Status = models.StatusActive
	require.NoError(t, repo.Create(ctx, s))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := models.StatusCompleted
			if i%2 == 0 {
				to = models.StatusTerminated
			}
			ok, err := repo.Transition(ctx, s.ID, []models.SessionStatus{models.StatusActive}, to, nil)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestSessionRepository_RecordFingerprintIsWriteOnce(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()

	s := newSession("rec-1")
	require.NoError(t, repo.Create(ctx, s))

	wrote, err := repo.RecordFingerprint(ctx, s.ID, "device-a")
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = repo.RecordFingerprint(ctx, s.ID, "device-b")
	require.NoError(t, err)
	assert.False(t, wrote)

	got, _ := repo.GetByID(ctx, s.ID)
	assert.Equal(t, "device-a", got.DeviceFingerprint)
}

func TestSessionRepository_DeleteCascades(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	sessions := &SessionRepository{DB: db}
	questions := &QuestionRepository{DB: db}
	violations := &ViolationRepository{DB: db}
	scores := &ScoreRepository{DB: db}
	audit := &AuditRepository{DB: db}
	ctx := context.Background()

	s := newSession("rec-1")
	require.NoError(t, sessions.Create(ctx, s))
	q := &models.Question{SessionID: s.ID, Sequence: 1, Text: "q1", Type: models.QuestionTechnical, Difficulty: models.DifficultyEasy}
	require.NoError(t, questions.CreateQuestion(ctx, q))
	require.NoError(t, questions.CreateAnswer(ctx, &models.Answer{SessionID: s.ID, QuestionID: q.ID, Sequence: 1, Text: "a1"}))
	require.NoError(t, violations.Create(ctx, &models.Violation{SessionID: s.ID, Type: models.ViolationTabSwitch, Severity: models.SeverityHigh, Source: models.ViolationSourceAPI, OccurredAt: time.Now()}))
	_, err := scores.CreateIfAbsent(ctx, &models.ScoreRecord{SessionID: s.ID, ShortlistStatus: models.Review})
	require.NoError(t, err)
	require.NoError(t, audit.Append(ctx, &models.AuditLog{SessionID: s.ID, Action: models.AuditInterviewStarted}))

	require.NoError(t, sessions.Delete(ctx, s.ID))

	_, err = sessions.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	qs, _ := questions.ListQuestions(ctx, s.ID)
	as, _ := questions.ListAnswers(ctx, s.ID)
	vs, _ := violations.ListBySession(ctx, s.ID)
	assert.Empty(t, qs)
	assert.Empty(t, as)
	assert.Empty(t, vs)
	_, err = scores.Get(ctx, s.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	logs, _ := audit.ListBySession(ctx, s.ID)
	assert.Len(t, logs, 1, "audit trail survives deletion")

	assert.ErrorIs(t, sessions.Delete(ctx, s.ID), errs.ErrNotFound)
}

func TestSessionRepository_CountAndList(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()

	for _, status := range []models.SessionStatus{models.StatusScheduled, models.StatusActive, models.StatusActive, models.StatusCompleted} {
		s := newSession("rec-1")
		s.Status = status
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.Create(ctx, newSession("rec-2")))

	counts, err := repo.CountByStatus(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.StatusActive])
	assert.Equal(t, int64(1), counts[models.StatusScheduled])

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	mine, err := repo.ListByRecruiter(ctx, "rec-1", "")
	require.NoError(t, err)
	assert.Len(t, mine, 4)

	completed, err := repo.ListByRecruiter(ctx, "rec-1", models.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestSessionRepository_Touch(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()

	s := newSession("rec-1")
	require.NoError(t, repo.Create(ctx, s))
	assert.NoError(t, repo.Touch(ctx, s.ID))
	assert.ErrorIs(t, repo.Touch(ctx, "missing"), errs.ErrNotFound)
}

func TestQuestionRepository_OrderedBySequence(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &QuestionRepository{DB: db}
	ctx := context.Background()

	seed := []models.Question{
		{SessionID: "s1", Sequence: 2, Text: "second", Type: models.QuestionScenario, Difficulty: models.DifficultyEasy},
		{SessionID: "s1", Sequence: 1, Text: "first", Type: models.QuestionTechnical, Difficulty: models.DifficultyEasy},
	}
	require.NoError(t, repo.CreateQuestions(ctx, seed))

	qs, err := repo.ListQuestions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "first", qs[0].Text)

	dup := &models.Question{SessionID: "s1", Sequence: 1, Text: "again", Type: models.QuestionTechnical, Difficulty: models.DifficultyEasy}
	assert.ErrorIs(t, repo.CreateQuestion(ctx, dup), gorm.ErrDuplicatedKey, "sequence is unique per session")
}

func TestViolationRepository_DetailsRoundTrip(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &ViolationRepository{DB: db}
	ctx := context.Background()

	v := &models.Violation{
		SessionID:  "s1",
		Type:       models.ViolationMultipleFaces,
		Severity:   models.SeverityCritical,
		Source:     models.ViolationSourceChannel,
		Details:    datatypes.JSONMap{"faces": float64(2)},
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, v))

	vs, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, float64(2), vs[0].Details["faces"])
}

func TestScoreRepository_InsertOnceAndOverride(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	sessions := &SessionRepository{DB: db}
	repo := &ScoreRepository{DB: db}
	ctx := context.Background()

	s := newSession("rec-1")
	s.Status = models.StatusCompleted
	require.NoError(t, sessions.Create(ctx, s))

	created, err := repo.CreateIfAbsent(ctx, &models.ScoreRecord{SessionID: s.ID, Final: 80, ShortlistStatus: models.Shortlisted})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, &models.ScoreRecord{SessionID: s.ID, Final: 10, ShortlistStatus: models.Rejected})
	require.NoError(t, err)
	assert.False(t, created)

	rec, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, rec.Final)

	require.NoError(t, repo.SetOverride(ctx, s.ID, models.Review, "needs a second look"))
	require.NoError(t, repo.UpdateComputed(ctx, &models.ScoreRecord{SessionID: s.ID, Final: 40, ShortlistStatus: models.Rejected}))

	rec, err = repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, rec.Final)
	assert.Equal(t, models.Rejected, rec.ShortlistStatus)
	require.NotNil(t, rec.OverrideStatus)
	assert.Equal(t, models.Review, rec.EffectiveStatus())
	assert.Equal(t, "needs a second look", rec.RecruiterNotes)

	assert.ErrorIs(t, repo.SetOverride(ctx, "missing", models.Review, ""), errs.ErrNotFound)
}

func TestScoreRepository_ShortlistUsesEffectiveStatus(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	sessions := &SessionRepository{DB: db}
	repo := &ScoreRepository{DB: db}
	ctx := context.Background()

	auto := newSession("rec-1")
	overridden := newSession("rec-1")
	demoted := newSession("rec-1")
	for _, s := range []*models.InterviewSession{auto, overridden, demoted} {
		s.Status = models.StatusCompleted
		require.NoError(t, sessions.Create(ctx, s))
	}
	_, _ = repo.CreateIfAbsent(ctx, &models.ScoreRecord{SessionID: auto.ID, Final: 90, ShortlistStatus: models.Shortlisted})
	_, _ = repo.CreateIfAbsent(ctx, &models.ScoreRecord{SessionID: overridden.ID, Final: 65, ShortlistStatus: models.Review})
	_, _ = repo.CreateIfAbsent(ctx, &models.ScoreRecord{SessionID: demoted.ID, Final: 75, ShortlistStatus: models.Shortlisted})
	require.NoError(t, repo.SetOverride(ctx, overridden.ID, models.Shortlisted, "strong interview"))
	require.NoError(t, repo.SetOverride(ctx, demoted.ID, models.Rejected, ""))

	list, err := repo.ListShortlisted(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, auto.ID, list[0].SessionID)
	assert.Equal(t, overridden.CandidateID, list[1].CandidateID)

	counts, err := repo.CountByEffectiveStatus(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.Shortlisted])
	assert.Equal(t, int64(1), counts[models.Rejected])
}

func TestRecruiterAndCandidateRepositories(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	recruiters := &RecruiterRepository{DB: db}
	candidates := &CandidateRepository{DB: db}
	ctx := context.Background()

	rec := &models.Recruiter{FullName: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, recruiters.Create(ctx, rec))
	assert.Error(t, recruiters.Create(ctx, &models.Recruiter{FullName: "Dup", Email: "ada@example.com", PasswordHash: "y"}))

	got, err := recruiters.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	require.NoError(t, recruiters.TouchLogin(ctx, rec.ID, time.Now()))
	got, _ = recruiters.GetByID(ctx, rec.ID)
	assert.NotNil(t, got.LastLogin)

	_, err = recruiters.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	c := &models.Candidate{CreatedBy: rec.ID, FullName: "Grace", Email: "grace@example.com"}
	c.SetSkills([]string{"go", "postgres"})
	require.NoError(t, candidates.Create(ctx, c))

	loaded, err := candidates.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "postgres"}, loaded.SkillList())

	list, err := candidates.ListByRecruiter(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
