package scoring

import (
	"context"
	"math"
	"sync"
	"time"

	"intervuex/internal/heuristics"
	"intervuex/internal/integrity"
	"intervuex/internal/metrics"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"go.uber.org/zap"
)

// Dimension weights of the final score. Integrity risk is subtracted.
const (
	WeightTechnical          = 0.45
	WeightProblemSolving     = 0.25
	WeightCommunication      = 0.15
	WeightResumeAuthenticity = 0.15
	WeightIntegrityRisk      = 0.30
)

const (
	// unanswered resume claim questions count as weak evidence, not as zero
	unansweredClaimScore = 20
	shortAnswerWords     = 20
)

// Input is the full state of a session at scoring time.
type Input struct {
	SessionID  string
	Questions  []models.Question
	Answers    []models.Answer
	Violations []models.Violation
}

// Engine computes score records. It holds no state between calls.
type Engine struct {
	evaluator AnswerEvaluator
	weights   integrity.Weights
	timeout   time.Duration
	logger    *zap.Logger
}

func NewEngine(evaluator AnswerEvaluator, weights integrity.Weights, timeout time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		evaluator: evaluator,
		weights:   weights,
		timeout:   timeout,
		logger:    utils.OrNop(logger),
	}
}

type job struct {
	question models.Question
	answer   string
	mode     Mode
}

// Compute evaluates every answered question concurrently and folds the results into a score
// record. The result depends only on the set of questions, answers and violations, never on
// their order.
func (e *Engine) Compute(ctx context.Context, in Input) *models.ScoreRecord {
	answers := make(map[string]models.Answer, len(in.Answers))
	for _, a := range in.Answers {
		answers[a.QuestionID] = a
	}

	var (
		jobs                               []job
		technicalN, problemN, claimN       int
		claimUnanswered                    int
		technicalIdx, problemIdx, claimIdx []int
	)
	for _, q := range in.Questions {
		a, answered := answers[q.ID]
		if isTechnical(q.Type) {
			technicalN++
			if answered {
				technicalIdx = append(technicalIdx, len(jobs))
				jobs = append(jobs, job{question: q, answer: a.Text, mode: ModeStandard})
			}
		}
		if isProblemSolving(q.Type) {
			problemN++
			if answered {
				problemIdx = append(problemIdx, len(jobs))
				jobs = append(jobs, job{question: q, answer: a.Text, mode: ModeApproach})
			}
		}
		if q.ResumeClaim != "" {
			claimN++
			if answered {
				claimIdx = append(claimIdx, len(jobs))
				jobs = append(jobs, job{question: q, answer: a.Text, mode: ModeClaim})
			} else {
				claimUnanswered++
			}
		}
	}

	scores := e.evaluateAll(ctx, in.SessionID, jobs)

	rec := &models.ScoreRecord{SessionID: in.SessionID}
	rec.Technical = average(sumAt(scores, technicalIdx), technicalN)
	rec.ProblemSolving = average(sumAt(scores, problemIdx), problemN)
	if claimN == 0 {
		rec.ResumeAuthenticity = 100
	} else {
		rec.ResumeAuthenticity = average(sumAt(scores, claimIdx)+claimUnanswered*unansweredClaimScore, claimN)
	}
	rec.Communication = communication(in.Answers)
	rec.IntegrityRisk = e.weights.RiskScore(in.Violations)
	rec.HasCritical = integrity.HasCritical(in.Violations)
	rec.Confidence = Confidence(in.Answers, in.Violations)
	rec.Final = Final(rec.Technical, rec.ProblemSolving, rec.Communication, rec.ResumeAuthenticity, rec.IntegrityRisk)
	rec.ShortlistStatus = Decide(rec.Final, rec.IntegrityRisk, rec.HasCritical)
	return rec
}

// evaluateAll runs one evaluator call per job in parallel. Each failure degrades to the
// neutral score for that job only.
func (e *Engine) evaluateAll(ctx context.Context, sessionID string, jobs []job) []int {
	scores := make([]int, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			scores[i] = e.evaluate(ctx, sessionID, j)
		}(i, j)
	}
	wg.Wait()
	return scores
}

func (e *Engine) evaluate(ctx context.Context, sessionID string, j job) int {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	res, err := e.evaluator.Evaluate(ctx, EvaluationRequest{
		SessionID:       sessionID,
		QuestionID:      j.question.ID,
		Question:        j.question.Text,
		Answer:          j.answer,
		ReferenceAnswer: j.question.ReferenceAnswer,
		Mode:            j.mode,
		ResumeClaim:     j.question.ResumeClaim,
	})
	if err != nil || res == nil {
		metrics.EvaluatorFallback()
		e.logger.Warn("answer evaluation failed, using neutral score",
			zap.String("session_id", sessionID),
			zap.String("question_id", j.question.ID),
			zap.String("mode", string(j.mode)),
			zap.Error(err))
		return NeutralScore
	}
	return heuristics.Clamp(res.Score, 0, 100)
}

func isTechnical(t models.QuestionType) bool {
	return t == models.QuestionTechnical || t == models.QuestionCoding
}

func isProblemSolving(t models.QuestionType) bool {
	return t == models.QuestionScenario || t == models.QuestionCoding
}

func sumAt(scores []int, idx []int) int {
	total := 0
	for _, i := range idx {
		total += scores[i]
	}
	return total
}

func average(total, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(n)))
}

func communication(answers []models.Answer) int {
	total := 0
	for _, a := range answers {
		total += heuristics.CommunicationScore(a.Text)
	}
	return average(total, len(answers))
}

// Final folds the sub-scores into the 0..100 final score.
func Final(technical, problemSolving, communication, resumeAuthenticity, integrityRisk int) int {
	raw := WeightTechnical*float64(technical) +
		WeightProblemSolving*float64(problemSolving) +
		WeightCommunication*float64(communication) +
		WeightResumeAuthenticity*float64(resumeAuthenticity) -
		WeightIntegrityRisk*float64(integrityRisk)
	return heuristics.Clamp(int(math.Round(raw)), 0, 100)
}

// Decide is the automated shortlist rule.
func Decide(final, integrityRisk int, hasCritical bool) models.ShortlistStatus {
	switch {
	case final >= 70 && integrityRisk <= 20 && !hasCritical:
		return models.Shortlisted
	case final < 60 || integrityRisk > 35 || hasCritical:
		return models.Rejected
	default:
		return models.Review
	}
}

// Confidence estimates delivery confidence from hesitation signals. It is reported next to the
// final score but does not feed into it.
func Confidence(answers []models.Answer, violations []models.Violation) int {
	score := 100
	for _, v := range violations {
		switch v.Type {
		case models.ViolationSilence, models.ViolationHesitation:
			score -= 5
		case models.ViolationLookingAway:
			score -= 2
		}
	}
	for _, a := range answers {
		if heuristics.WordCount(a.Text) < shortAnswerWords {
			score -= 3
		}
	}
	return heuristics.Clamp(score, 0, 100)
}
