// Package scoring turns a finished interview into sub-scores, a final score and a shortlist
// decision.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"intervuex/internal/errs"
	"intervuex/internal/heuristics"
	"intervuex/internal/llm"
	"intervuex/internal/prompts"
	"intervuex/internal/utils"
)

// Mode selects what an evaluation looks at.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeApproach Mode = "approach"
	ModeClaim    Mode = "claim"
)

// NeutralScore stands in for an evaluation that could not be obtained.
const NeutralScore = 50

type EvaluationRequest struct {
	SessionID       string
	QuestionID      string
	Question        string
	Answer          string
	ReferenceAnswer string
	Mode            Mode
	ResumeClaim     string
}

type Evaluation struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// AnswerEvaluator grades one answer on 0..100.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
}

// AIEvaluator grades answers with the configured LLM provider.
type AIEvaluator struct {
	provider llm.Provider
	prompts  *prompts.PromptManager
}

func NewAIEvaluator(provider llm.Provider, pm *prompts.PromptManager) *AIEvaluator {
	return &AIEvaluator{provider: provider, prompts: pm}
}

func (e *AIEvaluator) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeStandard
	}
	reference := ""
	if req.ReferenceAnswer != "" {
		reference = "Reference Answer: " + req.ReferenceAnswer
	}

	prompt, err := e.prompts.BuildPrompt(prompts.AnswerEvaluation, string(mode), map[string]string{
		"Question":    req.Question,
		"Answer":      req.Answer,
		"Reference":   reference,
		"ResumeClaim": req.ResumeClaim,
	})
	if err != nil {
		return nil, err
	}

	resp, err := e.provider.GenerateContent(ctx, prompt, fmt.Sprintf("%s-%s-%s", req.SessionID, req.QuestionID, mode))
	if err != nil {
		return nil, err
	}
	return parseEvaluation(resp.Content)
}

func parseEvaluation(raw string) (*Evaluation, error) {
	body := utils.ExtractJSONObject(raw)
	if body == "" {
		return nil, &errs.CollaboratorError{
			Collaborator: "evaluator",
			Code:         errs.ErrCodeInvalidInput,
			Message:      "response contains no JSON object",
		}
	}
	var parsed struct {
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, &errs.CollaboratorError{
			Collaborator: "evaluator",
			Code:         errs.ErrCodeInvalidInput,
			Message:      "malformed evaluation",
			Err:          err,
		}
	}
	if parsed.Score == nil {
		return nil, &errs.CollaboratorError{
			Collaborator: "evaluator",
			Code:         errs.ErrCodeInvalidInput,
			Message:      "evaluation has no score",
		}
	}
	score := heuristics.Clamp(int(math.Round(*parsed.Score)), 0, 100)
	return &Evaluation{Score: score, Feedback: parsed.Feedback}, nil
}

// HeuristicEvaluator grades with the local answer-quality heuristic. It is used when no AI
// provider is configured.
type HeuristicEvaluator struct{}

func (HeuristicEvaluator) Evaluate(_ context.Context, req EvaluationRequest) (*Evaluation, error) {
	analysis := heuristics.AnalyzeAnswer(req.Answer)
	return &Evaluation{Score: analysis.Score, Feedback: "heuristic " + analysis.Quality}, nil
}
