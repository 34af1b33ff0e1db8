package questions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"intervuex/internal/llm"
	"intervuex/internal/models"
	"intervuex/internal/prompts"
	"intervuex/internal/utils"
)

// AIGenerator asks the configured LLM provider for a follow-up question.
type AIGenerator struct {
	provider llm.Provider
	prompts  *prompts.PromptManager
}

func NewAIGenerator(provider llm.Provider, pm *prompts.PromptManager) *AIGenerator {
	return &AIGenerator{provider: provider, prompts: pm}
}

func (g *AIGenerator) Name() string { return models.SourceAI }

func (g *AIGenerator) Generate(ctx context.Context, req Request) (*Generated, error) {
	variant := string(req.Difficulty)
	if req.Amplify {
		variant = "amplified"
	}

	prompt, err := g.prompts.BuildPrompt(prompts.QuestionGeneration, variant, promptVars(req))
	if err != nil {
		return nil, err
	}

	requestID := fmt.Sprintf("%s-q%d", req.SessionID, req.Index)
	resp, err := g.provider.GenerateContent(ctx, prompt, requestID)
	if err != nil {
		return nil, err
	}

	text := cleanQuestion(resp.Content)
	if text == "" {
		return nil, errors.New("provider returned no question text")
	}

	return &Generated{
		Text:       text,
		Type:       models.QuestionTechnical,
		Difficulty: req.Difficulty,
		Source:     models.SourceAI,
	}, nil
}

func promptVars(req Request) map[string]string {
	skills := "Not specified"
	focus := "technical"
	if len(req.Profile.Skills) > 0 {
		skills = strings.Join(req.Profile.Skills, ", ")
		focus = req.Profile.Skills[0]
	}
	experience := req.Profile.Experience
	if experience == "" {
		experience = "Not specified"
	}

	var history strings.Builder
	for i, q := range req.History {
		fmt.Fprintf(&history, "%d. %s\n", i+1, q)
	}

	return map[string]string{
		"Difficulty":       string(req.Difficulty),
		"Skills":           skills,
		"Experience":       experience,
		"Index":            strconv.Itoa(req.Index),
		"PreviousIndex":    strconv.Itoa(req.Index - 1),
		"PreviousQuestion": req.PreviousQuestion,
		"PreviousAnswer":   req.PreviousAnswer,
		"History":          strings.TrimRight(history.String(), "\n"),
		"FocusSkill":       focus,
	}
}

// cleanQuestion strips fences, labels and wrapping quotes that models like to add.
func cleanQuestion(raw string) string {
	text := utils.StripFences(raw)
	text = strings.TrimSpace(strings.TrimPrefix(text, "Question:"))
	text = strings.Trim(text, "\"' ")
	return strings.TrimSpace(text)
}
