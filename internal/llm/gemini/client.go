package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"intervuex/internal/errs"
	"intervuex/internal/llm"
)

const providerName = "gemini"

// Client is the Gemini implementation of llm.Provider.
type Client struct {
	config   *Config
	generate func(ctx context.Context, model, prompt string) (string, error)
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &errs.CollaboratorError{
			Collaborator: providerName,
			Code:         errs.ErrCodeAPIKey,
			Message:      "Failed to create Gemini client",
			Err:          err,
		}
	}

	return &Client{
		config: config,
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
			if err != nil {
				return "", err
			}
			if result == nil {
				return "", nil
			}
			return result.Text()
		},
	}, nil
}

func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string) (*llm.GenerationResponse, error) {
	startTime := time.Now()
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	text, err := c.generate(ctx, c.config.Model, prompt)
	if err != nil {
		return nil, classifyError(err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, &errs.CollaboratorError{
			Collaborator: providerName,
			Code:         errs.ErrCodeInvalidInput,
			Message:      "Empty response generated",
		}
	}

	return &llm.GenerationResponse{
		Content:   text,
		RequestID: requestID,
		Metadata: llm.GenerationMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Provider:       providerName,
			Model:          c.config.Model,
		},
	}, nil
}

func (c *Client) GetProviderName() string {
	return providerName
}

func classifyError(err error) *errs.CollaboratorError {
	code := errs.ErrCodeServiceDown
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = errs.ErrCodeTimeout
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource_exhausted"):
		code = errs.ErrCodeRateLimit
	case strings.Contains(msg, "api key") || strings.Contains(msg, "401") || strings.Contains(msg, "permission_denied"):
		code = errs.ErrCodeAPIKey
	}
	return &errs.CollaboratorError{
		Collaborator: providerName,
		Code:         code,
		Message:      "Failed to generate content",
		Err:          err,
	}
}
