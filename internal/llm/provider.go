package llm

import (
	"context"
)

// defines the interface for LLM providers
type Provider interface {
	GenerateContent(ctx context.Context, prompt string, requestID string) (*GenerationResponse, error)
	GetProviderName() string
}

type GenerationResponse struct {
	Content   string             `json:"content"`
	RequestID string             `json:"requestId"`
	Metadata  GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	ProcessingTime int    `json:"processingTimeMs"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}
