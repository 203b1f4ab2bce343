package planner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Groq defaults for the hosted provider.
const (
	GroqBaseURL = "https://api.groq.com/openai/v1"
	GroqModel   = "openai/gpt-oss-120b"
)

// OpenAIProvider implements the Provider interface for any OpenAI-compatible
// chat completions endpoint (Groq by default).
type OpenAIProvider struct {
	name    string
	baseURL string
	model   string
	client  *openai.Client
}

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	Name    string // Reported provider name (default: groq)
	APIKey  string // Required
	BaseURL string // Default: GroqBaseURL
	Model   string // Default: GroqModel
	Timeout int    // Timeout in seconds (default: 120)
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	name := config.Name
	if name == "" {
		name = "groq"
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	model := config.Model
	if model == "" {
		model = GroqModel
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: time.Duration(timeout) * time.Second,
	}

	return &OpenAIProvider{
		name:    name,
		baseURL: baseURL,
		model:   model,
		client:  openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Complete implements the Provider interface.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	// Use model from request or fallback to provider default
	model := req.Model
	if model == "" {
		model = p.model
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Seed:        req.Seed,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return CompletionResponse{}, fmt.Errorf("%s error (status %d): %w", p.name, apiErr.HTTPStatusCode, convertAPIError(apiErr))
		}
		return CompletionResponse{}, fmt.Errorf("%s request failed: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return CompletionResponse{}, ErrEmptyResponse
	}

	choice := resp.Choices[0]

	return CompletionResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Message: Message{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		},
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func convertAPIError(e *openai.APIError) *APIError {
	out := &APIError{Type: e.Type, Message: e.Message}
	if out.Type == "" {
		out.Type = "api_error"
	}
	if e.Code != nil {
		out.Code = fmt.Sprint(e.Code)
	}
	return out
}
