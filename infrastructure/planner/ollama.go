package planner

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Ollama defaults for the local provider.
const (
	OllamaBaseURL = "http://localhost:11434"
	OllamaModel   = "llama3.2:1b"
)

// OllamaProvider implements the Provider interface for a local Ollama server.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	BaseURL string // Default: http://localhost:11434
	Model   string // Default: llama3.2:1b
	Timeout int    // Timeout in seconds (default: 120)
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(config OllamaConfig) *OllamaProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = OllamaBaseURL
	}
	model := config.Model
	if model == "" {
		model = OllamaModel
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120
	}

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Complete implements the Provider interface.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	// Use model from request or fallback to provider default
	model := req.Model
	if model == "" {
		model = p.model
	}

	opts := []ollama.Option{
		ollama.WithModel(model),
		ollama.WithServerURL(p.baseURL),
		ollama.WithHTTPClient(p.client),
	}
	if req.JSONMode {
		opts = append(opts, ollama.WithFormat("json"))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to create ollama client: %w", err)
	}

	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}

	callOpts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Seed != nil {
		callOpts = append(callOpts, llms.WithSeed(*req.Seed))
	}

	resp, err := llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return CompletionResponse{}, ErrEmptyResponse
	}

	return CompletionResponse{
		Model: model,
		Message: Message{
			Role:    RoleAssistant,
			Content: resp.Choices[0].Content,
		},
	}, nil
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
