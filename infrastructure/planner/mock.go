package planner

import (
	"context"
	"sync"

	"github.com/gkosnia163/ollama-agent/domain/agent"
)

// MockPlanner returns a predefined sequence of decisions for testing.
type MockPlanner struct {
	decisions []agent.Decision
	err       error
	index     int
	calls     int
	mu        sync.Mutex
}

// NewMockPlanner creates a mock planner with the given decisions.
func NewMockPlanner(decisions ...agent.Decision) *MockPlanner {
	return &MockPlanner{
		decisions: decisions,
	}
}

// FailWith makes every subsequent call return err.
func (p *MockPlanner) FailWith(err error) *MockPlanner {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// Decide returns the next decision in the sequence.
func (p *MockPlanner) Decide(_ context.Context, _ Request) (agent.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.err != nil {
		return agent.Decision{}, p.err
	}

	if p.index >= len(p.decisions) {
		// Default to finalize if no more decisions
		return agent.NewDecision(agent.ActionFinalize, "no more decisions").WithNextPhase(agent.PhaseFinal), nil
	}

	decision := p.decisions[p.index]
	p.index++
	return decision, nil
}

// Calls returns how many times Decide was called.
func (p *MockPlanner) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Remaining returns the number of remaining decisions.
func (p *MockPlanner) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.decisions) - p.index
}

// MockProvider is a Provider returning canned replies.
// The last reply repeats once the list is used up.
type MockProvider struct {
	name     string
	replies  []string
	err      error
	requests []CompletionRequest
	mu       sync.Mutex
}

// NewMockProvider creates a provider that answers with the given contents.
func NewMockProvider(replies ...string) *MockProvider {
	return &MockProvider{name: "mock", replies: replies}
}

// FailWith makes every subsequent call return err.
func (m *MockProvider) FailWith(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return m.name
}

// Complete records the request and returns the next canned reply.
func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return CompletionResponse{}, m.err
	}
	if len(m.replies) == 0 {
		return CompletionResponse{}, ErrEmptyResponse
	}

	i := len(m.requests) - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return CompletionResponse{
		Model:   "mock",
		Message: Message{Role: RoleAssistant, Content: m.replies[i]},
	}, nil
}

// Requests returns a copy of the recorded requests.
func (m *MockProvider) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Ensure implementations satisfy the interfaces.
var (
	_ Planner  = (*MockPlanner)(nil)
	_ Provider = (*MockProvider)(nil)
	_ Planner  = (*LLMPlanner)(nil)
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*OllamaProvider)(nil)
)
