package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/infrastructure/logging"
)

// Planner defaults.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 512
)

// decisionSchema is the shape every provider reply must match.
const decisionSchema = `{
  "type": "object",
  "required": ["action"],
  "properties": {
    "action":     {"type": "string", "minLength": 1},
    "reasoning":  {"type": "string"},
    "thought":    {"type": "string"},
    "arguments":  {"type": ["object", "null"]},
    "next_phase": {"type": ["string", "null"]}
  }
}`

var compiledDecisionSchema = mustCompileSchema(decisionSchema)

func mustCompileSchema(raw string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("planner: invalid decision schema: %v", err))
	}
	return s
}

// LLMPlanner uses an LLM provider to make phase decisions.
type LLMPlanner struct {
	provider        Provider
	model           string
	temperature     float64
	maxTokens       int
	seed            *int
	baseInstruction string
}

// LLMPlannerConfig configures the LLM planner.
type LLMPlannerConfig struct {
	Provider        Provider
	Model           string
	Temperature     float64
	MaxTokens       int
	Seed            *int
	BaseInstruction string
}

// NewLLMPlanner creates a new LLM-based planner.
func NewLLMPlanner(config LLMPlannerConfig) *LLMPlanner {
	base := config.BaseInstruction
	if base == "" {
		base = BaseInstruction
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	return &LLMPlanner{
		provider:        config.Provider,
		model:           config.Model,
		temperature:     temperature,
		maxTokens:       maxTokens,
		seed:            config.Seed,
		baseInstruction: base,
	}
}

// Name returns the underlying provider name.
func (p *LLMPlanner) Name() string {
	return p.provider.Name()
}

// Decide implements the Planner interface.
func (p *LLMPlanner) Decide(ctx context.Context, req Request) (agent.Decision, error) {
	completionReq := CompletionRequest{
		Model:       p.model,
		Messages:    p.buildMessages(req),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		JSONMode:    true,
		Seed:        p.seed,
	}

	logging.Debug().
		Add(logging.RunID(req.RunID)).
		Add(logging.Phase(req.Phase)).
		Add(logging.Step(req.Step)).
		Add(logging.Provider(p.provider.Name())).
		Msg("requesting LLM decision")

	resp, err := p.provider.Complete(ctx, completionReq)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("LLM completion failed: %w", err)
	}
	if resp.Error != nil {
		return agent.Decision{}, resp.Error
	}

	decision, err := parseResponse(resp.Message.Content)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	logging.Debug().
		Add(logging.RunID(req.RunID)).
		Add(logging.Action(decision.Action)).
		Msg("LLM decision received")

	return decision, nil
}

// buildMessages constructs the system and user messages for one step.
func (p *LLMPlanner) buildMessages(req Request) []Message {
	payload := string(req.Payload)
	if strings.TrimSpace(payload) == "" {
		payload = "{}"
	}

	var sb strings.Builder
	sb.WriteString("CONTEXT:\n")
	sb.WriteString(payload)
	sb.WriteString("\n\n")
	if len(req.AllowedActions) > 0 {
		actions := req.AllowedActions
		if !slices.Contains(actions, agent.ActionFinalize.String()) {
			actions = append(slices.Clone(actions), agent.ActionFinalize.String())
		}
		sb.WriteString("ALLOWED ACTIONS: ")
		sb.WriteString(strings.Join(actions, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString("What is your next decision? Respond with JSON only.")

	return []Message{
		{Role: RoleSystem, Content: SystemMessage(p.baseInstruction, req.Phase)},
		{Role: RoleUser, Content: sb.String()},
	}
}

// llmResponse is the expected JSON reply. Thought is accepted as an alias
// for reasoning since small models tend to use it.
type llmResponse struct {
	Action    string         `json:"action"`
	Reasoning string         `json:"reasoning"`
	Thought   string         `json:"thought"`
	Arguments map[string]any `json:"arguments"`
	NextPhase *string        `json:"next_phase"`
}

// parseResponse validates the reply against the decision schema and maps it
// onto a Decision.
func parseResponse(content string) (agent.Decision, error) {
	content = extractJSONObject(stripCodeFence(content))
	if content == "" {
		return agent.Decision{}, ErrEmptyResponse
	}

	result, err := compiledDecisionSchema.Validate(gojsonschema.NewStringLoader(content))
	if err != nil {
		return agent.Decision{}, fmt.Errorf("%w: %v (content: %s)", ErrInvalidResponse, err, truncate(content, 200))
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			violations = append(violations, e.String())
		}
		return agent.Decision{}, fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(violations, "; "))
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return agent.Decision{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	reasoning := resp.Reasoning
	if reasoning == "" {
		reasoning = resp.Thought
	}

	decision := agent.NewDecision(agent.ParseAction(resp.Action), reasoning)
	if decision.Action == agent.ActionUnknown {
		decision.RawAction = resp.Action
	}
	for k, v := range resp.Arguments {
		decision.Arguments[k] = v
	}
	if resp.NextPhase != nil && strings.TrimSpace(*resp.NextPhase) != "" {
		// Unrecognized names are kept as-is; the controller decides what to do with them.
		phase, err := agent.ParsePhase(*resp.NextPhase)
		if err != nil {
			phase = agent.Phase(strings.TrimSpace(*resp.NextPhase))
		}
		decision = decision.WithNextPhase(phase)
	}

	return decision, nil
}

// stripCodeFence removes a surrounding markdown code block if present.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 && !strings.HasPrefix(strings.TrimSpace(content[:nl]), "{") {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// extractJSONObject trims prose around the outermost JSON object.
func extractJSONObject(content string) string {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end < start {
		return strings.TrimSpace(content)
	}
	return content[start : end+1]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
