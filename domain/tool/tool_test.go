package tool_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gkosnia163/ollama-agent/domain/tool"
)

func echoHandler(_ context.Context, input json.RawMessage) (tool.Result, error) {
	return tool.NewResult(input), nil
}

func TestToolBuilder_Basic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		toolName string
		handler  tool.Handler
		wantErr  error
	}{
		{
			name:     "valid tool",
			toolName: "detect_failure_nodes",
			handler:  echoHandler,
		},
		{
			name:     "empty name fails",
			toolName: "",
			handler:  echoHandler,
			wantErr:  tool.ErrEmptyName,
		},
		{
			name:     "missing handler fails",
			toolName: "estimate_impact",
			wantErr:  tool.ErrNoHandler,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			built, err := tool.NewBuilder(tt.toolName).
				WithDescription("test").
				WithHandler(tt.handler).
				Build()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && built.Name() != tt.toolName {
				t.Errorf("Name() = %v, want %v", built.Name(), tt.toolName)
			}
		})
	}
}

func TestToolBuilder_Annotations(t *testing.T) {
	t.Parallel()

	ro := tool.NewBuilder("ro").ReadOnly().Idempotent().WithHandler(echoHandler).MustBuild()
	if a := ro.Annotations(); !a.ReadOnly || !a.Idempotent || a.Mutating {
		t.Errorf("read-only annotations = %+v", a)
	}
	if !ro.Annotations().CanRetry() {
		t.Error("CanRetry() = false for a read-only tool")
	}

	mut := tool.NewBuilder("mut").Mutating().WithTags("world").WithHandler(echoHandler).MustBuild()
	if a := mut.Annotations(); a.ReadOnly || !a.Mutating || len(a.Tags) != 1 {
		t.Errorf("mutating annotations = %+v", a)
	}
	if mut.Annotations().CanRetry() {
		t.Error("CanRetry() = true for a mutating tool")
	}
}

func TestDefinition_ExecuteValidatesInput(t *testing.T) {
	t.Parallel()

	schema := tool.ObjectSchema(map[string]json.RawMessage{
		"node_id": json.RawMessage(`{"type": "string"}`),
	}, []string{"node_id"})

	tl := tool.NewBuilder("estimate_impact").
		WithInputSchema(schema).
		WithHandler(echoHandler).
		MustBuild()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"node_id": "N1"}`, false},
		{"missing required", `{}`, true},
		{"wrong type", `{"node_id": 7}`, true},
		{"malformed", `{"node_id":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := tl.Execute(context.Background(), json.RawMessage(tt.input))
			if tt.wantErr {
				if !errors.Is(err, tool.ErrInvalidInput) {
					t.Errorf("Execute() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if result.OutputString() != tt.input {
				t.Errorf("Output = %s, want %s", result.Output, tt.input)
			}
		})
	}
}

func TestDefinition_ExecuteDefaultsEmptyInput(t *testing.T) {
	t.Parallel()

	tl := tool.NewBuilder("detect").WithHandler(echoHandler).MustBuild()
	result, err := tl.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.OutputString() != "{}" {
		t.Errorf("Output = %s, want {}", result.Output)
	}
}

func TestSchema_ValidationErrorListsViolations(t *testing.T) {
	t.Parallel()

	schema := tool.ObjectSchema(map[string]json.RawMessage{
		"node_ids": json.RawMessage(`{"type": "array", "items": {"type": "string"}}`),
		"crew_ids": json.RawMessage(`{"type": "array", "items": {"type": "string"}}`),
	}, []string{"node_ids", "crew_ids"})

	err := schema.Validate(json.RawMessage(`{"node_ids": [1]}`))

	var verr *tool.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if len(verr.Violations) < 2 {
		t.Errorf("Violations = %v, want at least 2", verr.Violations)
	}
}

func TestErrorResult(t *testing.T) {
	t.Parallel()

	r := tool.ErrorResult(`node "X" not found`)
	if !r.Failed {
		t.Error("Failed = false")
	}
	var body map[string]string
	if err := json.Unmarshal(r.Output, &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body["error"] != `node "X" not found` {
		t.Errorf("error = %q", body["error"])
	}
}
