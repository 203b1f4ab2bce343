package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	domainmw "github.com/gkosnia163/ollama-agent/domain/middleware"
	"github.com/gkosnia163/ollama-agent/domain/ledger"
	"github.com/gkosnia163/ollama-agent/domain/pack"
	"github.com/gkosnia163/ollama-agent/domain/tool"
	"github.com/gkosnia163/ollama-agent/infrastructure/logging"
	"github.com/gkosnia163/ollama-agent/infrastructure/middleware"
	"github.com/gkosnia163/ollama-agent/infrastructure/telemetry"
)

func newTool(t *testing.T, name string, handler tool.Handler) tool.Tool {
	t.Helper()
	return tool.NewBuilder(name).WithHandler(handler).MustBuild()
}

func okHandler(_ context.Context, input json.RawMessage) (tool.Result, error) {
	return tool.NewResult(json.RawMessage(`{"ok":true}`)), nil
}

func domainErrorHandler(context.Context, json.RawMessage) (tool.Result, error) {
	return tool.ErrorResult("Node X not found"), nil
}

func failingHandler(context.Context, json.RawMessage) (tool.Result, error) {
	return tool.Result{}, errors.New("boom")
}

func execCtx(t tool.Tool, phase agent.Phase) *domainmw.ExecutionContext {
	return &domainmw.ExecutionContext{
		RunID: "run-1",
		Step:  3,
		Phase: phase,
		Tool:  t,
		Input: json.RawMessage(`{}`),
	}
}

func TestLedgerRecording(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler tool.Handler
		want    ledger.EntryType
		wantErr bool
	}{
		{"success", okHandler, ledger.EntryToolResult, false},
		{"domain error", domainErrorHandler, ledger.EntryToolResult, false},
		{"tool error", failingHandler, ledger.EntryToolError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := ledger.New("run-1")
			mw := middleware.LedgerRecording(middleware.LedgerConfig{Ledger: l})
			ec := execCtx(newTool(t, "detect_failure_nodes", tt.handler), agent.PhaseDetect)
			ec.Overridden = "plan_repairs"

			_, err := mw(domainmw.Execute)(context.Background(), ec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}

			entries := l.Entries()
			if len(entries) != 2 {
				t.Fatalf("len(entries) = %d, want 2", len(entries))
			}
			if entries[0].Type != ledger.EntryToolCall || entries[1].Type != tt.want {
				t.Errorf("types = %s, %s", entries[0].Type, entries[1].Type)
			}
			if entries[0].Step != 3 || entries[0].Phase != agent.PhaseDetect {
				t.Errorf("entry = %+v", entries[0])
			}

			var call ledger.ToolCallDetails
			if err := entries[0].DecodeDetails(&call); err != nil {
				t.Fatalf("DecodeDetails() error = %v", err)
			}
			if call.Overridden != "plan_repairs" {
				t.Errorf("Overridden = %q", call.Overridden)
			}
		})
	}
}

func TestLedgerRecording_NilLedger(t *testing.T) {
	t.Parallel()

	mw := middleware.LedgerRecording(middleware.LedgerConfig{})
	if _, err := mw(domainmw.Execute)(context.Background(), execCtx(newTool(t, "x", okHandler), agent.PhaseDetect)); err != nil {
		t.Errorf("error = %v", err)
	}
}

func TestEligibility(t *testing.T) {
	t.Parallel()

	detect := newTool(t, "detect_failure_nodes", okHandler)
	p := pack.NewBuilder("test").
		AddTools(detect).
		AllowInPhase(agent.PhaseDetect, "detect_failure_nodes").
		Build()

	handler := middleware.Eligibility(middleware.EligibilityConfig{Pack: p})(domainmw.Execute)

	if _, err := handler(context.Background(), execCtx(detect, agent.PhaseDetect)); err != nil {
		t.Errorf("allowed tool error = %v", err)
	}
	if _, err := handler(context.Background(), execCtx(detect, agent.PhaseAct)); !errors.Is(err, tool.ErrToolNotAllowed) {
		t.Errorf("disallowed tool error = %v, want ErrToolNotAllowed", err)
	}
}

type toolCall struct {
	tool    string
	phase   string
	success bool
}

type recordingMetrics struct {
	telemetry.NoopMetricsProvider
	calls []toolCall
}

func (m *recordingMetrics) RecordToolExecution(_ context.Context, toolName, phase string, success bool, _ time.Duration) {
	m.calls = append(m.calls, toolCall{toolName, phase, success})
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler tool.Handler
		success bool
	}{
		{"success", okHandler, true},
		{"domain error", domainErrorHandler, false},
		{"tool error", failingHandler, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recordingMetrics{}
			handler := middleware.Metrics(middleware.MetricsConfig{Provider: rec})(domainmw.Execute)
			_, _ = handler(context.Background(), execCtx(newTool(t, "plan_repairs", tt.handler), agent.PhasePlan))

			want := toolCall{"plan_repairs", "PLAN", tt.success}
			if len(rec.calls) != 1 || rec.calls[0] != want {
				t.Errorf("calls = %+v, want [%+v]", rec.calls, want)
			}
		})
	}
}

func TestMetrics_NilProvider(t *testing.T) {
	t.Parallel()

	handler := middleware.Metrics(middleware.MetricsConfig{})(domainmw.Execute)
	if _, err := handler(context.Background(), execCtx(newTool(t, "x", okHandler), agent.PhaseDetect)); err != nil {
		t.Errorf("error = %v", err)
	}
}

// Uses the process logger; not parallel.
func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.DefaultConfig()) })

	mw := middleware.Logging(middleware.LoggingConfig{LogInput: true, LogOutput: true})

	if _, err := mw(domainmw.Execute)(context.Background(), execCtx(newTool(t, "estimate_impact", okHandler), agent.PhaseAnalyze)); err != nil {
		t.Fatalf("error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"executing tool", "tool executed", "estimate_impact", "ANALYZE"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}

	buf.Reset()
	if _, err := mw(domainmw.Execute)(context.Background(), execCtx(newTool(t, "estimate_impact", failingHandler), agent.PhaseAnalyze)); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "tool execution failed") {
		t.Errorf("log output missing failure: %s", buf.String())
	}
}
