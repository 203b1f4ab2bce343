package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	domainconfig "github.com/gkosnia163/ollama-agent/domain/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoader_LoadFile_YAML(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")

	path := writeFile(t, "agent.yaml", `
provider:
  kind: hosted
  temperature: 0.2
agent:
  max_steps: 25
  strategy: model
resilience:
  timeout: 5s
matching:
  aliases:
    Electrical: [Power, Lighting]
`)

	cfg, err := NewLoaderWithOptions(WithDotEnv()).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Agent.MaxSteps != 25 || cfg.Agent.Strategy != "model" {
		t.Errorf("Agent = %+v", cfg.Agent)
	}
	if cfg.Provider.Temperature != 0.2 {
		t.Errorf("Temperature = %v", cfg.Provider.Temperature)
	}
	if cfg.Resilience.Timeout.Duration() != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Resilience.Timeout.Duration())
	}
	// Untouched keys keep their defaults.
	if cfg.Provider.Hosted.Model != "openai/gpt-oss-120b" || cfg.Agent.Seed != 1407931694 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Provider.Hosted.APIKey != "gsk-test" {
		t.Errorf("APIKey = %q, want expanded default", cfg.Provider.Hosted.APIKey)
	}
	if got := cfg.Matching.Aliases["Electrical"]; len(got) != 2 {
		t.Errorf("Aliases = %v", cfg.Matching.Aliases)
	}
}

func TestLoader_LoadFile_JSON(t *testing.T) {
	t.Setenv("AGENT_RUNS", "/tmp/agent-runs")

	path := writeFile(t, "agent.json", `{
		"provider": {"kind": "local"},
		"artifacts": {"backend": "filesystem", "path": "${AGENT_RUNS}"}
	}`)

	cfg, err := NewLoaderWithOptions(WithDotEnv()).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Provider.Kind != domainconfig.ProviderLocal {
		t.Errorf("Kind = %q", cfg.Provider.Kind)
	}
	if cfg.Artifacts.Path != "/tmp/agent-runs" {
		t.Errorf("Path = %q", cfg.Artifacts.Path)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: domainconfig.ErrConfigNotFound,
		},
		{
			name:    "unsupported extension",
			path:    func(t *testing.T) string { return writeFile(t, "agent.toml", "x = 1") },
			wantErr: domainconfig.ErrUnsupportedFormat,
		},
		{
			name:    "malformed yaml",
			path:    func(t *testing.T) string { return writeFile(t, "agent.yaml", "agent: [") },
			wantErr: domainconfig.ErrInvalidFormat,
		},
		{
			name: "invalid values",
			path: func(t *testing.T) string {
				return writeFile(t, "agent.yaml", "provider:\n  kind: local\nagent:\n  max_steps: 0\n")
			},
			wantErr: domainconfig.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoaderWithOptions(WithDotEnv()).LoadFile(tt.path(t))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_LoadDefault(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := NewLoaderWithOptions(WithDotEnv(), WithValidation(false)).LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if cfg.Provider.Hosted.APIKey != "" {
		t.Errorf("APIKey = %q, want empty after expansion", cfg.Provider.Hosted.APIKey)
	}

	// Validation rejects a hosted provider without a key.
	if _, err := NewLoaderWithOptions(WithDotEnv()).LoadDefault(); !errors.Is(err, domainconfig.ErrValidationFailed) {
		t.Errorf("LoadDefault() error = %v, want ErrValidationFailed", err)
	}
}
