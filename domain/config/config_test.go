package config

import (
	"errors"
	"strings"
	"testing"
)

func TestDefault_IsValidWithCredential(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Provider.Hosted.APIKey = "secret"

	if err := Validate(&cfg); err != nil {
		t.Fatalf("Validate(Default()) error = %v", err)
	}
	if cfg.Agent.MaxSteps != 10 || cfg.Agent.Seed != 1407931694 {
		t.Errorf("Agent = %+v", cfg.Agent)
	}
	if cfg.Provider.Local.Model != "llama3.2:1b" || cfg.Provider.Hosted.Model != "openai/gpt-oss-120b" {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(c *AgentConfig)
		wantPath string
	}{
		{"unknown provider kind", func(c *AgentConfig) { c.Provider.Kind = "cloudy" }, "provider.kind"},
		{"zero max steps", func(c *AgentConfig) { c.Agent.MaxSteps = 0 }, "agent.max_steps"},
		{"unknown strategy", func(c *AgentConfig) { c.Agent.Strategy = "random" }, "agent.strategy"},
		{"hot temperature", func(c *AgentConfig) { c.Provider.Temperature = 3 }, "provider.temperature"},
		{"zero timeout", func(c *AgentConfig) { c.Resilience.Timeout = 0 }, "resilience.timeout"},
		{"sqlite without dsn", func(c *AgentConfig) { c.Artifacts.Backend = BackendSQLite }, "artifacts.dsn"},
		{"unknown journal mode", func(c *AgentConfig) { c.Artifacts.SQLite.JournalMode = "FAST" }, "artifacts.sqlite.journal_mode"},
		{"bad log level", func(c *AgentConfig) { c.Logging.Level = "loud" }, "logging.level"},
		{"hosted without key", func(c *AgentConfig) { c.Provider.Hosted.APIKey = "" }, "provider.hosted.api_key"},
		{"empty alias", func(c *AgentConfig) { c.Matching.Aliases = map[string][]string{"Electrical": nil} }, "matching.aliases"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			cfg.Provider.Hosted.APIKey = "secret"
			tt.mutate(&cfg)

			err := Validate(&cfg)
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() error = %v, want ErrValidationFailed", err)
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error type = %T", err)
			}
			found := false
			for _, e := range verrs {
				if e.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %v, want one at %s", verrs, tt.wantPath)
			}
		})
	}
}

func TestValidate_LocalNeedsNoKey(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Provider.Kind = ProviderLocal
	cfg.Provider.Hosted.APIKey = ""

	if err := Validate(&cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	errs := ValidationErrors{{Path: "a", Message: "x"}, {Path: "b", Message: "y"}}
	if msg := errs.Error(); !strings.HasPrefix(msg, "2 validation errors") {
		t.Errorf("Error() = %q", msg)
	}
}
