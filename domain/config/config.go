// Package config provides domain models for agent configuration.
package config

import "time"

// Provider kinds.
const (
	ProviderHosted = "hosted"
	ProviderLocal  = "local"
	ProviderMock   = "mock"
)

// Artifact backends.
const (
	BackendFilesystem = "filesystem"
	BackendSQLite     = "sqlite"
	BackendNone       = "none"
)

// AgentConfig represents the complete agent configuration.
type AgentConfig struct {
	// Provider selects and configures the decision provider.
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	// Agent contains core loop settings.
	Agent AgentSettings `json:"agent" yaml:"agent"`
	// Resilience bounds provider calls.
	Resilience ResilienceConfig `json:"resilience" yaml:"resilience"`
	// Scenarios locates scenario documents.
	Scenarios ScenarioConfig `json:"scenarios" yaml:"scenarios"`
	// Artifacts selects where run artifacts go.
	Artifacts ArtifactConfig `json:"artifacts" yaml:"artifacts"`
	// Matching tunes crew/node matching.
	Matching MatchingConfig `json:"matching,omitempty" yaml:"matching,omitempty"`
	// Logging configures the process logger.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	// Telemetry toggles OpenTelemetry metrics.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

// ProviderConfig configures the decision provider.
type ProviderConfig struct {
	// Kind is hosted, local or mock.
	Kind string `json:"kind" yaml:"kind" validate:"required,oneof=hosted local mock"`
	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	// Hosted configures the OpenAI-compatible endpoint.
	Hosted HostedConfig `json:"hosted" yaml:"hosted"`
	// Local configures the local model server.
	Local LocalConfig `json:"local" yaml:"local"`
}

// HostedConfig configures an OpenAI-compatible hosted endpoint.
type HostedConfig struct {
	// Name labels the endpoint in logs and artifacts.
	Name string `json:"name" yaml:"name"`
	// BaseURL is the API root.
	BaseURL string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	// Model is the hosted model identifier.
	Model string `json:"model" yaml:"model" validate:"required"`
	// APIKey is the credential, usually "${GROQ_API_KEY}".
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// LocalConfig configures a locally hosted model.
type LocalConfig struct {
	// ServerURL is the model server address.
	ServerURL string `json:"server_url" yaml:"server_url" validate:"omitempty,url"`
	// Model is the local model tag.
	Model string `json:"model" yaml:"model" validate:"required"`
}

// AgentSettings contains core agent behavior settings.
type AgentSettings struct {
	// MaxSteps is the hard step ceiling.
	MaxSteps int `json:"max_steps" yaml:"max_steps" validate:"gte=1,lte=1000"`
	// Strategy is fixed or model.
	Strategy string `json:"strategy" yaml:"strategy" validate:"oneof=fixed model"`
	// Seed drives repair duration estimates and the provider seed.
	Seed int64 `json:"seed" yaml:"seed"`
}

// ResilienceConfig bounds provider calls.
type ResilienceConfig struct {
	// MaxAttempts is the number of tries per decision.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" validate:"gte=1,lte=10"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay" yaml:"initial_delay" validate:"gte=0"`
	// Timeout bounds a single attempt.
	Timeout Duration `json:"timeout" yaml:"timeout" validate:"gt=0"`
	// BreakerThreshold is consecutive failures before the breaker opens (0 disables).
	BreakerThreshold int `json:"breaker_threshold" yaml:"breaker_threshold" validate:"gte=0"`
}

// ScenarioConfig locates scenario documents.
type ScenarioConfig struct {
	// Dir is searched for bare scenario names.
	Dir string `json:"dir" yaml:"dir" validate:"required"`
	// Default is used when no scenario is named.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// ArtifactConfig selects where run artifacts go.
type ArtifactConfig struct {
	// Backend is filesystem, sqlite or none.
	Backend string `json:"backend" yaml:"backend" validate:"oneof=filesystem sqlite none"`
	// Path is the runs directory for the filesystem backend.
	Path string `json:"path" yaml:"path" validate:"required_if=Backend filesystem"`
	// DSN is the database for the sqlite backend.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" validate:"required_if=Backend sqlite"`
	// SQLite tunes the sqlite connection. Zero values keep the store defaults.
	SQLite SQLiteTuning `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
}

// SQLiteTuning sizes the sqlite connection pool and sets pragmas.
type SQLiteTuning struct {
	MaxOpenConns    int      `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty" validate:"gte=0"`
	MaxIdleConns    int      `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty" validate:"gte=0"`
	ConnMaxLifetime Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty" validate:"gte=0"`
	JournalMode     string   `json:"journal_mode,omitempty" yaml:"journal_mode,omitempty" validate:"omitempty,oneof=DELETE TRUNCATE PERSIST MEMORY WAL OFF"`
	BusyTimeout     Duration `json:"busy_timeout,omitempty" yaml:"busy_timeout,omitempty" validate:"gte=0"`
}

// MatchingConfig tunes crew/node matching.
type MatchingConfig struct {
	// Aliases maps a specialty to extra node types it covers.
	Aliases map[string][]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `json:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	// Format is json or console.
	Format string `json:"format" yaml:"format" validate:"oneof=json console"`
}

// TelemetryConfig toggles OpenTelemetry metrics.
type TelemetryConfig struct {
	// Enabled records metrics through the global meter provider.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() AgentConfig {
	return AgentConfig{
		Provider: ProviderConfig{
			Kind:        ProviderHosted,
			Temperature: 0.1,
			Hosted: HostedConfig{
				Name:    "groq",
				BaseURL: "https://api.groq.com/openai/v1",
				Model:   "openai/gpt-oss-120b",
				APIKey:  "${GROQ_API_KEY}",
			},
			Local: LocalConfig{
				ServerURL: "http://localhost:11434",
				Model:     "llama3.2:1b",
			},
		},
		Agent: AgentSettings{
			MaxSteps: 10,
			Strategy: "fixed",
			Seed:     1407931694,
		},
		Resilience: ResilienceConfig{
			MaxAttempts:      2,
			InitialDelay:     Duration(500 * time.Millisecond),
			Timeout:          Duration(60 * time.Second),
			BreakerThreshold: 5,
		},
		Scenarios: ScenarioConfig{
			Dir:     "scenarios",
			Default: "scenario_main",
		},
		Artifacts: ArtifactConfig{
			Backend: BackendFilesystem,
			Path:    "runs",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	// Handle null
	if string(b) == "null" {
		return nil
	}

	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
