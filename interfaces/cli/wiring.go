package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/gkosnia163/ollama-agent/domain/artifact"
	"github.com/gkosnia163/ollama-agent/domain/config"
	"github.com/gkosnia163/ollama-agent/infrastructure/logging"
	"github.com/gkosnia163/ollama-agent/infrastructure/planner"
	"github.com/gkosnia163/ollama-agent/infrastructure/storage/filesystem"
	"github.com/gkosnia163/ollama-agent/infrastructure/storage/sqlite"
	"github.com/gkosnia163/ollama-agent/infrastructure/telemetry"
)

// buildPlanner creates the decision provider selected by the configuration.
func buildPlanner(cfg *config.AgentConfig) (planner.Planner, string, error) {
	seed := int(cfg.Agent.Seed)
	pc := cfg.Provider

	switch pc.Kind {
	case config.ProviderMock:
		return planner.NewPhaseScript(), config.ProviderMock, nil

	case config.ProviderLocal:
		provider := planner.NewOllamaProvider(planner.OllamaConfig{
			BaseURL: pc.Local.ServerURL,
			Model:   pc.Local.Model,
		})
		return planner.NewLLMPlanner(planner.LLMPlannerConfig{
			Provider:    provider,
			Model:       pc.Local.Model,
			Temperature: pc.Temperature,
			Seed:        &seed,
		}), provider.Name(), nil

	case config.ProviderHosted:
		provider, err := planner.NewOpenAIProvider(planner.OpenAIConfig{
			Name:    pc.Hosted.Name,
			APIKey:  pc.Hosted.APIKey,
			BaseURL: pc.Hosted.BaseURL,
			Model:   pc.Hosted.Model,
		})
		if err != nil {
			return nil, "", fmt.Errorf("hosted provider %s: %w", pc.Hosted.Name, err)
		}
		return planner.NewLLMPlanner(planner.LLMPlannerConfig{
			Provider:    provider,
			Model:       pc.Hosted.Model,
			Temperature: pc.Temperature,
			Seed:        &seed,
		}), provider.Name(), nil

	default:
		return nil, "", fmt.Errorf("unknown provider kind %q", pc.Kind)
	}
}

// buildStore opens the configured artifact backend. The returned close
// function is never nil.
func buildStore(cfg *config.AgentConfig) (artifact.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Artifacts.Backend {
	case config.BackendNone:
		return nil, noop, nil

	case config.BackendSQLite:
		opts := append([]sqlite.Option{
			sqlite.WithDSN(cfg.Artifacts.DSN),
			sqlite.WithAutoMigrate(),
		}, sqliteOptions(cfg.Artifacts.SQLite)...)
		store, err := sqlite.NewRunStore(sqlite.DefaultConfig(), opts...)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite artifact store: %w", err)
		}
		return store, store.Close, nil

	default:
		store, err := filesystem.NewRunStore(cfg.Artifacts.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open runs directory: %w", err)
		}
		return store, noop, nil
	}
}

// sqliteOptions maps the configured tuning onto store options, skipping
// unset values.
func sqliteOptions(t config.SQLiteTuning) []sqlite.Option {
	var opts []sqlite.Option
	if t.MaxOpenConns > 0 {
		opts = append(opts, sqlite.WithMaxOpenConns(t.MaxOpenConns))
	}
	if t.MaxIdleConns > 0 {
		opts = append(opts, sqlite.WithMaxIdleConns(t.MaxIdleConns))
	}
	if t.ConnMaxLifetime > 0 {
		opts = append(opts, sqlite.WithConnMaxLifetime(time.Duration(t.ConnMaxLifetime)))
	}
	if t.JournalMode != "" {
		opts = append(opts, sqlite.WithJournalMode(t.JournalMode))
	}
	if t.BusyTimeout > 0 {
		opts = append(opts, sqlite.WithBusyTimeout(time.Duration(t.BusyTimeout)))
	}
	return opts
}

// metricsSink records run metrics in process and reports them on Flush.
type metricsSink struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// buildMetrics returns a recorder for the run. Disabled telemetry yields a
// no-op recorder and a nil sink.
func buildMetrics(cfg *config.AgentConfig) (telemetry.Metrics, *metricsSink) {
	if !cfg.Telemetry.Enabled {
		return telemetry.NoopMetricsProvider{}, nil
	}
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := telemetry.NewMetricsProvider(telemetry.MetricsConfig{MeterProvider: provider})
	return m, &metricsSink{reader: reader, provider: provider}
}

// Flush writes one line per recorded instrument and shuts the provider down.
func (s *metricsSink) Flush(ctx context.Context, w io.Writer) error {
	if s == nil {
		return nil
	}
	defer func() {
		if err := s.provider.Shutdown(ctx); err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("metrics shutdown failed")
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			_, _ = fmt.Fprintf(w, "  metric %s: %s\n", m.Name, summarize(m.Data))
		}
	}
	return nil
}

func summarize(data metricdata.Aggregation) string {
	switch d := data.(type) {
	case metricdata.Sum[int64]:
		var total int64
		for _, p := range d.DataPoints {
			total += p.Value
		}
		return fmt.Sprintf("%d", total)
	case metricdata.Histogram[float64]:
		var count uint64
		var sum float64
		for _, p := range d.DataPoints {
			count += p.Count
			sum += p.Sum
		}
		return fmt.Sprintf("count=%d sum=%.3f", count, sum)
	default:
		return fmt.Sprintf("%T", data)
	}
}
