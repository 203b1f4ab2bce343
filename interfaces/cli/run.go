package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gkosnia163/ollama-agent/application"
	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/config"
	"github.com/gkosnia163/ollama-agent/domain/world"
	infraconfig "github.com/gkosnia163/ollama-agent/infrastructure/config"
	"github.com/gkosnia163/ollama-agent/infrastructure/logging"
	"github.com/gkosnia163/ollama-agent/infrastructure/resilience"
	"github.com/gkosnia163/ollama-agent/infrastructure/scenario"
)

// runOptions holds options for the run command.
type runOptions struct {
	configPath  string
	maxSteps    int
	strategy    string
	provider    string
	model       string
	runsDir     string
	scenarioDir string
	jsonOutput  bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run the agent against a scenario",
		Long: `Run the agent against a scenario until it reaches FINAL or the step ceiling.

The scenario is a file path or a name resolved against the scenario
directory ("main" finds scenario_main.json). Without an argument the
configured default scenario is used.

Examples:
  # Run the default scenario with the hosted provider
  agent run

  # Run a named scenario against a local model
  agent run --provider local --model llama3.2:1b storm

  # Let the model choose phases, print the summary as JSON
  agent run --strategy model --json scenario_main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return a.runAgent(cmd.Context(), opts, name)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Maximum steps (overrides config)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Transition strategy: fixed or model")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Decision provider: hosted, local or mock")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model for the selected provider")
	cmd.Flags().StringVar(&opts.runsDir, "runs-dir", "", "Directory for run artifacts")
	cmd.Flags().StringVar(&opts.scenarioDir, "scenario-dir", "", "Directory searched for scenario names")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the run summary as JSON")

	return cmd
}

// loadConfig reads the configuration file (or defaults) and applies flag
// overrides before validating.
func loadConfig(opts *runOptions) (*config.AgentConfig, error) {
	loader := infraconfig.NewLoaderWithOptions(infraconfig.WithValidation(false))

	var (
		cfg *config.AgentConfig
		err error
	)
	if opts.configPath != "" {
		cfg, err = loader.LoadFile(opts.configPath)
	} else {
		cfg, err = loader.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.maxSteps > 0 {
		cfg.Agent.MaxSteps = opts.maxSteps
	}
	if opts.strategy != "" {
		cfg.Agent.Strategy = opts.strategy
	}
	if opts.provider != "" {
		cfg.Provider.Kind = opts.provider
	}
	if opts.model != "" {
		switch cfg.Provider.Kind {
		case config.ProviderLocal:
			cfg.Provider.Local.Model = opts.model
		case config.ProviderHosted:
			cfg.Provider.Hosted.Model = opts.model
		}
	}
	if opts.runsDir != "" {
		cfg.Artifacts.Path = opts.runsDir
		if cfg.Artifacts.Backend == config.BackendNone {
			cfg.Artifacts.Backend = config.BackendFilesystem
		}
	}
	if opts.scenarioDir != "" {
		cfg.Scenarios.Dir = opts.scenarioDir
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runSummary is the --json output.
type runSummary struct {
	RunID       string          `json:"run_id"`
	Scenario    string          `json:"scenario"`
	Strategy    agent.Strategy  `json:"strategy"`
	Provider    string          `json:"provider"`
	Phase       agent.Phase     `json:"phase"`
	Status      agent.RunStatus `json:"status"`
	Steps       int             `json:"steps"`
	Fallbacks   int             `json:"fallbacks"`
	Error       string          `json:"error,omitempty"`
	Assignments []world.Outcome `json:"assignments"`
	Artifact    string          `json:"artifact,omitempty"`
	Duration    string          `json:"duration"`
}

// runAgent executes the agent with the given options.
func (a *App) runAgent(ctx context.Context, opts *runOptions, name string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	})

	if name == "" {
		name = cfg.Scenarios.Default
	}
	if name == "" {
		return fmt.Errorf("no scenario specified (use an argument or set scenarios.default)")
	}

	loader := scenario.NewFileLoader(cfg.Scenarios.Dir, scenario.WithSeed(uint64(cfg.Agent.Seed))) // #nosec G115 -- the seed is an opaque bit pattern
	w, err := loader.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	p, providerName, err := buildPlanner(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("failed to close artifact store")
		}
	}()

	metrics, sink := buildMetrics(cfg)

	engineOpts := []application.Option{
		application.WithPlanner(p),
		application.WithProviderName(providerName),
		application.WithExecutor(resilience.NewExecutorWithOptions(resilience.FromConfig(cfg.Resilience))),
		application.WithStrategy(agent.Strategy(cfg.Agent.Strategy)),
		application.WithMaxSteps(cfg.Agent.MaxSteps),
		application.WithMetrics(metrics),
	}
	if len(cfg.Matching.Aliases) > 0 {
		engineOpts = append(engineOpts, application.WithMatcher(world.NewMatcher(cfg.Matching.Aliases)))
	}
	if store != nil {
		engineOpts = append(engineOpts, application.WithArtifactStore(store))
	}

	engine, err := application.NewEngineWithOptions(engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	out, runErr := engine.ExecuteWorld(ctx, name, w)
	if out == nil {
		return fmt.Errorf("agent run failed: %w", runErr)
	}

	if err := a.report(out, providerName, opts.jsonOutput); err != nil {
		return err
	}
	metricsOut := a.stdout
	if opts.jsonOutput {
		metricsOut = a.stderr
	}
	if err := sink.Flush(context.WithoutCancel(ctx), metricsOut); err != nil {
		logging.Warn().Add(logging.ErrorField(err)).Msg("failed to report metrics")
	}

	if runErr != nil {
		return fmt.Errorf("agent run failed: %w", runErr)
	}
	return nil
}

// report prints the run outcome.
func (a *App) report(out *application.Outcome, providerName string, jsonOutput bool) error {
	run := out.Run

	if jsonOutput {
		summary := runSummary{
			RunID:       run.ID,
			Scenario:    run.Scenario,
			Strategy:    run.Strategy,
			Provider:    providerName,
			Phase:       run.Phase,
			Status:      run.Status,
			Steps:       run.Steps,
			Fallbacks:   run.Fallbacks,
			Error:       run.Error,
			Assignments: run.Memory.Context.Assignments,
			Duration:    run.Duration().String(),
		}
		if out.Saved {
			summary.Artifact = out.Artifact.Location
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	_, _ = fmt.Fprintf(a.stdout, "Run finished\n")
	_, _ = fmt.Fprintf(a.stdout, "  Run ID: %s\n", run.ID)
	_, _ = fmt.Fprintf(a.stdout, "  Scenario: %s\n", run.Scenario)
	_, _ = fmt.Fprintf(a.stdout, "  Provider: %s (%s strategy)\n", providerName, run.Strategy)
	_, _ = fmt.Fprintf(a.stdout, "  Phase: %s\n", run.Phase)
	_, _ = fmt.Fprintf(a.stdout, "  Status: %s\n", run.Status)
	_, _ = fmt.Fprintf(a.stdout, "  Steps: %d/%d\n", run.Steps, run.MaxSteps)
	if run.Fallbacks > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Fallbacks: %d\n", run.Fallbacks)
	}
	if run.Error != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Error: %s\n", run.Error)
	}
	for _, o := range run.Memory.Context.Assignments {
		_, _ = fmt.Fprintf(a.stdout, "  %s: %s\n", o.Key, o.Message)
	}
	if out.Saved {
		_, _ = fmt.Fprintf(a.stdout, "  Artifact: %s\n", out.Artifact.Location)
	}
	return nil
}
