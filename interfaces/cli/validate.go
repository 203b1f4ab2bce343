package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/gkosnia163/ollama-agent/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate an agent configuration file for correctness.

This command checks the file format (YAML or JSON), field constraints and,
in strict mode, that every referenced environment variable is set.

Examples:
  agent validate -c agent.yaml
  agent validate -c agent.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on missing environment variables")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	loader := infraconfig.NewLoaderWithOptions(
		infraconfig.WithValidation(true),
		infraconfig.WithStrictEnv(opts.strict),
	)
	cfg, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "Configuration is valid: %s\n", opts.configPath)
	_, _ = fmt.Fprintf(a.stdout, "  Provider: %s\n", cfg.Provider.Kind)
	_, _ = fmt.Fprintf(a.stdout, "  Strategy: %s (max %d steps)\n", cfg.Agent.Strategy, cfg.Agent.MaxSteps)
	_, _ = fmt.Fprintf(a.stdout, "  Scenarios: %s\n", cfg.Scenarios.Dir)
	_, _ = fmt.Fprintf(a.stdout, "  Artifacts: %s\n", cfg.Artifacts.Backend)
	return nil
}
