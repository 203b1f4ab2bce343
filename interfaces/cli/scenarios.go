package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	domainscenario "github.com/gkosnia163/ollama-agent/domain/scenario"
	"github.com/gkosnia163/ollama-agent/infrastructure/scenario"
)

// newScenariosCmd creates the scenarios command.
func (a *App) newScenariosCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listScenarios(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.scenarioDir, "scenario-dir", "", "Directory searched for scenario names")

	return cmd
}

func (a *App) listScenarios(ctx context.Context, opts *runOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	loader := scenario.NewFileLoader(cfg.Scenarios.Dir)
	names, err := loader.List(ctx)
	if err != nil {
		if errors.Is(err, domainscenario.ErrNotFound) {
			return fmt.Errorf("scenario directory %s does not exist", loader.Dir())
		}
		return err
	}

	if len(names) == 0 {
		_, _ = fmt.Fprintf(a.stdout, "No scenarios in %s\n", loader.Dir())
		return nil
	}
	for _, name := range names {
		marker := " "
		if name == cfg.Scenarios.Default || strings.TrimSuffix(name, filepath.Ext(name)) == cfg.Scenarios.Default {
			marker = "*"
		}
		_, _ = fmt.Fprintf(a.stdout, "%s %s\n", marker, name)
	}
	return nil
}
