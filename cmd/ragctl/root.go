package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/akolanti/DocChat/internal/bootstrap"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand needs. load and build are swapped out in tests.
type cli struct {
	load  func() (config.Settings, error)
	build func(ctx context.Context, s config.Settings) (*bootstrap.App, error)

	settings config.Settings
	app      *bootstrap.App
	asJSON   bool
}

func defaultCLI() *cli {
	return &cli{load: config.Load, build: bootstrap.Build}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Operate a DocChat deployment from the shell",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.load()
			if err != nil {
				return err
			}
			// stdout belongs to command output (and to the protocol under `mcp`)
			logger_i.InitTo(os.Stderr, s.IsProd, s.LogLevel)
			c.settings = s
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newIngestCmd(c),
		newSearchCmd(c),
		newAskCmd(c),
		newReconcileCmd(c),
		newMigrateCmd(c),
		newMCPCmd(c),
	)
	return root
}

// App builds the application on first use.
func (c *cli) App(ctx context.Context) (*bootstrap.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := c.build(ctx, c.settings)
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "closing:", err)
	}
	c.app = nil
}

func (c *cli) collection(flag string) string {
	if flag != "" {
		return flag
	}
	return c.settings.CollectionName
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
