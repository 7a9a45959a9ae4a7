// Package cli implements hrctl, the operator command line for hrevents.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/app"
	"github.com/hr-events/hr-events/hrevents/internal/cli/output"
	"github.com/hr-events/hr-events/hrevents/internal/config"
)

// Version is stamped at build time.
var Version = "0.1.0"

type options struct {
	configPath string
	output     string
	apiURL     string
	apiToken   string
	logLevel   string
}

// NewRootCommand builds the hrctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "hrctl",
		Short: "HR events operator CLI",
		Long: `hrctl operates the hrevents service.

Trigger Slack directory syncs and reminder runs through the API, run jobs
in-process from cron, inspect email to Slack user mappings, manage the
Slack settings record and seed development data.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml or /etc/hrevents/config.yaml)")
	flags.StringVarP(&opts.output, "output", "o", "table", "output format: table, json, yaml")
	flags.StringVar(&opts.apiURL, "api-url", envOr("HRCTL_API_URL", "http://localhost:8090"), "hrevents API base URL")
	flags.StringVar(&opts.apiToken, "api-token", os.Getenv("HRCTL_API_TOKEN"), "bearer token for the hrevents API")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level for in-process commands")

	root.AddCommand(
		newSyncCommand(opts),
		newRemindCommand(opts),
		newRunCommand(opts),
		newLookupCommand(opts),
		newMappingsCommand(opts),
		newSettingsCommand(opts),
		newTokenCommand(opts),
		newSeedCommand(opts),
		newMigrateCommand(opts),
	)

	return root
}

// Execute runs hrctl and reports a failure on stderr.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		output.New(output.FormatTable).Error("%v", err)
		return err
	}
	return nil
}

func (o *options) printer(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(o.output)
	if err != nil {
		return nil, err
	}
	return &output.Printer{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr(), Format: format}, nil
}

func (o *options) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}

func (o *options) logger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	return logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(o.logLevel), cfg.Logging.Format).
		With(logging.Service("hrctl"))
}

// components loads configuration and wires the service graph.
func (o *options) components(ctx context.Context, cmd *cobra.Command) (*app.Components, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, o.logger(cmd, cfg).Logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
