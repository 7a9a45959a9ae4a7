package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hr-events/hr-events/hrevents/internal/app"
	"github.com/hr-events/hr-events/hrevents/internal/auth"
	"github.com/hr-events/hr-events/hrevents/internal/cli/output"
	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/seeder"
	"github.com/hr-events/hr-events/hrevents/internal/service"
)

// =============================================================================
// API triggers
// =============================================================================

func newSyncCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Start a background Slack directory sync",
		Long:  "Ask the hrevents service to enqueue a sync of Slack user ids onto HR users.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			ack, err := NewAPIClient(opts.apiURL, opts.apiToken).TriggerSync(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to start sync: %w", err)
			}
			return printAck(p, ack)
		},
	}
}

func newRemindCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send today's birthday and anniversary reminders now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			ack, err := NewAPIClient(opts.apiURL, opts.apiToken).TriggerReminders(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to start reminders: %w", err)
			}
			return printAck(p, ack)
		},
	}
}

func printAck(p *output.Printer, ack *JobAck) error {
	if p.Format != output.FormatTable {
		return p.Render(ack, nil)
	}
	if ack.Title != "" {
		p.Success("%s", ack.Title)
	} else {
		p.Success("Job queued")
	}
	if ack.Message != "" {
		p.Info("%s", ack.Message)
	}
	p.Info("Job: %s (%s)", ack.ID, ack.Name)
	return nil
}

// =============================================================================
// In-process runs
// =============================================================================

func newRunCommand(opts *options) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a job in this process and wait for it",
		Long:  "Run a job synchronously without the service or the queue. Intended for cron.",
	}

	runCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Sync Slack user ids onto HR users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			c, err := opts.components(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			result := c.Sync.SyncIdentities(cmd.Context())
			if err := p.Render(result, func() *output.Table { return syncTable(result) }); err != nil {
				return err
			}
			if result.Aborted {
				return fmt.Errorf("sync aborted: %s", result.Reason)
			}
			return nil
		},
	})

	runCmd.AddCommand(&cobra.Command{
		Use:   "reminders",
		Short: "Send today's birthday and work anniversary messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			c, err := opts.components(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			result := c.Reminders.SendEventReminders(cmd.Context())
			if err := p.Render(result, func() *output.Table { return remindersTable(result) }); err != nil {
				return err
			}
			if result.Aborted {
				return fmt.Errorf("reminders aborted: %s", result.Reason)
			}
			return nil
		},
	})

	return runCmd
}

func syncTable(r *service.SyncResult) *output.Table {
	t := output.NewTable([]string{"DIRECTORY USERS", "EMPLOYEES", "SYNCED", "FAILED", "STATUS"})
	t.AddRow([]string{
		strconv.Itoa(r.DirectoryUsers),
		strconv.Itoa(r.Employees),
		strconv.Itoa(r.Synced),
		strconv.Itoa(r.Failed),
		status(r.Aborted, r.Reason),
	})
	return t
}

func remindersTable(r *service.ReminderResult) *output.Table {
	t := output.NewTable([]string{"DATE", "BIRTHDAYS", "ANNIVERSARIES", "SKIPPED", "FAILED", "STATUS"})
	t.AddRow([]string{
		r.Date,
		strconv.Itoa(r.BirthdaysSent),
		strconv.Itoa(r.AnniversariesSent),
		strconv.Itoa(r.Skipped),
		strconv.Itoa(r.Failed),
		status(r.Aborted, r.Reason),
	})
	return t
}

func status(aborted bool, reason string) string {
	if aborted {
		return "aborted: " + reason
	}
	return "ok"
}

// =============================================================================
// Mappings
// =============================================================================

func newLookupCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <email>",
		Short: "Show the Slack user id mapped to an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			c, err := opts.components(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			email := args[0]
			id, found, err := c.Identities.LookupSlackUserID(cmd.Context(), email)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no Slack user mapped to %s", email)
			}

			result := map[string]string{"email": email, "slack_user_id": id}
			return p.Render(result, func() *output.Table {
				t := output.NewTable([]string{"EMAIL", "SLACK USER ID"})
				t.AddRow([]string{email, id})
				return t
			})
		},
	}
}

func newMappingsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings",
		Short: "List email to Slack user mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			c, err := opts.components(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			mappings, err := c.Identities.List(cmd.Context())
			if err != nil {
				return err
			}
			if mappings == nil {
				mappings = []*models.IdentityMapping{}
			}
			return p.Render(mappings, func() *output.Table { return mappingsTable(mappings) })
		},
	}
}

func mappingsTable(mappings []*models.IdentityMapping) *output.Table {
	t := output.NewTable([]string{"EMAIL", "SLACK USER ID", "SLACK USERNAME", "UPDATED"})
	for _, m := range mappings {
		t.AddRow([]string{m.User, m.SlackUserID, m.SlackUsername, m.UpdatedAt.Format(time.RFC3339)})
	}
	return t
}

// =============================================================================
// Settings
// =============================================================================

func newSettingsCommand(opts *options) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage the Slack settings record",
	}

	var token, channel string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store the Slack bot token and channel",
		Long:  "Store the Slack bot token (encrypted with settings.encryption_key) and the optional channel.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			c, err := opts.components(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if c.SettingsDB == nil {
				return errors.New("settings.encryption_key must be configured to store the bot token")
			}
			if err := c.SettingsDB.Save(cmd.Context(), &models.Settings{SlackBotToken: token, SlackChannel: channel}); err != nil {
				return err
			}
			p.Success("Slack settings saved")
			return nil
		},
	}
	setCmd.Flags().StringVar(&token, "token", "", "Slack bot token (xoxb-...)")
	setCmd.Flags().StringVar(&channel, "channel", "", "Slack channel")
	_ = setCmd.MarkFlagRequired("token")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective Slack settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			c, err := opts.components(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			s, err := c.Settings.Load(cmd.Context())
			if err != nil {
				return err
			}
			view := map[string]string{
				"slack_bot_token": maskToken(s.SlackBotToken),
				"slack_channel":   s.SlackChannel,
			}
			return p.Render(view, func() *output.Table {
				t := output.NewTable([]string{"BOT TOKEN", "CHANNEL"})
				t.AddRow([]string{view["slack_bot_token"], view["slack_channel"]})
				return t
			})
		},
	}

	settingsCmd.AddCommand(setCmd, showCmd)
	return settingsCmd
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:5] + "..." + token[len(token)-3:]
}

// =============================================================================
// Tokens
// =============================================================================

func newTokenCommand(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the trigger API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			signed, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).Issue(subject)
			if err != nil {
				return err
			}

			if p.Format != output.FormatTable {
				return p.Render(map[string]string{"token": signed, "subject": subject}, nil)
			}
			fmt.Fprintln(p.Stdout, signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "hrctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	return cmd
}

// =============================================================================
// Development data
// =============================================================================

func newSeedCommand(opts *options) *cobra.Command {
	cfg := seeder.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake companies and employees for development",
		Long: `Insert fake HR companies and employees. A share of the employees have a
birthday or a work anniversary today so reminder runs have work to do.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd)
			if err != nil {
				return err
			}
			appCfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			repo, err := app.OpenRepository(cmd.Context(), appCfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			loc, err := appCfg.Reminders.Location()
			if err != nil {
				return err
			}
			cfg.Today = time.Now().In(loc)

			summary, err := seeder.New(repo, cfg).Run(cmd.Context())
			if err != nil {
				return err
			}
			if p.Format != output.FormatTable {
				return p.Render(summary, nil)
			}
			p.Success("Seeded %d companies and %d employees", summary.Companies, summary.Employees)
			p.Info("Celebrating today: %d birthdays, %d work anniversaries", summary.Birthdays, summary.Anniversaries)
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Companies, "companies", cfg.Companies, "number of companies")
	cmd.Flags().IntVar(&cfg.Employees, "employees", cfg.Employees, "number of employees")
	cmd.Flags().StringVar(&cfg.Domain, "domain", cfg.Domain, "email domain for generated users")
	cmd.Flags().Float64Var(&cfg.CelebrationRatio, "celebrating", cfg.CelebrationRatio, "share of employees celebrating today")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

// =============================================================================
// Schema
// =============================================================================

func newMigrateCommand(opts *options) *cobra.Command {
	var source string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert database migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&source, "source", app.DefaultMigrationsPath, "migration source URL")

	for _, down := range []bool{false, true} {
		use, short := "up", "Apply all pending migrations"
		if down {
			use, short = "down", "Revert all migrations"
		}
		migrateCmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := opts.printer(cmd)
				if err != nil {
					return err
				}
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				if err := app.Migrate(cfg, source, down); err != nil {
					return err
				}
				p.Success("Migrations %s complete", use)
				return nil
			},
		})
	}

	return migrateCmd
}
