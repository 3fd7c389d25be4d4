package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/mailship/internal/cliconfig"
	"github.com/bft-labs/mailship/internal/domain"
)

const helpDescription = `
Find recruiter contact addresses in saved search results and send each one
your application, exactly once per cooldown window.

Each run:
  - evicts ledger entries older than the cooldown (default 96h),
  - scans new page snapshots for addresses and appends them to Emails.txt,
  - sends EmailTemplate.txt with your resume to every queued address,
    recording each success in SentEmails.json and removing it from the queue.

Credentials come from MAILSHIP_EMAIL_USER and MAILSHIP_EMAIL_PASS (a Gmail
app password). Use --dry-run to write .eml files instead of sending.
`

var exampleUsage = strings.TrimSpace(`
  mailship --data-dir ~/jobsearch --search-role "SDET"
  mailship --dry-run
  mailship scan --max-cycles 10
  mailship ledger list
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "mailship",
		Short:         "Scan job posts for recruiter emails and send your application once per address",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg, cfgPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := runContext(cmd.Context(), cfg)
			defer cancel()

			env := newEnvironment(cfg, log)
			src, err := env.snapshotSource()
			if err != nil {
				return err
			}
			defer src.Close()

			report := env.orchestrator(src).Run(ctx)
			renderReport(cmd.OutOrStdout(), report)

			if report.Failed() {
				return runError(report)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.mailship/config.toml)")
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the queue, ledger, template and resume")
	flags.StringVar(&cfg.QueuePath, "queue-file", "", "queue file (defaults to <data-dir>/Emails.txt)")
	flags.StringVar(&cfg.LedgerPath, "ledger-file", "", "ledger file (defaults to <data-dir>/SentEmails.json)")
	flags.StringVar(&cfg.TemplatePath, "template-file", "", "message body file (defaults to <data-dir>/EmailTemplate.txt)")
	flags.StringVar(&cfg.ResumeFile, "resume-file", cfg.ResumeFile, "attachment used when no *resume.pdf is found in data-dir")
	flags.StringVar(&cfg.SnapshotDir, "snapshot-dir", "", "directory of saved result pages (defaults to <data-dir>/snapshots/<search-role>)")
	flags.StringVar(&cfg.PostSelector, "post-selector", "", "CSS selector for one post in an HTML snapshot")
	flags.StringVar(&cfg.OutboxDir, "outbox-dir", "", "where --dry-run writes messages (defaults to <data-dir>/outbox)")
	flags.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "write .eml files to the outbox instead of sending")

	flags.StringVar(&cfg.SMTPHost, "smtp-host", cfg.SMTPHost, "SMTP relay host")
	flags.IntVar(&cfg.SMTPPort, "smtp-port", cfg.SMTPPort, "SMTP relay port")
	flags.IntVar(&cfg.SMTPRetries, "smtp-retries", cfg.SMTPRetries, "extra attempts per message after a transient failure")
	flags.StringVar(&cfg.EmailUser, "email-user", cfg.EmailUser, "SMTP user and From address")
	flags.StringVar(&cfg.SenderName, "sender-name", cfg.SenderName, "display name for the From header")
	flags.StringVar(&cfg.Subject, "subject", cfg.Subject, "message subject")
	flags.StringVar(&cfg.Body, "body", cfg.Body, `message body when the template file is missing ("\n" for newlines)`)
	flags.StringVar(&cfg.SearchRole, "search-role", cfg.SearchRole, "role searched for; selects the snapshot subdirectory")

	flags.DurationVar(&cfg.Cooldown, "cooldown", cfg.Cooldown, "minimum time between two emails to the same address")
	flags.IntVar(&cfg.MaxCycles, "max-cycles", cfg.MaxCycles, "maximum scan cycles per run")
	flags.IntVar(&cfg.IdleCycles, "idle-cycles", cfg.IdleCycles, "stop scanning after this many cycles without a new address")
	flags.DurationVar(&cfg.SettleDelay, "settle-delay", cfg.SettleDelay, "how long to wait for a new snapshot between cycles")
	flags.DurationVar(&cfg.SendInterval, "send-interval", cfg.SendInterval, "pause between two send attempts")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "abort the run after this long (0 disables)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := flags.MarkHidden("post-selector"); err != nil {
		log.Info().Err(err).Msg("failed to hide post-selector flag")
	}

	root.AddCommand(
		newScanCmd(&cfg, log),
		newDispatchCmd(&cfg, log),
		newLedgerCmd(&cfg, log),
		newQueueCmd(&cfg, log),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("mailship")
		os.Exit(1)
	}
}

// loadConfig layers the config file, then MAILSHIP_* env vars, under any
// flags set on the command line.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("%w: config file %s not found", domain.ErrInvalidConfig, cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cliconfig.SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	log := cliconfig.Logger()
	log.Debug().Interface("config", cfg.Masked()).Msg("configuration")
	return nil
}

// runContext is cancelled on SIGINT/SIGTERM and after cfg.Timeout, if set.
func runContext(parent context.Context, cfg cliconfig.Config) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	if cfg.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// runError folds a failed report into one error for the exit status.
func runError(r domain.RunReport) error {
	var errs []error
	if r.ScanErr != nil {
		errs = append(errs, fmt.Errorf("scan: %w", r.ScanErr))
	}
	if r.DispatchErr != nil {
		errs = append(errs, fmt.Errorf("dispatch: %w", r.DispatchErr))
	}
	if r.Dispatch.Failed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d", domain.ErrPartialFailure, r.Dispatch.Failed, r.Dispatch.Attempted))
	}
	return errors.Join(errs...)
}
