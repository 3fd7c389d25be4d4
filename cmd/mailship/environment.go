package main

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bft-labs/mailship/internal/adapters/fs"
	logAdapter "github.com/bft-labs/mailship/internal/adapters/log"
	"github.com/bft-labs/mailship/internal/adapters/outbox"
	"github.com/bft-labs/mailship/internal/adapters/smtp"
	"github.com/bft-labs/mailship/internal/adapters/snapshot"
	"github.com/bft-labs/mailship/internal/app"
	"github.com/bft-labs/mailship/internal/cliconfig"
	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/extract"
	"github.com/bft-labs/mailship/internal/ports"
)

// environment wires adapters for one command invocation.
type environment struct {
	cfg    cliconfig.Config
	logger *logAdapter.ZerologAdapter
	ledger *fs.LedgerFile
	queue  *fs.QueueFile
}

func newEnvironment(cfg cliconfig.Config, log zerolog.Logger) *environment {
	logger := logAdapter.NewZerologAdapterWithLogger(log)
	return &environment{
		cfg:    cfg,
		logger: logger,
		ledger: fs.NewLedgerFile(cfg.LedgerPath, logger.With("ledger"), fs.WithCooldown(cfg.Cooldown)),
		queue:  fs.NewQueueFile(cfg.QueuePath),
	}
}

func (e *environment) snapshotSource() (*snapshot.Source, error) {
	return snapshot.NewSource(snapshot.Config{
		Dir:         e.cfg.SnapshotDir,
		Selector:    e.cfg.PostSelector,
		SettleDelay: e.cfg.SettleDelay,
	}, e.logger.With("snapshot"))
}

// orchestrator builds the pipeline. src may be nil for dispatch-only commands.
func (e *environment) orchestrator(src ports.PostSource) *app.Orchestrator {
	config := app.OrchestratorConfig{
		Accumulator: app.AccumulatorConfig{
			MaxCycles:  e.cfg.MaxCycles,
			IdleCycles: e.cfg.IdleCycles,
		},
		Dispatcher: app.DispatcherConfig{
			SendInterval: e.cfg.SendInterval,
		},
	}
	return app.NewOrchestrator(
		config,
		e.ledger,
		e.queue,
		extract.New(),
		src,
		e.newTransport,
		e.loadTemplate,
		e.logger.With("pipeline"),
	)
}

func (e *environment) newTransport(ctx context.Context) (ports.MailTransport, error) {
	if e.cfg.DryRun {
		from := e.cfg.EmailUser
		if from == "" {
			from = "mailship@localhost"
		}
		w, err := outbox.NewWriter(e.cfg.OutboxDir, from, e.logger.With("outbox"))
		if err != nil {
			return nil, err
		}
		e.logger.Info("dry run, writing messages to outbox", ports.String("dir", w.Dir()))
		return w, nil
	}

	user, pass, err := e.cfg.MailCredentials()
	if err != nil {
		return nil, err
	}
	s, err := smtp.NewSender(smtp.Config{
		Host:       e.cfg.SMTPHost,
		Port:       e.cfg.SMTPPort,
		Username:   user,
		Password:   pass,
		SenderName: e.cfg.SenderName,
		Retries:    e.cfg.SMTPRetries,
	}, e.logger.With("smtp"))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (e *environment) loadTemplate() (domain.Template, error) {
	attachment := e.cfg.ResumeFile
	if !filepath.IsAbs(attachment) {
		var found bool
		attachment, found = fs.DiscoverResume(e.cfg.DataDir, e.cfg.ResumeFile)
		if !found {
			e.logger.Warn("no *resume.pdf in data dir, using fallback", ports.String("path", attachment))
		}
	}
	e.logger.Info("attachment", ports.String("path", attachment))

	return fs.LoadTemplate(fs.TemplateSource{
		BodyPath:       e.cfg.TemplatePath,
		BodyFallback:   e.cfg.Body,
		DefaultBody:    cliconfig.DefaultBody,
		Subject:        e.cfg.Subject,
		AttachmentPath: attachment,
	})
}
