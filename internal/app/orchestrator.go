package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/ports"
)

// TransportFactory builds the mail transport for a dispatch phase.
// It fails when credentials are missing or invalid.
type TransportFactory func(ctx context.Context) (ports.MailTransport, error)

// TemplateLoader loads the message template for a dispatch phase.
type TemplateLoader func() (domain.Template, error)

// OrchestratorConfig groups the limits of both phases.
type OrchestratorConfig struct {
	Accumulator AccumulatorConfig
	Dispatcher  DispatcherConfig
}

// Orchestrator runs ledger cleanup, discovery and dispatch in sequence.
type Orchestrator struct {
	config       OrchestratorConfig
	ledger       ports.Ledger
	queue        ports.Queue
	extractor    Extractor
	source       ports.PostSource
	newTransport TransportFactory
	loadTemplate TemplateLoader
	logger       ports.Logger
	observer     PhaseObserver
}

// OrchestratorOption configures optional collaborators.
type OrchestratorOption func(*Orchestrator)

// WithPhaseObserver registers an observer for phase changes.
func WithPhaseObserver(o PhaseObserver) OrchestratorOption {
	return func(orc *Orchestrator) {
		orc.observer = o
	}
}

// NewOrchestrator creates an orchestrator. source may be nil for
// dispatch-only use.
func NewOrchestrator(
	config OrchestratorConfig,
	ledger ports.Ledger,
	queue ports.Queue,
	extractor Extractor,
	source ports.PostSource,
	newTransport TransportFactory,
	loadTemplate TemplateLoader,
	logger ports.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		config:       config,
		ledger:       ledger,
		queue:        queue,
		extractor:    extractor,
		source:       source,
		newTransport: newTransport,
		loadTemplate: loadTemplate,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes a full pipeline run and reports the outcome.
// A scan error does not prevent dispatch of what is already queued.
// The caller derives the process exit status from RunReport.Failed.
func (o *Orchestrator) Run(ctx context.Context) domain.RunReport {
	var report domain.RunReport
	phases := NewPhaseTracker(o.logger, o.observer)

	o.transition(phases, PhaseCleaning, "run started")
	o.Cleanup(ctx)

	o.transition(phases, PhaseScanning, "ledger cleaned")
	report.Scan, report.ScanErr = o.Scan(ctx)
	if report.ScanErr != nil {
		o.logger.Error("scan failed, dispatching what is already queued",
			ports.Int("cycles", report.Scan.Cycles),
			ports.Err(report.ScanErr),
		)
	}

	if report.ScanErr == nil && report.Scan.Pending == 0 {
		report.DispatchSkipped = true
		o.logger.Info("no addresses pending, skipping dispatch")
		o.finish(phases, report)
		return report
	}

	o.transition(phases, PhaseDispatching, "addresses pending")
	report.Dispatch, report.DispatchErr = o.Dispatch(ctx)
	if report.DispatchErr != nil {
		o.logger.Error("dispatch failed", ports.Err(report.DispatchErr))
	}

	o.finish(phases, report)
	return report
}

// Cleanup evicts expired ledger entries.
func (o *Orchestrator) Cleanup(ctx context.Context) int {
	n := o.ledger.Cleanup(ctx)
	o.logger.Info("ledger cleanup", ports.Int("evicted", n))
	return n
}

// Scan runs the discovery accumulator against the configured source.
func (o *Orchestrator) Scan(ctx context.Context) (domain.ScanResult, error) {
	if o.source == nil {
		return domain.ScanResult{}, fmt.Errorf("%w: no post source configured", domain.ErrInvalidConfig)
	}
	acc := NewAccumulator(o.config.Accumulator, o.ledger, o.queue, o.extractor, o.logger)
	return acc.Run(ctx, o.source)
}

// Dispatch loads the template, builds the transport and sends to every
// queued address. Configuration errors abort before anything is sent.
func (o *Orchestrator) Dispatch(ctx context.Context) (domain.DispatchResult, error) {
	tmpl, err := o.loadTemplate()
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("load template: %w", err)
	}

	transport, err := o.newTransport(ctx)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("create transport: %w", err)
	}
	o.logger.Info("mail credentials accepted")

	d := NewDispatcher(o.config.Dispatcher, o.ledger, o.queue, transport, o.logger)
	return d.Dispatch(ctx, tmpl)
}

func (o *Orchestrator) finish(phases *PhaseTracker, report domain.RunReport) {
	if report.Failed() {
		o.transition(phases, PhaseFailed, failureReason(report))
		return
	}
	o.transition(phases, PhaseDone, "run complete")
}

func (o *Orchestrator) transition(phases *PhaseTracker, next Phase, reason string) {
	if err := phases.TransitionTo(next, reason); err != nil {
		o.logger.Warn("unexpected phase transition", ports.Err(err))
	}
}

func failureReason(r domain.RunReport) string {
	switch {
	case r.DispatchErr != nil:
		return "dispatch error"
	case r.Dispatch.Failed > 0:
		return fmt.Sprintf("%d sends failed", r.Dispatch.Failed)
	default:
		return "scan error"
	}
}
