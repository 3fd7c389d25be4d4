package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/extract"
	"github.com/bft-labs/mailship/internal/ports"
)

type orchestratorFixture struct {
	ledger         *memLedger
	queue          *memQueue
	source         *scriptedSource
	transport      *fakeTransport
	transportErr   error
	templateErr    error
	transportBuilt int
	phases         *phaseRecorder
}

func newOrchestratorFixture() *orchestratorFixture {
	return &orchestratorFixture{
		ledger:    newMemLedger(),
		queue:     &memQueue{},
		source:    &scriptedSource{},
		transport: &fakeTransport{},
		phases:    &phaseRecorder{},
	}
}

func (f *orchestratorFixture) build() *Orchestrator {
	newTransport := func(context.Context) (ports.MailTransport, error) {
		f.transportBuilt++
		if f.transportErr != nil {
			return nil, f.transportErr
		}
		return f.transport, nil
	}
	loadTemplate := func() (domain.Template, error) {
		return testTemplate, f.templateErr
	}
	o := NewOrchestrator(
		OrchestratorConfig{
			Accumulator: DefaultAccumulatorConfig(),
			Dispatcher:  DispatcherConfig{},
		},
		f.ledger, f.queue, extract.New(), f.source,
		newTransport, loadTemplate, mockLogger{},
		WithPhaseObserver(f.phases),
	)
	return o
}

func TestOrchestrator_Run_ScanThenDispatch(t *testing.T) {
	f := newOrchestratorFixture()
	f.source.cycles = [][]string{{"Hiring QA, send CV to jobs@acme.io"}}

	report := f.build().Run(context.Background())

	if report.Failed() {
		t.Fatalf("report failed: %+v", report)
	}
	if report.Scan.NewAddresses != 1 || report.Dispatch.Sent != 1 {
		t.Errorf("report = %+v, want one address found and sent", report)
	}
	if len(f.queue.lines) != 0 {
		t.Errorf("queue = %v, want empty", f.queue.lines)
	}
	want := []Phase{PhaseCleaning, PhaseScanning, PhaseDispatching, PhaseDone}
	if diff := cmp.Diff(want, f.phases.Phases()); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_Run_CleansLedgerFirst(t *testing.T) {
	f := newOrchestratorFixture()
	f.ledger.entries["stale@old.io"] = f.ledger.now.Add(-100 * time.Hour)

	f.build().Run(context.Background())

	if _, ok := f.ledger.entries["stale@old.io"]; ok {
		t.Error("stale entry not evicted")
	}
	if f.ledger.cleaned == 0 {
		t.Error("Cleanup not called")
	}
}

func TestOrchestrator_Run_SkipsDispatchWhenNothingPending(t *testing.T) {
	f := newOrchestratorFixture()

	report := f.build().Run(context.Background())

	if !report.DispatchSkipped {
		t.Error("DispatchSkipped = false, want true")
	}
	if report.Failed() {
		t.Errorf("report failed: %+v", report)
	}
	if f.transportBuilt != 0 {
		t.Errorf("transport built %d times, want 0", f.transportBuilt)
	}
	want := []Phase{PhaseCleaning, PhaseScanning, PhaseDone}
	if diff := cmp.Diff(want, f.phases.Phases()); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_Run_DispatchesCarriedOverQueue(t *testing.T) {
	f := newOrchestratorFixture()
	f.queue.lines = []domain.Address{"left@last-run.io"}

	report := f.build().Run(context.Background())

	if report.DispatchSkipped {
		t.Error("DispatchSkipped = true, want false")
	}
	if report.Dispatch.Sent != 1 {
		t.Errorf("Sent = %d, want 1", report.Dispatch.Sent)
	}
}

func TestOrchestrator_Run_ScanErrorStillDispatches(t *testing.T) {
	f := newOrchestratorFixture()
	f.source.cycles = [][]string{{"first@lead.io"}}
	f.source.failAt = 2

	report := f.build().Run(context.Background())

	if report.ScanErr == nil {
		t.Fatal("ScanErr = nil, want source error")
	}
	if report.Dispatch.Sent != 1 {
		t.Errorf("Sent = %d, want 1", report.Dispatch.Sent)
	}
	if !report.Failed() {
		t.Error("Failed() = false, want true after scan error")
	}
	phases := f.phases.Phases()
	if phases[len(phases)-1] != PhaseFailed {
		t.Errorf("final phase = %v, want PhaseFailed", phases[len(phases)-1])
	}
}

func TestOrchestrator_Run_TransportErrorLeavesQueue(t *testing.T) {
	f := newOrchestratorFixture()
	f.queue.lines = []domain.Address{"a@x.com"}
	f.transportErr = domain.ErrPlaceholderCredential

	report := f.build().Run(context.Background())

	if !errors.Is(report.DispatchErr, domain.ErrPlaceholderCredential) {
		t.Fatalf("DispatchErr = %v, want ErrPlaceholderCredential", report.DispatchErr)
	}
	if !report.Failed() {
		t.Error("Failed() = false, want true")
	}
	if diff := cmp.Diff([]domain.Address{"a@x.com"}, f.queue.lines); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
	if len(f.ledger.entries) != 0 {
		t.Errorf("ledger = %v, want empty", f.ledger.entries)
	}
}

func TestOrchestrator_Run_TemplateErrorAbortsBeforeTransport(t *testing.T) {
	f := newOrchestratorFixture()
	f.queue.lines = []domain.Address{"a@x.com"}
	f.templateErr = domain.ErrAttachmentMissing

	report := f.build().Run(context.Background())

	if !errors.Is(report.DispatchErr, domain.ErrAttachmentMissing) {
		t.Fatalf("DispatchErr = %v, want ErrAttachmentMissing", report.DispatchErr)
	}
	if f.transportBuilt != 0 {
		t.Errorf("transport built %d times, want 0", f.transportBuilt)
	}
}

func TestOrchestrator_Run_SendFailureFailsRun(t *testing.T) {
	f := newOrchestratorFixture()
	f.queue.lines = []domain.Address{"a@x.com", "b@y.com"}
	f.transport.fail = map[domain.Address]bool{"a@x.com": true}

	report := f.build().Run(context.Background())

	if report.DispatchErr != nil {
		t.Fatalf("DispatchErr = %v, want nil", report.DispatchErr)
	}
	if !report.Failed() {
		t.Error("Failed() = false, want true with a failed send")
	}
	if failureReason(report) != "1 sends failed" {
		t.Errorf("failureReason() = %q", failureReason(report))
	}
}

func TestOrchestrator_Scan_NoSource(t *testing.T) {
	f := newOrchestratorFixture()
	o := f.build()
	o.source = nil

	_, err := o.Scan(context.Background())
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("Scan() error = %v, want ErrInvalidConfig", err)
	}
}
