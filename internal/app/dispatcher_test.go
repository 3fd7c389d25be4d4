package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/mailship/internal/domain"
)

var testTemplate = domain.Template{
	Subject:        "Application",
	Body:           "Hello,\nPlease find my resume attached.",
	AttachmentPath: "/tmp/resume.pdf",
}

// newTestDispatcher returns a dispatcher whose pauses are recorded instead of slept.
func newTestDispatcher(ledger *memLedger, queue *memQueue, transport *fakeTransport) (*Dispatcher, *[]time.Duration) {
	var pauses []time.Duration
	d := NewDispatcher(DispatcherConfig{SendInterval: time.Second}, ledger, queue, transport, mockLogger{})
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		pauses = append(pauses, dur)
		return ctx.Err()
	}
	return d, &pauses
}

func TestDispatcher_MixedSuccessAndFailure(t *testing.T) {
	ledger := newMemLedger()
	queue := &memQueue{lines: []domain.Address{"a@x.com", "b@y.com"}}
	transport := &fakeTransport{fail: map[domain.Address]bool{"a@x.com": true}}
	d, _ := newTestDispatcher(ledger, queue, transport)

	res, err := d.Dispatch(context.Background(), testTemplate)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := domain.DispatchResult{Attempted: 2, Sent: 1, Failed: 1}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if res.OK() {
		t.Error("OK() = true, want false")
	}
	if diff := cmp.Diff([]domain.Address{"a@x.com"}, queue.lines); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
	if _, ok := ledger.entries["b@y.com"]; !ok {
		t.Error("ledger missing b@y.com")
	}
	if _, ok := ledger.entries["a@x.com"]; ok {
		t.Error("ledger has a@x.com after failed send")
	}
}

func TestDispatcher_RecordsBeforeRemoving(t *testing.T) {
	log := &journal{}
	ledger := newMemLedger()
	ledger.log = log
	queue := &memQueue{lines: []domain.Address{"one@corp.io"}, log: log}
	transport := &fakeTransport{log: log}
	d, _ := newTestDispatcher(ledger, queue, transport)

	if _, err := d.Dispatch(context.Background(), testTemplate); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := []string{"send one@corp.io", "record one@corp.io", "remove one@corp.io"}
	if diff := cmp.Diff(want, log.Events()); diff != "" {
		t.Errorf("event order mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_RecordedButStillQueuedIsNotResent(t *testing.T) {
	// A crash after RecordSent and before Remove leaves the address queued.
	ledger := newMemLedger()
	ledger.entries["crashed@corp.io"] = ledger.now.Add(-time.Minute)
	queue := &memQueue{lines: []domain.Address{"crashed@corp.io", "next@corp.io"}}
	transport := &fakeTransport{}
	d, _ := newTestDispatcher(ledger, queue, transport)

	res, err := d.Dispatch(context.Background(), testTemplate)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := domain.DispatchResult{Attempted: 1, Sent: 1, Skipped: 1}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if len(transport.sent) != 1 || transport.sent[0].To != "next@corp.io" {
		t.Errorf("sent = %+v, want only next@corp.io", transport.sent)
	}
	if len(queue.lines) != 0 {
		t.Errorf("queue = %v, want empty", queue.lines)
	}
}

func TestDispatcher_ExpiredLedgerEntryIsResent(t *testing.T) {
	ledger := newMemLedger()
	ledger.entries["old@corp.io"] = ledger.now.Add(-100 * time.Hour)
	queue := &memQueue{lines: []domain.Address{"old@corp.io"}}
	transport := &fakeTransport{}
	d, _ := newTestDispatcher(ledger, queue, transport)

	res, err := d.Dispatch(context.Background(), testTemplate)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Sent != 1 || res.Skipped != 0 {
		t.Errorf("result = %+v, want one send and no skip", res)
	}
}

func TestDispatcher_DeduplicatesQueue(t *testing.T) {
	queue := &memQueue{lines: []domain.Address{"dup@corp.io", "other@corp.io", "dup@corp.io"}}
	transport := &fakeTransport{}
	d, _ := newTestDispatcher(newMemLedger(), queue, transport)

	res, err := d.Dispatch(context.Background(), testTemplate)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2", res.Attempted)
	}
	var got []domain.Address
	for _, m := range transport.sent {
		got = append(got, m.To)
	}
	if diff := cmp.Diff([]domain.Address{"dup@corp.io", "other@corp.io"}, got); diff != "" {
		t.Errorf("send order mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_RendersTemplate(t *testing.T) {
	queue := &memQueue{lines: []domain.Address{"hr@corp.io"}}
	transport := &fakeTransport{}
	d, _ := newTestDispatcher(newMemLedger(), queue, transport)

	if _, err := d.Dispatch(context.Background(), testTemplate); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	want := domain.Message{
		To:             "hr@corp.io",
		Subject:        testTemplate.Subject,
		Body:           testTemplate.Body,
		AttachmentPath: testTemplate.AttachmentPath,
	}
	if diff := cmp.Diff([]domain.Message{want}, transport.sent); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_PacesBetweenAttempts(t *testing.T) {
	queue := &memQueue{lines: []domain.Address{"a@x.com", "b@y.com", "c@z.com"}}
	transport := &fakeTransport{fail: map[domain.Address]bool{"b@y.com": true}}
	d, pauses := newTestDispatcher(newMemLedger(), queue, transport)

	if _, err := d.Dispatch(context.Background(), testTemplate); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	want := []time.Duration{time.Second, time.Second}
	if diff := cmp.Diff(want, *pauses); diff != "" {
		t.Errorf("pauses mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_MissingQueue(t *testing.T) {
	d, _ := newTestDispatcher(newMemLedger(), &memQueue{missing: true}, &fakeTransport{})

	_, err := d.Dispatch(context.Background(), testTemplate)
	if !errors.Is(err, domain.ErrQueueMissing) {
		t.Fatalf("Dispatch() error = %v, want ErrQueueMissing", err)
	}
}

func TestDispatcher_EmptyQueue(t *testing.T) {
	transport := &fakeTransport{}
	d, _ := newTestDispatcher(newMemLedger(), &memQueue{}, transport)

	res, err := d.Dispatch(context.Background(), testTemplate)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res != (domain.DispatchResult{}) {
		t.Errorf("result = %+v, want zero", res)
	}
}

func TestDispatcher_RemoveFailureStillRecorded(t *testing.T) {
	ledger := newMemLedger()
	queue := &memQueue{lines: []domain.Address{"hr@corp.io"}, failRemove: true}
	d, _ := newTestDispatcher(ledger, queue, &fakeTransport{})

	res, err := d.Dispatch(context.Background(), testTemplate)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Sent != 1 {
		t.Errorf("Sent = %d, want 1", res.Sent)
	}
	if _, ok := ledger.entries["hr@corp.io"]; !ok {
		t.Error("ledger missing hr@corp.io")
	}
}

func TestDispatcher_CanceledStopsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	queue := &memQueue{lines: []domain.Address{"a@x.com", "b@y.com", "c@z.com"}}
	transport := &fakeTransport{}
	d, _ := newTestDispatcher(newMemLedger(), queue, transport)
	d.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	res, err := d.Dispatch(ctx, testTemplate)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Dispatch() error = %v, want context.Canceled", err)
	}
	if res.Sent != 1 {
		t.Errorf("Sent = %d, want 1", res.Sent)
	}
	if diff := cmp.Diff([]domain.Address{"b@y.com", "c@z.com"}, queue.lines); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("sleepContext(0) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext(canceled) error = %v, want context.Canceled", err)
	}
}
