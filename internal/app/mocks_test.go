package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// journal records the order of side effects across collaborators.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...any) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

// memLedger is an in-memory ports.Ledger with a settable clock.
type memLedger struct {
	window  time.Duration
	now     time.Time
	entries map[domain.Address]time.Time
	cleaned int
	log     *journal
}

func newMemLedger() *memLedger {
	return &memLedger{
		window:  96 * time.Hour,
		now:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		entries: make(map[domain.Address]time.Time),
	}
}

func (l *memLedger) RecordSent(_ context.Context, addr domain.Address) {
	l.entries[addr] = l.now
	l.log.add("record %s", addr)
}

func (l *memLedger) IsRecentlySent(ctx context.Context, addr domain.Address) bool {
	l.Cleanup(ctx)
	at, ok := l.entries[addr]
	return ok && l.now.Sub(at) < l.window
}

func (l *memLedger) Cleanup(_ context.Context) int {
	l.cleaned++
	n := 0
	for addr, at := range l.entries {
		if l.now.Sub(at) > l.window {
			delete(l.entries, addr)
			n++
		}
	}
	return n
}

// memQueue is an in-memory ports.Queue.
type memQueue struct {
	lines      []domain.Address
	missing    bool
	failAppend map[domain.Address]int // remaining failures per address
	failRemove bool
	log        *journal
}

func (q *memQueue) Ensure(context.Context) error {
	q.missing = false
	return nil
}

func (q *memQueue) Load(context.Context) ([]domain.Address, error) {
	if q.missing {
		return nil, fmt.Errorf("load queue.txt: %w", domain.ErrQueueMissing)
	}
	return append([]domain.Address(nil), q.lines...), nil
}

func (q *memQueue) Append(_ context.Context, addr domain.Address) error {
	if q.failAppend[addr] > 0 {
		q.failAppend[addr]--
		return errors.New("disk full")
	}
	q.lines = append(q.lines, addr)
	return nil
}

func (q *memQueue) Remove(_ context.Context, addr domain.Address) error {
	if q.failRemove {
		return errors.New("read-only file system")
	}
	kept := q.lines[:0]
	for _, l := range q.lines {
		if l != addr {
			kept = append(kept, l)
		}
	}
	q.lines = kept
	q.log.add("remove %s", addr)
	return nil
}

// scriptedSource returns one entry of cycles per Posts call and then nothing.
type scriptedSource struct {
	cycles  [][]string
	calls   int
	reveals int
	failAt  int // 1-based Posts call that fails; 0 disables
	cancel  context.CancelFunc
	// cancelAt cancels the run context on this Posts call.
	cancelAt int
}

func (s *scriptedSource) Posts(context.Context) ([]string, error) {
	s.calls++
	if s.failAt == s.calls {
		return nil, errors.New("page crashed")
	}
	if s.cancelAt == s.calls && s.cancel != nil {
		s.cancel()
	}
	if s.calls <= len(s.cycles) {
		return s.cycles[s.calls-1], nil
	}
	return nil, nil
}

func (s *scriptedSource) Reveal(ctx context.Context) error {
	s.reveals++
	return ctx.Err()
}

// endlessSource yields a fresh address on every cycle.
type endlessSource struct {
	calls int
}

func (s *endlessSource) Posts(context.Context) ([]string, error) {
	s.calls++
	return []string{fmt.Sprintf("reach me at hr%d@corp.io", s.calls)}, nil
}

func (s *endlessSource) Reveal(context.Context) error { return nil }

// fakeTransport records sends and fails for addresses in fail.
type fakeTransport struct {
	fail map[domain.Address]bool
	sent []domain.Message
	log  *journal
}

func (t *fakeTransport) Send(_ context.Context, msg domain.Message) (string, error) {
	t.log.add("send %s", msg.To)
	if t.fail[msg.To] {
		return "", errors.New("535 authentication failed")
	}
	t.sent = append(t.sent, msg)
	return fmt.Sprintf("<%d@test>", len(t.sent)), nil
}

// phaseRecorder implements PhaseObserver.
type phaseRecorder struct {
	mu     sync.Mutex
	phases []Phase
}

func (r *phaseRecorder) OnPhaseChange(_, current Phase, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, current)
}

func (r *phaseRecorder) Phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Phase(nil), r.phases...)
}
