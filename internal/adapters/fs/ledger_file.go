package fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"time"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/ports"
)

// LedgerFileName is the ledger file name inside the data directory.
const LedgerFileName = "SentEmails.json"

// DefaultCooldown is how long a sent address stays suppressed.
const DefaultCooldown = 96 * time.Hour

// LedgerFile implements ports.Ledger using a JSON object mapping address to the
// epoch-millisecond time of the last send.
type LedgerFile struct {
	path   string
	window time.Duration
	now    func() time.Time
	logger ports.Logger
}

// LedgerOption configures a LedgerFile.
type LedgerOption func(*LedgerFile)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *LedgerFile) { l.now = now }
}

// WithCooldown overrides DefaultCooldown.
func WithCooldown(window time.Duration) LedgerOption {
	return func(l *LedgerFile) {
		if window > 0 {
			l.window = window
		}
	}
}

// NewLedgerFile creates a ledger backed by the file at path.
func NewLedgerFile(path string, logger ports.Logger, opts ...LedgerOption) *LedgerFile {
	l := &LedgerFile{
		path:   path,
		window: DefaultCooldown,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the full path to the ledger file.
func (l *LedgerFile) Path() string {
	return l.path
}

// Window returns the cooldown window.
func (l *LedgerFile) Window() time.Duration {
	return l.window
}

// RecordSent sets the last-sent time of addr to now and persists the ledger.
func (l *LedgerFile) RecordSent(ctx context.Context, addr domain.Address) {
	data := l.read()
	data[domain.NormalizeAddress(addr.String()).String()] = l.now().UnixMilli()
	l.write(data)
}

// IsRecentlySent evicts expired entries, then reports whether addr was sent
// less than one cooldown window ago.
func (l *LedgerFile) IsRecentlySent(ctx context.Context, addr domain.Address) bool {
	l.Cleanup(ctx)

	ts, ok := l.read()[domain.NormalizeAddress(addr.String()).String()]
	if !ok {
		return false
	}
	return l.now().Sub(time.UnixMilli(ts)) < l.window
}

// Cleanup evicts entries older than the cooldown window. The file is only
// rewritten when at least one entry was evicted.
func (l *LedgerFile) Cleanup(ctx context.Context) int {
	data := l.read()
	now := l.now()

	evicted := 0
	for addr, ts := range data {
		if now.Sub(time.UnixMilli(ts)) > l.window {
			delete(data, addr)
			evicted++
		}
	}

	if evicted > 0 {
		l.write(data)
		l.logger.Debug("ledger cleanup", ports.Int("evicted", evicted), ports.Int("remaining", len(data)))
	}
	return evicted
}

// Entries returns every ledger entry, oldest send first.
func (l *LedgerFile) Entries(ctx context.Context) []domain.LedgerEntry {
	data := l.read()
	entries := make([]domain.LedgerEntry, 0, len(data))
	for addr, ts := range data {
		entries = append(entries, domain.LedgerEntry{
			Address:    domain.Address(addr),
			LastSentAt: time.UnixMilli(ts),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastSentAt.Equal(entries[j].LastSentAt) {
			return entries[i].Address < entries[j].Address
		}
		return entries[i].LastSentAt.Before(entries[j].LastSentAt)
	})
	return entries
}

// read loads the ledger with normalised keys. Any failure yields an empty map.
func (l *LedgerFile) read() map[string]int64 {
	b, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Error("read ledger", ports.String("path", l.path), ports.Err(err))
		}
		return map[string]int64{}
	}

	raw := map[string]int64{}
	if err := json.Unmarshal(b, &raw); err != nil {
		l.logger.Error("decode ledger, treating as empty", ports.String("path", l.path), ports.Err(err))
		return map[string]int64{}
	}

	// Keys written by other tools may carry mixed case. Fold them so lookups
	// match, keeping the newest send when two spellings collide.
	data := make(map[string]int64, len(raw))
	for addr, ts := range raw {
		key := domain.NormalizeAddress(addr).String()
		if key == "" {
			continue
		}
		if prev, ok := data[key]; !ok || ts > prev {
			data[key] = ts
		}
	}
	return data
}

// write persists data. Failures are logged and the write is skipped.
func (l *LedgerFile) write(data map[string]int64) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		l.logger.Error("encode ledger", ports.Err(err))
		return
	}
	if err := writeFileAtomic(l.path, b, 0o600); err != nil {
		l.logger.Error("write ledger", ports.String("path", l.path), ports.Err(err))
	}
}
