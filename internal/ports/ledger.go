package ports

import (
	"context"

	"github.com/bft-labs/mailship/internal/domain"
)

// Ledger records when each address was last emailed.
// Implementations own their backing store exclusively.
//
// Persistence failures are not returned: implementations log them and degrade
// to an empty ledger (reads) or a skipped write. Deduplication then becomes
// best effort instead of halting the pipeline.
type Ledger interface {
	// RecordSent sets the last-sent time of addr to now, creating or
	// overwriting the entry, and persists before returning.
	RecordSent(ctx context.Context, addr domain.Address)

	// IsRecentlySent runs Cleanup and then reports whether addr was sent
	// within the cooldown window.
	IsRecentlySent(ctx context.Context, addr domain.Address) bool

	// Cleanup evicts expired entries and returns how many were removed.
	// It persists only when something was evicted.
	Cleanup(ctx context.Context) int
}
