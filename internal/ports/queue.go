package ports

import (
	"context"

	"github.com/bft-labs/mailship/internal/domain"
)

// Queue is the persisted list of discovered addresses awaiting a send.
type Queue interface {
	// Ensure creates the backing store if it does not exist yet.
	Ensure(ctx context.Context) error

	// Load returns every queued address in file order, normalised, with empty
	// lines dropped. Repeats are returned as-is.
	Load(ctx context.Context) ([]domain.Address, error)

	// Append adds addr to the end of the queue and flushes before returning.
	Append(ctx context.Context, addr domain.Address) error

	// Remove deletes every line matching addr and keeps all other lines.
	Remove(ctx context.Context, addr domain.Address) error
}
