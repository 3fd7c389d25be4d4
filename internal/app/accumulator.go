package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/extract"
	"github.com/bft-labs/mailship/internal/ports"
)

// Default accumulator limits.
const (
	DefaultMaxCycles  = 25
	DefaultIdleCycles = 5
)

// AccumulatorConfig bounds a discovery run.
type AccumulatorConfig struct {
	// MaxCycles is the hard upper bound on scan cycles.
	MaxCycles int

	// IdleCycles is the number of consecutive cycles without a new address
	// after which the scan is considered converged.
	IdleCycles int
}

// DefaultAccumulatorConfig returns the standard limits.
func DefaultAccumulatorConfig() AccumulatorConfig {
	return AccumulatorConfig{
		MaxCycles:  DefaultMaxCycles,
		IdleCycles: DefaultIdleCycles,
	}
}

// Extractor turns post text into candidate addresses.
type Extractor interface {
	Extract(text string) []domain.Address
}

// Accumulator scans a post source cycle by cycle and appends every new
// address to the queue as soon as it is found.
type Accumulator struct {
	config    AccumulatorConfig
	ledger    ports.Ledger
	queue     ports.Queue
	extractor Extractor
	logger    ports.Logger
}

// NewAccumulator creates an accumulator. Zero limits fall back to the defaults.
func NewAccumulator(
	config AccumulatorConfig,
	ledger ports.Ledger,
	queue ports.Queue,
	extractor Extractor,
	logger ports.Logger,
) *Accumulator {
	if config.MaxCycles <= 0 {
		config.MaxCycles = DefaultMaxCycles
	}
	if config.IdleCycles <= 0 {
		config.IdleCycles = DefaultIdleCycles
	}
	return &Accumulator{
		config:    config,
		ledger:    ledger,
		queue:     queue,
		extractor: extractor,
		logger:    logger,
	}
}

// Run executes discovery cycles until the idle threshold or the cycle limit
// is reached. Source errors and cancellation end the scan early; the partial
// result is returned with the error. Addresses already appended stay queued.
func (a *Accumulator) Run(ctx context.Context, src ports.PostSource) (domain.ScanResult, error) {
	var res domain.ScanResult

	if err := a.queue.Ensure(ctx); err != nil {
		return res, fmt.Errorf("prepare queue: %w", err)
	}
	queued, err := a.queue.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load queue: %w", err)
	}

	discovered := make(map[domain.Address]struct{}, len(queued))
	for _, addr := range queued {
		discovered[addr] = struct{}{}
	}
	res.Pending = len(discovered)

	a.logger.Info("scan started",
		ports.Int("queued", len(discovered)),
		ports.Int("max_cycles", a.config.MaxCycles),
		ports.Int("idle_cycles", a.config.IdleCycles),
	)

	idle := 0
	for res.Cycles < a.config.MaxCycles {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if res.Cycles > 0 {
			if err := src.Reveal(ctx); err != nil {
				return res, fmt.Errorf("reveal more posts after cycle %d: %w", res.Cycles, err)
			}
		}

		posts, err := src.Posts(ctx)
		if err != nil {
			return res, fmt.Errorf("read posts in cycle %d: %w", res.Cycles+1, err)
		}
		res.Cycles++

		added := a.collect(ctx, posts, discovered)
		res.NewAddresses += added
		res.Pending = len(discovered)

		if added == 0 {
			idle++
		} else {
			idle = 0
		}

		a.logger.Debug("scan cycle",
			ports.Int("cycle", res.Cycles),
			ports.Int("posts", len(posts)),
			ports.Int("new", added),
			ports.Int("idle", idle),
		)

		if idle >= a.config.IdleCycles {
			res.Converged = true
			break
		}
	}

	a.logger.Info("scan finished",
		ports.Int("cycles", res.Cycles),
		ports.Int("new", res.NewAddresses),
		ports.Int("pending", res.Pending),
		ports.Bool("converged", res.Converged),
	)
	return res, nil
}

// collect queues every address in posts that is neither discovered nor
// recently sent, and returns how many were added.
func (a *Accumulator) collect(ctx context.Context, posts []string, discovered map[domain.Address]struct{}) int {
	added := 0
	for _, post := range posts {
		a.logRejected(post)

		for _, addr := range a.extractor.Extract(post) {
			if _, ok := discovered[addr]; ok {
				continue
			}
			if a.ledger.IsRecentlySent(ctx, addr) {
				a.logger.Debug("skipping recently sent address", ports.String("address", addr.String()))
				continue
			}
			if err := a.queue.Append(ctx, addr); err != nil {
				a.logger.Error("failed to queue address",
					ports.String("address", addr.String()),
					ports.Err(err),
				)
				continue
			}

			discovered[addr] = struct{}{}
			added++
			a.logger.Info("queued address", ports.String("address", addr.String()))
		}
	}
	return added
}

func (a *Accumulator) logRejected(post string) {
	x, ok := a.extractor.(*extract.Extractor)
	if !ok {
		return
	}
	for _, r := range x.Rejected(post) {
		a.logger.Debug("rejected candidate",
			ports.String("address", r.Address.String()),
			ports.String("rule", r.Rule),
		)
	}
}
