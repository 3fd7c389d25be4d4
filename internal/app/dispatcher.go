package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/ports"
)

// DefaultSendInterval is the fixed pause between two send attempts.
const DefaultSendInterval = time.Second

// DispatcherConfig controls pacing of a dispatch pass.
type DispatcherConfig struct {
	SendInterval time.Duration
}

// Dispatcher sends the template to every queued address and removes each
// address from the queue once its send is confirmed.
type Dispatcher struct {
	config    DispatcherConfig
	ledger    ports.Ledger
	queue     ports.Queue
	transport ports.MailTransport
	logger    ports.Logger

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	config DispatcherConfig,
	ledger ports.Ledger,
	queue ports.Queue,
	transport ports.MailTransport,
	logger ports.Logger,
) *Dispatcher {
	return &Dispatcher{
		config:    config,
		ledger:    ledger,
		queue:     queue,
		transport: transport,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// Dispatch makes one pass over the queue.
//
// Order per address is send, record in the ledger, then remove from the
// queue. A crash between the last two steps leaves the address queued but
// recorded, and the next pass drops it without resending.
//
// Failed sends stay queued for the next run. The returned error is non-nil
// only when the queue cannot be read or the context ends the pass early.
func (d *Dispatcher) Dispatch(ctx context.Context, tmpl domain.Template) (domain.DispatchResult, error) {
	var res domain.DispatchResult

	queued, err := d.queue.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load queue: %w", err)
	}
	addrs := domain.Dedupe(queued)

	d.logger.Info("dispatch started",
		ports.Int("queued", len(addrs)),
		ports.Duration("interval", d.config.SendInterval),
	)

	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if d.ledger.IsRecentlySent(ctx, addr) {
			d.logger.Warn("address already sent inside cooldown, dropping from queue",
				ports.String("address", addr.String()),
			)
			d.dequeue(ctx, addr)
			res.Skipped++
			continue
		}

		if res.Attempted > 0 {
			if err := d.sleep(ctx, d.config.SendInterval); err != nil {
				return res, err
			}
		}
		res.Attempted++

		start := time.Now()
		id, err := d.transport.Send(ctx, tmpl.Render(addr))
		if err != nil {
			res.Failed++
			d.logger.Error("send failed",
				ports.String("address", addr.String()),
				ports.Err(err),
			)
			continue
		}

		d.ledger.RecordSent(ctx, addr)
		d.dequeue(ctx, addr)
		res.Sent++

		d.logger.Info("sent",
			ports.String("address", addr.String()),
			ports.String("message_id", id),
			ports.Duration("duration", time.Since(start)),
		)
	}

	d.logger.Info("dispatch finished",
		ports.Int("attempted", res.Attempted),
		ports.Int("sent", res.Sent),
		ports.Int("failed", res.Failed),
		ports.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (d *Dispatcher) dequeue(ctx context.Context, addr domain.Address) {
	if err := d.queue.Remove(ctx, addr); err != nil {
		d.logger.Error("failed to remove address from queue",
			ports.String("address", addr.String()),
			ports.Err(err),
		)
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
