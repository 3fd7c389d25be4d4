package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/mailship/internal/domain"
	"github.com/bft-labs/mailship/internal/ports"
)

// Phase is the stage a pipeline run is in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCleaning
	PhaseScanning
	PhaseDispatching
	PhaseDone
	PhaseFailed
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseCleaning:
		return "Cleaning"
	case PhaseScanning:
		return "Scanning"
	case PhaseDispatching:
		return "Dispatching"
	case PhaseDone:
		return "Done"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// PhaseObserver is called when the run phase changes.
type PhaseObserver interface {
	OnPhaseChange(previous, current Phase, reason string)
}

// PhaseTracker is the state machine for one pipeline run.
type PhaseTracker struct {
	mu       sync.RWMutex
	phase    Phase
	logger   ports.Logger
	observer PhaseObserver
}

// NewPhaseTracker creates a tracker in PhaseIdle. observer may be nil.
func NewPhaseTracker(logger ports.Logger, observer PhaseObserver) *PhaseTracker {
	return &PhaseTracker{
		phase:    PhaseIdle,
		logger:   logger,
		observer: observer,
	}
}

// Phase returns the current phase.
func (t *PhaseTracker) Phase() Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

// allowed lists the forward transitions. Every non-terminal phase may also
// move to PhaseFailed.
var allowed = map[Phase][]Phase{
	PhaseIdle:        {PhaseCleaning},
	PhaseCleaning:    {PhaseScanning},
	PhaseScanning:    {PhaseDispatching, PhaseDone},
	PhaseDispatching: {PhaseDone},
}

// TransitionTo moves the run to next. It returns an error wrapping
// domain.ErrInvalidTransition if the move is not allowed.
func (t *PhaseTracker) TransitionTo(next Phase, reason string) error {
	t.mu.Lock()
	prev := t.phase
	if !canTransition(prev, next) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, next)
	}
	t.phase = next
	t.mu.Unlock()

	if t.observer != nil {
		t.observer.OnPhaseChange(prev, next, reason)
	}

	t.logger.Info("phase transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

func canTransition(from, to Phase) bool {
	if from.Terminal() {
		return false
	}
	if to == PhaseFailed {
		return true
	}
	for _, p := range allowed[from] {
		if p == to {
			return true
		}
	}
	return false
}
