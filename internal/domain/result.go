package domain

// ScanResult summarises one discovery run.
type ScanResult struct {
	// Cycles is the number of scan cycles executed.
	Cycles int

	// NewAddresses is the number of addresses appended to the queue this run.
	NewAddresses int

	// Pending is the size of the discovered set when the scan ended:
	// queue entries carried over from earlier runs plus new ones.
	Pending int

	// Converged is true when the scan stopped on the idle-cycle threshold
	// rather than the cycle limit.
	Converged bool
}

// DispatchResult summarises one pass over the queue.
type DispatchResult struct {
	Attempted int
	Sent      int
	Failed    int

	// Skipped counts queue entries dropped because the ledger shows a send
	// inside the cooldown window.
	Skipped int
}

// OK reports whether every attempted send succeeded.
func (r DispatchResult) OK() bool {
	return r.Failed == 0
}

// RunReport is the outcome of a full scan-then-dispatch run.
type RunReport struct {
	Scan     ScanResult
	Dispatch DispatchResult

	// DispatchSkipped is true when nothing was pending and no dispatch ran.
	DispatchSkipped bool

	ScanErr     error
	DispatchErr error
}

// Failed reports whether the run should surface a failure exit status.
func (r RunReport) Failed() bool {
	return r.ScanErr != nil || r.DispatchErr != nil || r.Dispatch.Failed > 0
}
