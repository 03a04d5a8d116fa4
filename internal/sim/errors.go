package sim

import "errors"

// Fatal driver errors (spec.md §7): a stalled clock or stalled transport
// both indicate a scheduling bug and terminate the run.
var (
	ErrStalledClock     = errors.New("driver: stalled clock, next event does not advance time")
	ErrStalledTransport = errors.New("driver: stalled transport, next_send_time did not advance past delivery")
)
