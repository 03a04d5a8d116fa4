package replay

import "errors"

// ReplayError-class errors (spec.md §6/§7): malformed input or
// out-of-order timestamps abort the whole replay run.
var (
	ErrMalformed      = errors.New("replay: malformed csv line")
	ErrOutOfOrder     = errors.New("replay: event timestamps not monotonic")
	ErrUnknownCancel  = errors.New("replay: cancel for unknown external order id")
	ErrDuplicateEntry = errors.New("replay: entry for already-active external order id")
)
