package book

import "errors"

// Error kinds per spec.md §7. UnknownOrder and AmbiguousOrder are
// deliberately not returned as Go errors from Cancel — they are
// non-fatal and surface only through Notifier.Error, per spec.md's
// design note on replacing exceptions-for-control-flow with an explicit
// sum type routed through the notifier's error channel.
var (
	ErrInvalidArgument = errors.New("invalid argument")
)
