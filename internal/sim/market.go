package sim

import (
	"driftbook/internal/book"
	"driftbook/internal/common"
)

// MarketSnapshot is the shared, continuously re-aggregated view of the
// book that agents read from when deciding their next action (spec.md
// §4.7). It is recomputed by the driver after every delivery step.
type MarketSnapshot struct {
	Time common.Time
	Bids []book.LevelSlot
	Asks []book.LevelSlot
	WM   float64
}
