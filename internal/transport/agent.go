// Package transport implements the asynchronous connection between agents
// and the matching engine: latency-queued order placement/cancellation
// and notification routing back to the originating agent (spec.md
// component C7).
package transport

import (
	"driftbook/internal/book"
	"driftbook/internal/common"
)

// Agent is the interface the simulation driver and transport drive. It
// replaces the original's CRTP Agent<Specific> template with a plain Go
// interface (spec.md §9 design notes).
type Agent interface {
	// ClientID identifies this agent for registration and notification
	// routing.
	ClientID() common.ClientID

	// NextActionTime returns the logical time of this agent's next
	// scheduled action, or +Inf (math.Inf(1)) if it has nothing pending.
	NextActionTime() float64

	// OnMarketStateChanged is invoked once per outer-loop tick once the
	// clock has advanced; the agent may enqueue places/cancels into t.
	OnMarketStateChanged(t *Transport)

	// OnOwnOrderMessage delivers one lifecycle notification for an order
	// this agent owns. size/price are only meaningful for Trade.
	OnOwnOrderMessage(kind book.Kind, localID common.LocalOrderID, oid common.OrderID, size common.Size, price common.Price)
}
