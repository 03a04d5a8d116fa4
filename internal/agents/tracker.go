// Package agents provides thin demo implementations of the transport.Agent
// interface — a price-maker, a trend follower and a stub market maker —
// grounded on original_source/src/agents.h's PriceMakerAroundWM,
// TrendFollowerAgent and SingleInstrumentMarketMaker. Policy internals
// (exact price/size distributions) are a deliberately narrow surface;
// what matters here is the unacked/acked order bookkeeping every agent
// needs to honor spec.md §4.6's handler contract.
package agents

import (
	"driftbook/internal/book"
	"driftbook/internal/common"
)

// trackedOrder is an agent's local view of one of its own orders.
type trackedOrder struct {
	localID           common.LocalOrderID
	oid               common.OrderID
	price             common.Price
	side              common.Side
	remainingSize     common.Size
	waitingToCancel   bool
}

// orderTracker implements the agent-side handler contract of spec.md
// §4.6: an unacked set keyed by local id, an acked set keyed by oid.
// Embed it in an Agent implementation and call its dispatch method from
// OnOwnOrderMessage.
type orderTracker struct {
	unacked map[common.LocalOrderID]*trackedOrder
	acked   map[common.OrderID]*trackedOrder
}

func newOrderTracker() orderTracker {
	return orderTracker{
		unacked: make(map[common.LocalOrderID]*trackedOrder),
		acked:   make(map[common.OrderID]*trackedOrder),
	}
}

func (t *orderTracker) trackUnacked(localID common.LocalOrderID, price common.Price, size common.Size, side common.Side) {
	t.unacked[localID] = &trackedOrder{localID: localID, price: price, side: side, remainingSize: size}
}

func (t *orderTracker) outstanding() int {
	return len(t.unacked) + len(t.acked)
}

// onAck implements the Ack branch of the handler contract: promote an
// unacked order to acked, or treat a repeat Ack on an already-acked oid as
// a silent hidden-size replenishment.
func (t *orderTracker) onAck(localID common.LocalOrderID, oid common.OrderID) {
	if o, ok := t.unacked[localID]; ok {
		delete(t.unacked, localID)
		o.oid = oid
		t.acked[oid] = o
		return
	}
	if _, ok := t.acked[oid]; ok {
		return // hidden-size replenishment; no state change.
	}
	panic(agentProtocolViolation{"ack for unknown local id and unknown oid"})
}

func (t *orderTracker) onTrade(oid common.OrderID, tradeSize common.Size) {
	o, ok := t.acked[oid]
	if !ok {
		panic(agentProtocolViolation{"trade for unknown oid"})
	}
	if tradeSize < 0 {
		tradeSize = -tradeSize
	}
	o.remainingSize -= tradeSize
}

func (t *orderTracker) onCancel(oid common.OrderID) {
	o, ok := t.acked[oid]
	if !ok || !o.waitingToCancel {
		panic(agentProtocolViolation{"cancel for order not waiting to be cancelled"})
	}
	o.remainingSize = 0
}

// onEnd returns the order so callers can run policy-specific cleanup; it
// removes the order from the acked set only once remaining size has
// reached zero (spec.md §4.6).
func (t *orderTracker) onEnd(oid common.OrderID) *trackedOrder {
	o, ok := t.acked[oid]
	if !ok {
		panic(agentProtocolViolation{"end for unknown oid"})
	}
	if o.remainingSize == 0 {
		delete(t.acked, oid)
	}
	return o
}

func (t *orderTracker) markWaitingToCancel(oid common.OrderID) {
	if o, ok := t.acked[oid]; ok {
		o.waitingToCancel = true
	}
}

func (t *orderTracker) dispatch(kind book.Kind, localID common.LocalOrderID, oid common.OrderID, size common.Size) {
	switch kind {
	case book.Ack:
		t.onAck(localID, oid)
	case book.Trade:
		t.onTrade(oid, size)
	case book.Cancel:
		t.onCancel(oid)
	case book.End:
		t.onEnd(oid)
	}
}

// agentProtocolViolation is spec.md §7's AgentProtocolViolation: a fatal
// error in agent context. It is raised via panic (rather than threaded
// through OnOwnOrderMessage's signature, fixed by the transport.Agent
// interface) and recovered at the simulation driver boundary.
type agentProtocolViolation struct{ msg string }

func (e agentProtocolViolation) Error() string { return "agent protocol violation: " + e.msg }
