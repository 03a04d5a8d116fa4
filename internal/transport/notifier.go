package transport

import (
	"fmt"

	"driftbook/internal/book"
	"driftbook/internal/common"
)

// errDuplicateAgent is returned by Register when a client id is already bound.
type errDuplicateAgent struct{ cid common.ClientID }

func (e errDuplicateAgent) Error() string {
	return fmt.Sprintf("transport: agent for client %d already registered", e.cid)
}

// errUnroutedNotification is the fatal configuration error spec.md §4.6
// describes: an engine notification for a client with no registered agent.
type errUnroutedNotification struct {
	kind book.Kind
	oid  common.OrderID
	cid  common.ClientID
}

func (e errUnroutedNotification) Error() string {
	return fmt.Sprintf("transport: no agent registered for client %d (kind=%s oid=%s)", e.cid, e.kind, e.oid)
}

// AgentDispatchNotifier is the "agent-dispatching sink" of spec.md §4.5:
// it forwards every notification to base (for logging/recording) and
// additionally routes Ack/Trade/Cancel/End to the order's owning agent.
// It also marks Order.IsHidden when an Ack arrives for an id it has
// already seen once before — the "notifier detects a hidden-size
// replenishment from the outside" case spec.md §3 describes for the
// is_hidden field.
type AgentDispatchNotifier struct {
	base   book.Notifier
	agents map[common.ClientID]Agent
	seen   map[common.OrderID]bool

	// fatal records an unrecoverable routing error. The transport checks
	// this after every engine call it drives through this notifier.
	fatal error
}

func newAgentDispatchNotifier(base book.Notifier) *AgentDispatchNotifier {
	if base == nil {
		base = book.NoopNotifier{}
	}
	return &AgentDispatchNotifier{
		base:   base,
		agents: make(map[common.ClientID]Agent),
		seen:   make(map[common.OrderID]bool),
	}
}

func (n *AgentDispatchNotifier) register(agent Agent) error {
	cid := agent.ClientID()
	if _, exists := n.agents[cid]; exists {
		return errDuplicateAgent{cid: cid}
	}
	n.agents[cid] = agent
	return nil
}

func (n *AgentDispatchNotifier) LogOrder(kind book.Kind, o *book.Order, now common.Time, tradeSize common.Size, tradePrice common.Price) {
	n.base.LogOrder(kind, o, now, tradeSize, tradePrice)

	if kind == book.Ack {
		if n.seen[o.OrderID] {
			o.IsHidden = true
		}
		n.seen[o.OrderID] = true
	}

	agent, ok := n.agents[o.ClientID]
	if !ok {
		n.fatal = errUnroutedNotification{kind: kind, oid: o.OrderID, cid: o.ClientID}
		return
	}
	agent.OnOwnOrderMessage(kind, o.LocalID, o.OrderID, tradeSize, tradePrice)
}

func (n *AgentDispatchNotifier) LogBook(e *book.Engine) { n.base.LogBook(e) }

func (n *AgentDispatchNotifier) Error(oid common.OrderID, msg string) { n.base.Error(oid, msg) }
