package transport

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"driftbook/internal/book"
	"driftbook/internal/common"
)

// epsilonLambda is the threshold below which a delay rate is treated as
// exactly zero (spec.md §4.6's "degenerate zero-delay mode").
const epsilonLambda = 1e-12

// OrderPayload is the place-request an agent hands to a Transport; it
// mirrors the argument list of book.Engine.Add minus the parts the engine
// itself owns (assigned id, creation time).
type OrderPayload struct {
	LocalID   common.LocalOrderID
	Price     common.Price
	TotalSize common.Size
	Show      common.Size
	Side      common.Side
	IsShadow  bool
}

type pendingPlace struct {
	submitTime common.Time
	clientID   common.ClientID
	payload    OrderPayload
}

type pendingCancel struct {
	submitTime common.Time
	oid        common.OrderID
}

type placementKey struct {
	clientID common.ClientID
	price    common.Price
}

// Transport queues agent place/cancel requests behind a per-batch
// exponential delay and fans engine notifications back to the requesting
// agent (spec.md component C7).
type Transport struct {
	engine *book.Engine
	notify *AgentDispatchNotifier

	places  []pendingPlace
	cancels []pendingCancel

	lambda float64
	delay  common.Time

	placementCounts map[placementKey]int
}

// New builds a Transport bound to engine. base receives every
// notification in addition to agent dispatch (pass book.NoopNotifier{}
// for silent operation). lambda is the exponential delay rate; a
// non-positive or near-zero lambda selects the degenerate zero-delay mode.
func New(engine *book.Engine, base book.Notifier, lambda float64) *Transport {
	return &Transport{
		engine:          engine,
		notify:          newAgentDispatchNotifier(base),
		lambda:          lambda,
		placementCounts: make(map[placementKey]int),
	}
}

// Register binds agent to its client id. It fails if that id is already bound.
func (t *Transport) Register(agent Agent) error {
	return t.notify.register(agent)
}

// Notifier exposes the transport's agent-dispatching sink, for callers
// (the simulation driver's own shutdown path) that need to drive the
// engine directly outside the place/cancel FIFOs.
func (t *Transport) Notifier() book.Notifier { return t.notify }

// Place enqueues a placement, stamped with the engine's current time.
func (t *Transport) Place(cid common.ClientID, payload OrderPayload) {
	t.places = append(t.places, pendingPlace{
		submitTime: t.engine.Time(),
		clientID:   cid,
		payload:    payload,
	})
	t.placementCounts[placementKey{cid, payload.Price}]++
}

// Cancel enqueues a cancel, stamped with the engine's current time.
func (t *Transport) Cancel(cid common.ClientID, oid common.OrderID) {
	t.cancels = append(t.cancels, pendingCancel{
		submitTime: t.engine.Time(),
		oid:        oid,
	})
}

// PlacementCount returns the running diagnostic counter of placements an
// agent has sent at a given price (spec.md §4.6).
func (t *Transport) PlacementCount(cid common.ClientID, price common.Price) int {
	return t.placementCounts[placementKey{cid, price}]
}

// RefreshDelay draws the delay applied to this tick's deliveries. Called
// once per outer simulation tick, per spec.md §4.7 step 3.
func (t *Transport) RefreshDelay(rng *rand.Rand) {
	if t.lambda <= epsilonLambda {
		t.delay = 0
		return
	}
	dist := distuv.Exponential{Rate: t.lambda, Src: rng}
	t.delay = common.Time(dist.Rand())
}

// NextSendTime is the earliest time either FIFO head becomes deliverable,
// or +Inf if both are empty.
func (t *Transport) NextSendTime() float64 {
	next := math.Inf(1)
	if len(t.places) > 0 {
		next = math.Min(next, float64(t.places[0].submitTime+t.delay))
	}
	if len(t.cancels) > 0 {
		next = math.Min(next, float64(t.cancels[0].submitTime+t.delay))
	}
	return next
}

// Deliver drains both FIFOs from the front while their head is
// deliverable by now, invoking engine.Add / engine.Cancel in turn. Places
// are drained to exhaustion before cancels, so a place and a cancel that
// become deliverable at the same instant dispatch in that order
// (spec.md §5 cancellation ordering).
func (t *Transport) Deliver(now common.Time) error {
	for len(t.places) > 0 && t.places[0].submitTime+t.delay <= now {
		p := t.places[0]
		t.places = t.places[1:]
		_, err := t.engine.Add(p.clientID, p.payload.LocalID, p.payload.Price, p.payload.TotalSize,
			p.payload.Show, p.payload.Side, p.payload.IsShadow, t.notify)
		if err != nil {
			return err
		}
		if t.notify.fatal != nil {
			return t.notify.fatal
		}
	}
	for len(t.cancels) > 0 && t.cancels[0].submitTime+t.delay <= now {
		c := t.cancels[0]
		t.cancels = t.cancels[1:]
		t.engine.Cancel(c.oid, t.notify)
		if t.notify.fatal != nil {
			return t.notify.fatal
		}
	}
	return nil
}
