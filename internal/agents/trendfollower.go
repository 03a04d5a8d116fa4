package agents

import (
	"math"

	"driftbook/internal/book"
	"driftbook/internal/common"
	"driftbook/internal/sim"
	"driftbook/internal/transport"
)

// TrendFollower buys at the best offer when wm runs above its own EMA by
// more than spread, sells at the best bid when it runs below, and stays
// out otherwise. It holds at most one resting order per side/price and
// cancels anything that no longer matches its current target. Grounded on
// original_source/src/agents.h's TrendFollowerAgent.
type TrendFollower struct {
	orderTracker

	cid    common.ClientID
	ema    ema
	spread float64
	market *sim.MarketSnapshot

	localIDCounter common.LocalOrderID
}

func NewTrendFollower(cid common.ClientID, emaPeriod, spread float64, market *sim.MarketSnapshot) *TrendFollower {
	return &TrendFollower{
		orderTracker: newOrderTracker(),
		cid:          cid,
		ema:          newEMA(emaPeriod),
		spread:       spread,
		market:       market,
	}
}

func (f *TrendFollower) ClientID() common.ClientID { return f.cid }

// NextActionTime never independently schedules work: a trend follower
// only ever reacts to the market snapshot another agent's action produced.
func (f *TrendFollower) NextActionTime() float64 { return math.Inf(1) }

func (f *TrendFollower) OnMarketStateChanged(t *transport.Transport) {
	if math.IsNaN(f.market.WM) {
		return
	}
	f.ema.update(1e-9*float64(f.market.Time), f.market.WM)

	var side common.Side
	var price common.Price
	switch {
	case f.market.WM > f.ema.value+f.spread:
		if len(f.market.Asks) == 0 || f.market.Asks[0].ShownSize == 0 {
			return
		}
		side, price = common.Bid, f.market.Asks[0].Price
	case f.market.WM < f.ema.value-f.spread:
		if len(f.market.Bids) == 0 || f.market.Bids[0].ShownSize == 0 {
			return
		}
		side, price = common.Offer, f.market.Bids[0].Price
	default:
		return
	}

	for _, o := range f.unacked {
		if o.side == side && o.price == price {
			return
		}
	}

	found := false
	for _, o := range f.acked {
		if o.waitingToCancel {
			continue
		}
		if o.side == side && o.price == price {
			found = true
			continue
		}
		o.waitingToCancel = true
		t.Cancel(f.cid, o.oid)
	}
	if found {
		return
	}

	localID := f.localIDCounter
	f.localIDCounter++
	const quoteSize = common.Size(10)
	f.trackUnacked(localID, price, quoteSize, side)
	t.Place(f.cid, transport.OrderPayload{
		LocalID:   localID,
		Price:     price,
		TotalSize: quoteSize,
		Show:      1,
		Side:      side,
	})
}

func (f *TrendFollower) OnOwnOrderMessage(kind book.Kind, localID common.LocalOrderID, oid common.OrderID, size common.Size, price common.Price) {
	f.orderTracker.dispatch(kind, localID, oid, size)
}
