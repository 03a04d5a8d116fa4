package agents

import (
	"math"

	"driftbook/internal/book"
	"driftbook/internal/common"
	"driftbook/internal/sim"
	"driftbook/internal/transport"
)

// MarketMaker holds no parameters beyond its client id: while flat it
// stays out of the market, and once a trade moves it off zero it quotes
// the size needed to flatten back to zero on whichever side reduces its
// position, pulling in to the touch when the touch is already tight.
// Grounded on original_source/src/agents.h's SingleInstrumentMarketMaker.
type MarketMaker struct {
	orderTracker

	cid            common.ClientID
	market         *sim.MarketSnapshot
	localIDCounter common.LocalOrderID
	position       common.Size
}

func NewMarketMaker(cid common.ClientID, market *sim.MarketSnapshot) *MarketMaker {
	return &MarketMaker{orderTracker: newOrderTracker(), cid: cid, market: market}
}

func (m *MarketMaker) ClientID() common.ClientID { return m.cid }

func (m *MarketMaker) NextActionTime() float64 { return math.Inf(1) }

func (m *MarketMaker) OnMarketStateChanged(t *transport.Transport) {
	if math.IsNaN(m.market.WM) || m.position == 0 {
		return
	}
	if len(m.market.Bids) == 0 || len(m.market.Asks) == 0 {
		return
	}
	bestBid, bestAsk := m.market.Bids[0], m.market.Asks[0]
	if bestBid.ShownSize == 0 || bestAsk.ShownSize == 0 {
		return
	}

	side := common.Bid
	price := bestBid.Price
	if m.market.WM-float64(bestBid.Price) >= 0.8 {
		price++
	}
	if m.position > 0 {
		side = common.Offer
		price = bestAsk.Price
		if float64(bestAsk.Price)-m.market.WM >= 0.8 {
			price--
		}
	}

	wanted := m.position
	if wanted < 0 {
		wanted = -wanted
	}

	for _, o := range m.acked {
		if o.waitingToCancel {
			continue
		}
		if o.side == side && o.price == price {
			if wanted >= o.remainingSize {
				wanted -= o.remainingSize
			} else {
				o.waitingToCancel = true
				t.Cancel(m.cid, o.oid)
				wanted = 0
			}
		} else {
			o.waitingToCancel = true
			t.Cancel(m.cid, o.oid)
		}
	}
	for _, o := range m.unacked {
		if o.side == side && o.price == price {
			if wanted >= o.remainingSize {
				wanted -= o.remainingSize
			} else {
				wanted = 0
			}
		}
	}

	if wanted <= 0 {
		return
	}
	localID := m.localIDCounter
	m.localIDCounter++
	m.trackUnacked(localID, price, wanted, side)
	t.Place(m.cid, transport.OrderPayload{
		LocalID:   localID,
		Price:     price,
		TotalSize: wanted,
		Show:      2,
		Side:      side,
	})
}

func (m *MarketMaker) OnOwnOrderMessage(kind book.Kind, localID common.LocalOrderID, oid common.OrderID, size common.Size, price common.Price) {
	if kind == book.Trade {
		m.position += size
	}
	m.orderTracker.dispatch(kind, localID, oid, size)
}
