package agents

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"driftbook/internal/book"
	"driftbook/internal/common"
	"driftbook/internal/sim"
	"driftbook/internal/transport"
)

// PriceMakerParams mirrors original_source/src/agents.h's
// PriceMakerAroundWM constructor arguments.
type PriceMakerParams struct {
	PlacementLambda    float64
	CancellationLambda float64
	PriceScale         float64 // mean distance from wm, in ticks
	SizeMean           float64
	AggressiveProb     float64
	MaxOutstanding     int
}

// PriceMaker quotes around the book's weighted mid, drawing its price
// offset, side, aggressiveness and size from simple distributions, and
// cancels each resting order after an independent exponential delay.
// Grounded on original_source/src/agents.h's PriceMakerAroundWM, with the
// boost distributions replaced by gonum/stat/distuv equivalents.
type PriceMaker struct {
	orderTracker

	cid    common.ClientID
	params PriceMakerParams
	market *sim.MarketSnapshot

	placement    distuv.Exponential
	cancellation distuv.Exponential
	priceOffset  distuv.Exponential
	size         distuv.Poisson
	side         distuv.Bernoulli
	aggressive   distuv.Bernoulli

	localIDCounter  common.LocalOrderID
	nextPlacementAt common.Time
	cancelDeadlines map[common.Time][]common.OrderID
}

// NewPriceMaker builds a price maker reading top-of-book off market
// (the driver's shared, continuously refreshed snapshot) and drawing
// randomness from rng.
func NewPriceMaker(cid common.ClientID, params PriceMakerParams, market *sim.MarketSnapshot, rng *rand.Rand) *PriceMaker {
	pm := &PriceMaker{
		orderTracker:    newOrderTracker(),
		cid:             cid,
		params:          params,
		market:          market,
		placement:       distuv.Exponential{Rate: params.PlacementLambda, Src: rng},
		cancellation:    distuv.Exponential{Rate: params.CancellationLambda, Src: rng},
		priceOffset:     distuv.Exponential{Rate: 1 / params.PriceScale, Src: rng},
		size:            distuv.Poisson{Lambda: params.SizeMean, Src: rng},
		side:            distuv.Bernoulli{P: 0.5, Src: rng},
		aggressive:      distuv.Bernoulli{P: params.AggressiveProb, Src: rng},
		cancelDeadlines: make(map[common.Time][]common.OrderID),
	}
	pm.nextPlacementAt = common.Time(1e9 * pm.placement.Rand())
	return pm
}

func (p *PriceMaker) ClientID() common.ClientID { return p.cid }

// NextActionTime is the earlier of the next scheduled placement and the
// earliest pending cancellation deadline.
func (p *PriceMaker) NextActionTime() float64 {
	t := float64(p.nextPlacementAt)
	for when := range p.cancelDeadlines {
		if float64(when) < t {
			t = float64(when)
		}
	}
	return t
}

func (p *PriceMaker) OnMarketStateChanged(t *transport.Transport) {
	now := p.market.Time

	if now >= p.nextPlacementAt && p.outstanding() < p.params.MaxOutstanding {
		p.placeOne(t)
		for now >= p.nextPlacementAt {
			p.nextPlacementAt += common.Time(1e9 * p.placement.Rand())
		}
	}

	for when, oids := range p.cancelDeadlines {
		if now < when {
			continue
		}
		for _, oid := range oids {
			p.markWaitingToCancel(oid)
			t.Cancel(p.cid, oid)
		}
		delete(p.cancelDeadlines, when)
	}
}

func (p *PriceMaker) placeOne(t *transport.Transport) {
	wm := p.market.WM
	if math.IsNaN(wm) {
		wm = 0
	}
	dp := p.priceOffset.Rand()
	passiveSide := common.Bid
	if p.side.Rand() != 0 {
		passiveSide = common.Offer
	}
	side := passiveSide
	if p.aggressive.Rand() != 0 {
		side = passiveSide.Other()
	}

	continuous := wm - dp
	if passiveSide == common.Offer {
		continuous = wm + dp
	}
	price := common.Price(math.Floor(continuous))
	if side == common.Offer {
		price = common.Price(math.Ceil(continuous))
	}

	size := common.Size(p.size.Rand())
	if size <= 0 {
		size = 1
	}

	localID := p.localIDCounter
	p.localIDCounter++
	p.trackUnacked(localID, price, size, side)
	t.Place(p.cid, transport.OrderPayload{
		LocalID:   localID,
		Price:     price,
		TotalSize: size,
		Show:      2,
		Side:      side,
	})
}

func (p *PriceMaker) OnOwnOrderMessage(kind book.Kind, localID common.LocalOrderID, oid common.OrderID, size common.Size, price common.Price) {
	p.orderTracker.dispatch(kind, localID, oid, size)
	if kind == book.Ack {
		deadline := p.market.Time + common.Time(1e9*p.cancellation.Rand())
		p.cancelDeadlines[deadline] = append(p.cancelDeadlines[deadline], oid)
	}
}
