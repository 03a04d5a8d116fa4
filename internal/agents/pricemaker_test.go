package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"driftbook/internal/book"
	"driftbook/internal/common"
	"driftbook/internal/sim"
	"driftbook/internal/transport"
)

func TestPriceMakerPlacesWithinMaxOutstanding(t *testing.T) {
	market := &sim.MarketSnapshot{WM: 100}
	rng := rand.New(rand.NewSource(1))
	params := PriceMakerParams{
		PlacementLambda:    1,
		CancellationLambda: 1,
		PriceScale:         2,
		SizeMean:           5,
		AggressiveProb:     0.5,
		MaxOutstanding:     2,
	}
	p := NewPriceMaker(1, params, market, rng)

	e := book.NewEngine()
	tr := transport.New(e, book.NoopNotifier{}, 0)
	require.NoError(t, tr.Register(p))

	for i := 0; i < 5; i++ {
		market.Time = common.Time(i) * 1_000_000_000
		p.OnMarketStateChanged(tr)
	}

	assert.LessOrEqual(t, p.outstanding(), params.MaxOutstanding)
}

func TestPriceMakerAckStartsCancelTimer(t *testing.T) {
	market := &sim.MarketSnapshot{WM: 100, Time: 0}
	rng := rand.New(rand.NewSource(2))
	params := PriceMakerParams{PlacementLambda: 1, CancellationLambda: 1, PriceScale: 1, SizeMean: 1, MaxOutstanding: 5}
	p := NewPriceMaker(7, params, market, rng)

	var oid common.OrderID
	oid[11] = 1
	p.trackUnacked(0, 100, 5, common.Bid)
	p.OnOwnOrderMessage(book.Ack, 0, oid, 0, 0)

	assert.NotEmpty(t, p.cancelDeadlines)
}
