package sim

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftbook/internal/book"
	"driftbook/internal/common"
	"driftbook/internal/transport"
)

// oneShotAgent reports fireAt as its next action time and places a single
// order on the first market-state callback it receives (whichever agent's
// action triggered that tick), then reports no further action.
type oneShotAgent struct {
	cid      common.ClientID
	fireAt   common.Time
	fired    bool
	payload  transport.OrderPayload
	seenMsgs []book.Kind
}

func (a *oneShotAgent) ClientID() common.ClientID { return a.cid }

func (a *oneShotAgent) NextActionTime() float64 {
	if a.fired {
		return math.Inf(1)
	}
	return float64(a.fireAt)
}

func (a *oneShotAgent) OnMarketStateChanged(t *transport.Transport) {
	if a.fired {
		return
	}
	t.Place(a.cid, a.payload)
	a.fired = true
}

func (a *oneShotAgent) OnOwnOrderMessage(kind book.Kind, localID common.LocalOrderID, oid common.OrderID, size common.Size, price common.Price) {
	a.seenMsgs = append(a.seenMsgs, kind)
}

func TestDriverRunsToCompletionWithZeroDelay(t *testing.T) {
	e := book.NewEngine()
	tr := transport.New(e, book.NoopNotifier{}, 0)
	d := New(e, tr, 10, 1, zerolog.Nop())

	bidAgent := &oneShotAgent{cid: 1, fireAt: 1, payload: transport.OrderPayload{Price: 100, TotalSize: 5, Show: 5, Side: common.Bid}}
	askAgent := &oneShotAgent{cid: 2, fireAt: 2, payload: transport.OrderPayload{Price: 100, TotalSize: 5, Show: 5, Side: common.Offer}}
	require.NoError(t, d.AddAgent(bidAgent))
	require.NoError(t, d.AddAgent(askAgent))

	err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, bidAgent.seenMsgs, book.Ack)
	assert.Contains(t, askAgent.seenMsgs, book.Ack)
	assert.True(t, d.Market.Time > 0)
}

// stalledAgent always wants to act at t=0, which never exceeds the
// driver's starting clock, so the first iteration must fail fast.
type stalledAgent struct{}

func (stalledAgent) ClientID() common.ClientID                  { return 99 }
func (stalledAgent) NextActionTime() float64                    { return 0 }
func (stalledAgent) OnMarketStateChanged(*transport.Transport)  {}
func (stalledAgent) OnOwnOrderMessage(book.Kind, common.LocalOrderID, common.OrderID, common.Size, common.Price) {
}

func TestDriverDetectsStalledClock(t *testing.T) {
	e := book.NewEngine()
	tr := transport.New(e, book.NoopNotifier{}, 0)
	d := New(e, tr, 10, 1, zerolog.Nop())
	require.NoError(t, d.AddAgent(stalledAgent{}))

	err := d.Run(context.Background())
	assert.ErrorIs(t, err, ErrStalledClock)
}

func TestDriverStopsWithNoAgentsOrWork(t *testing.T) {
	e := book.NewEngine()
	tr := transport.New(e, book.NoopNotifier{}, 0)
	d := New(e, tr, 10, 1, zerolog.Nop())
	err := d.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, d.Market.Time)
}
