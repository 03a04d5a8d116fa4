package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftbook/internal/common"
)

func addOrDie(t *testing.T, e *Engine, cid common.ClientID, side common.Side, price, size, show common.Size, shadow bool, notify Notifier) common.OrderID {
	t.Helper()
	oid, err := e.Add(cid, common.NoLocalOrderID, common.Price(price), size, show, side, shadow, notify)
	require.NoError(t, err)
	return oid
}

// Scenario A: deterministic cross.
func TestScenarioADeterministicCross(t *testing.T) {
	e := NewEngine()
	n := NewRecordingNotifier(true)

	e.SetTime(0)
	oid0 := addOrDie(t, e, 0, common.Bid, 100, 10, 2, false, n)
	e.SetTime(1)
	addOrDie(t, e, 1, common.Bid, 100, 10, 3, false, n)
	e.SetTime(2)
	oid2 := addOrDie(t, e, 2, common.Offer, 100, 2, 2, false, n)

	snap := e.Snapshot(true)
	require.Len(t, snap.Orders, 2)
	var cid0Order *OrderSnapshot
	for i := range snap.Orders {
		if snap.Orders[i].OrderID == oid0 {
			cid0Order = &snap.Orders[i]
		}
	}
	require.NotNil(t, cid0Order)
	// Filled 2 of 10; the exhausted chunk is replenished to min(show=2, 8).
	assert.EqualValues(t, 2, cid0Order.ShownSize)
	assert.EqualValues(t, 8, cid0Order.RemainingSize)

	var tradesForEnder int
	var tradesForAggressor int
	for _, ev := range n.Events {
		if ev.Kind != Trade {
			continue
		}
		if ev.OrderID == oid0 {
			tradesForEnder++
			assert.EqualValues(t, 2, ev.TradeSize)
		}
		if ev.OrderID == oid2 {
			tradesForAggressor++
			assert.EqualValues(t, -2, ev.TradeSize)
		}
	}
	assert.Equal(t, 1, tradesForEnder)
	assert.Equal(t, 1, tradesForAggressor)

	var sawEnd bool
	for _, ev := range n.Events {
		if ev.Kind == End && ev.OrderID == oid2 {
			sawEnd = true
		}
	}
	assert.True(t, sawEnd)
}

// Scenario B: shadow non-perturbation, case 2.
func TestScenarioBShadowNonPerturbation(t *testing.T) {
	e := NewEngine()
	n := NewRecordingNotifier(true)

	e.SetTime(0)
	oidShadow := addOrDie(t, e, 0, common.Bid, 100, 10, 2, true, n)
	e.SetTime(1)
	oidReal := addOrDie(t, e, 1, common.Bid, 100, 10, 3, false, n)
	e.SetTime(2)
	oidAgg := addOrDie(t, e, 2, common.Offer, 100, 2, 2, false, n)

	snap := e.Snapshot(true)
	require.Len(t, snap.Orders, 2)
	// Bid side is emitted best-first; cid=1 must now be the FIFO head.
	assert.Equal(t, oidReal, snap.Orders[0].OrderID)
	assert.Equal(t, oidShadow, snap.Orders[1].OrderID)

	for _, o := range snap.Orders {
		assert.EqualValues(t, 8, o.RemainingSize)
	}

	var combined common.Size
	for _, ev := range n.Events {
		if ev.Kind == Trade && ev.OrderID == oidAgg {
			combined += absSize(ev.TradeSize)
		}
	}
	assert.EqualValues(t, 4, combined)
}

func absSize(s common.Size) common.Size {
	if s < 0 {
		return -s
	}
	return s
}

// Scenario C: iceberg refresh.
func TestScenarioCIcebergRefresh(t *testing.T) {
	e := NewEngine()
	n := NewRecordingNotifier(true)

	e.SetTime(0)
	oid := addOrDie(t, e, 0, common.Bid, 100, 10, 2, false, n)

	wantRemaining := []common.Size{9, 8, 7, 6, 5}
	for i, want := range wantRemaining {
		e.SetTime(common.Time(i + 1))
		addOrDie(t, e, common.ClientID(i+10), common.Offer, 100, 1, 1, false, n)

		snap := e.Snapshot(true)
		require.Len(t, snap.Orders, 1)
		assert.Equal(t, oid, snap.Orders[0].OrderID)
		assert.Equal(t, want, snap.Orders[0].RemainingSize)
		assert.Contains(t, []common.Size{1, 2}, snap.Orders[0].ShownSize)
	}

	var acks, trades int
	for _, ev := range n.Events {
		if ev.OrderID != oid {
			continue
		}
		switch ev.Kind {
		case Ack:
			acks++
		case Trade:
			trades++
			assert.EqualValues(t, 1, ev.TradeSize)
		}
	}
	// One initial Ack plus two refresh Acks: with show=2 and unit-size
	// aggressors the shown chunk runs out on every second trade.
	assert.Equal(t, 3, acks)
	assert.Equal(t, 5, trades)
}

// Scenario D: level deletion under sweep.
func TestScenarioDLevelDeletionUnderSweep(t *testing.T) {
	e := NewEngine()
	n := NewRecordingNotifier(true)

	e.SetTime(0)
	for price := common.Price(100); price >= 96; price-- {
		addOrDie(t, e, common.ClientID(price), common.Bid, common.Size(price), 5, 5, false, n)
	}

	e.SetTime(1)
	oid := addOrDie(t, e, 99, common.Offer, 98, 100, 100, false, n)

	bids, _ := e.Level2(10)
	var seen []common.Price
	for _, slot := range bids {
		if slot.ShownSize > 0 {
			seen = append(seen, slot.Price)
		}
	}
	assert.ElementsMatch(t, []common.Price{97, 96}, seen)

	snap := e.Snapshot(true)
	require.Len(t, snap.Orders, 3) // two remaining bid levels + the resting offer
	var restingOffer *OrderSnapshot
	for i := range snap.Orders {
		if snap.Orders[i].OrderID == oid {
			restingOffer = &snap.Orders[i]
		}
	}
	require.NotNil(t, restingOffer)
	assert.EqualValues(t, 85, restingOffer.RemainingSize)
}

// Scenario E: cancel-unknown is non-fatal.
func TestScenarioECancelUnknownNonFatal(t *testing.T) {
	e := NewEngine()
	n := NewRecordingNotifier(true)

	e.SetTime(0)
	oid := addOrDie(t, e, 0, common.Bid, 100, 10, 5, false, n)

	bogus := oid.Next().Next()
	e.Cancel(bogus, n)
	require.Len(t, n.Errors, 1)

	snap := e.Snapshot(true)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, oid, snap.Orders[0].OrderID)

	e.Cancel(oid, n)
	var sawCancel, sawEnd bool
	for _, ev := range n.Events {
		if ev.OrderID != oid {
			continue
		}
		if ev.Kind == Cancel {
			sawCancel = true
		}
		if ev.Kind == End {
			sawEnd = true
		}
	}
	assert.True(t, sawCancel)
	assert.True(t, sawEnd)

	snap = e.Snapshot(true)
	assert.Empty(t, snap.Orders)
}

func TestAddRejectsNegativeSize(t *testing.T) {
	e := NewEngine()
	n := NoopNotifier{}
	_, err := e.Add(0, common.NoLocalOrderID, 100, -1, 0, common.Bid, false, n)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestShutdownDrainsBook(t *testing.T) {
	e := NewEngine()
	n := NewRecordingNotifier(true)
	addOrDie(t, e, 0, common.Bid, 100, 10, 5, false, n)
	addOrDie(t, e, 1, common.Offer, 101, 10, 5, false, n)

	e.Shutdown(n)

	snap := e.Snapshot(true)
	assert.Empty(t, snap.Orders)
}
