// Package book implements the price-time-priority limit order book:
// the order pool, order record, price levels, the order book/matching
// engine, and the notifier interface (spec.md components C1-C6).
package book

import (
	"math"

	"github.com/tidwall/btree"

	"driftbook/internal/common"
)

// defaultPoolChunk mirrors original_source/src/memory_manager.h's
// buffer_array chunk size order of magnitude, scaled down — this engine
// targets a single simulated symbol, not the original's multi-instrument
// book.
const defaultPoolChunk = 4096

// Engine is the matching engine: entry point for add/cancel/shutdown,
// crossing logic, id allocation, level aggregation and snapshotting
// (spec.md components C4+C5, merged as the teacher's
// internal/engine/orderbook.go merges OrderBook+Engine responsibilities).
type Engine struct {
	pool   *Pool[Order]
	bids   *btree.BTreeG[*Level]
	asks   *btree.BTreeG[*Level]
	index  orderIndex
	nextID common.OrderID
	now    common.Time
}

// NewEngine constructs an empty engine. Bids sort most-aggressive
// (highest price) first, asks sort most-aggressive (lowest price) first —
// the same ordering convention as the teacher's btree.NewBTreeG
// comparators in internal/engine/orderbook.go.
func NewEngine() *Engine {
	return &Engine{
		pool: NewPool[Order](defaultPoolChunk),
		bids: btree.NewBTreeG(func(a, b *Level) bool { return a.Price > b.Price }),
		asks: btree.NewBTreeG(func(a, b *Level) bool { return a.Price < b.Price }),
		index: newOrderIndex(),
	}
}

// SetTime advances the engine's logical clock. The simulation driver
// (internal/sim) is the only caller in normal operation.
func (e *Engine) SetTime(t common.Time) { e.now = t }

// Time returns the engine's current logical time.
func (e *Engine) Time() common.Time { return e.now }

func (e *Engine) sideTree(side common.Side) *btree.BTreeG[*Level] {
	if side == common.Bid {
		return e.bids
	}
	return e.asks
}

// Add materializes a new order, crosses it against the opposite side, and
// rests whatever remains, per spec.md §4.4. It returns the engine-assigned
// id. localID lets the caller's transport correlate the resulting Ack with
// an agent's unacked request; pass common.NoLocalOrderID for orders that
// have no such correlation (replay, demo seeding).
func (e *Engine) Add(
	clientID common.ClientID,
	localID common.LocalOrderID,
	price common.Price,
	totalSize, show common.Size,
	side common.Side,
	isShadow bool,
	notify Notifier,
) (common.OrderID, error) {
	if totalSize < 0 || show < 0 {
		return common.OrderID{}, ErrInvalidArgument
	}

	oid := e.nextID
	e.nextID = e.nextID.Next()

	o := e.pool.Acquire()
	if err := o.Reset(oid, localID, clientID, e.now, price, totalSize, show, side, isShadow); err != nil {
		e.pool.Release(o)
		return common.OrderID{}, err
	}
	if o.Replenish(e.now) {
		notify.LogOrder(Ack, o, e.now, 0, 0)
	}

	opposite := e.sideTree(side.Other())
	for o.RemainingSize > 0 {
		lvl, ok := opposite.Min()
		if !ok || !lvl.PricesAgree(o) {
			break
		}
		lvl.match(o, &e.index, e.pool, e.now, notify)
		if lvl.IsEmpty() {
			opposite.Delete(lvl)
		}
		if o.RemainingSize == 0 {
			break
		}
	}

	if o.RemainingSize > 0 {
		own := e.sideTree(side)
		lvl, ok := own.Get(&Level{Price: price, Side: side})
		if !ok {
			lvl = newLevel(price, side)
			own.Set(lvl)
		}
		lvl.pushBack(o)
		e.index.insert(o)
	} else {
		e.pool.Release(o)
	}
	return oid, nil
}

// Cancel removes a resting order. Zero hits is a non-fatal UnknownOrder,
// more than one hit is a non-fatal AmbiguousOrder; both report through
// notify.Error and leave the book untouched (spec.md §4.4, §7).
func (e *Engine) Cancel(oid common.OrderID, notify Notifier) {
	entries := e.index.lookup(oid)
	switch len(entries) {
	case 0:
		notify.Error(oid, "cancelling unknown oid")
		return
	case 1:
		// fall through
	default:
		notify.Error(oid, "ambiguous oid")
		return
	}

	o := entries[0]
	tree := e.sideTree(o.Side)
	lvl, ok := tree.Get(&Level{Price: o.Price, Side: o.Side})
	if ok {
		lvl.remove(o)
		if lvl.IsEmpty() {
			tree.Delete(lvl)
		}
	}
	notify.LogOrder(Cancel, o, e.now, 0, 0)
	notify.LogOrder(End, o, e.now, 0, 0)
	e.index.remove(o)
	e.pool.Release(o)
}

// Shutdown cancels every resting order, emitting a book-state
// notification after each cancel (spec.md §4.4).
func (e *Engine) Shutdown(notify Notifier) {
	for e.index.len() > 0 {
		o := e.index.anyOrder()
		e.Cancel(o.OrderID, notify)
		notify.LogBook(e)
	}
}

// LevelSlot is one entry of a level2/level2.5 array: price, aggregate
// shown size, and (for level2.5) average resting age.
type LevelSlot struct {
	Price       common.Price
	ShownSize   common.Size
	AverageAge  float64
	HasAverage  bool
}

// Level2 fills bids/asks with the first n best levels per side,
// zero-padded past the book's actual depth (spec.md §4.4).
func (e *Engine) Level2(n int) (bids, asks []LevelSlot) {
	bids = e.levelSlots(e.bids, n, false)
	asks = e.levelSlots(e.asks, n, false)
	return bids, asks
}

// Level25 is Level2 plus the average resting age per level.
func (e *Engine) Level25(n int) (bids, asks []LevelSlot) {
	bids = e.levelSlots(e.bids, n, true)
	asks = e.levelSlots(e.asks, n, true)
	return bids, asks
}

func (e *Engine) levelSlots(tree *btree.BTreeG[*Level], n int, withAge bool) []LevelSlot {
	out := make([]LevelSlot, n)
	i := 0
	tree.Scan(func(lvl *Level) bool {
		if i >= n {
			return false
		}
		out[i].Price = lvl.Price
		out[i].ShownSize = lvl.TotalShown()
		if withAge {
			age, ok := lvl.AverageAge(e.now)
			out[i].AverageAge = age
			out[i].HasAverage = ok
		}
		i++
		return i < n
	})
	return out
}

// WM is the weighted mid across the best bid/ask (spec.md §3), NaN if
// either side is empty.
func (e *Engine) WM() float64 {
	bidLvl, bidOK := e.bids.Min()
	askLvl, askOK := e.asks.Min()
	if !bidOK || !askOK {
		return math.NaN()
	}
	bidSz := float64(bidLvl.TotalShown())
	askSz := float64(askLvl.TotalShown())
	tot := bidSz + askSz
	if tot == 0 {
		return math.NaN()
	}
	return (float64(bidLvl.Price)*askSz + float64(askLvl.Price)*bidSz) / tot
}

// BestBidAsk returns the best bid and ask prices and whether each side is
// non-empty.
func (e *Engine) BestBidAsk() (bid common.Price, bidOK bool, ask common.Price, askOK bool) {
	if lvl, ok := e.bids.Min(); ok {
		bid, bidOK = lvl.Price, true
	}
	if lvl, ok := e.asks.Min(); ok {
		ask, askOK = lvl.Price, true
	}
	return
}
