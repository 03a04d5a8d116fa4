package book

import (
	"fmt"

	"driftbook/internal/common"
)

// Order is the mutable state of a resting or in-flight order. It
// participates in a level's intrusive FIFO (prev/next) and the engine's
// order index. Fields mirror spec.md §3; the prev/next links replace the
// teacher's buy/sell heap (internal/book/buy_book.go, sell_book.go) with
// the intrusive, pool-backed list spec.md's design notes call for.
type Order struct {
	OrderID       common.OrderID
	LocalID       common.LocalOrderID
	ClientID      common.ClientID
	CreationTime  common.Time
	Price         common.Price
	TotalSize     common.Size
	Show          common.Size
	RemainingSize common.Size
	ShownSize     common.Size
	Side          common.Side
	IsShadow      bool
	IsHidden      bool

	prev, next *Order
}

func (o *Order) String() string {
	return fmt.Sprintf(
		"Order{id:%s local:%d client:%d price:%d total:%d show:%d remaining:%d shown:%d side:%s shadow:%v hidden:%v}",
		o.OrderID, o.LocalID, o.ClientID, o.Price, o.TotalSize, o.Show,
		o.RemainingSize, o.ShownSize, o.Side, o.IsShadow, o.IsHidden,
	)
}

// Reset initializes every field of a pool-acquired order. It validates
// total size and show but does not replenish or notify — callers invoke
// Replenish once the order is placed in the engine's timeline, matching
// spec.md §4.2 ("reset... then runs replenish").
func (o *Order) Reset(
	id common.OrderID,
	localID common.LocalOrderID,
	clientID common.ClientID,
	now common.Time,
	price common.Price,
	totalSize, show common.Size,
	side common.Side,
	isShadow bool,
) error {
	if totalSize < 0 || show < 0 {
		return ErrInvalidArgument
	}
	o.OrderID = id
	o.LocalID = localID
	o.ClientID = clientID
	o.CreationTime = now
	o.Price = price
	o.TotalSize = totalSize
	o.Show = show
	o.RemainingSize = totalSize
	o.ShownSize = 0
	o.Side = side
	o.IsShadow = isShadow
	o.IsHidden = false
	o.prev, o.next = nil, nil
	return nil
}

// Replenish exposes a fresh shown chunk when the order currently has none
// but still carries remaining size, treating the chunk as a fresh arrival
// (its creation time advances to now — spec.md §8's round-trip property
// explicitly allows replayed creation times to differ for this reason).
// It reports whether it did anything, so callers know to emit an Ack.
func (o *Order) Replenish(now common.Time) bool {
	if o.ShownSize != 0 || o.RemainingSize == 0 {
		return false
	}
	o.ShownSize = minSize(o.Show, o.RemainingSize)
	o.CreationTime = now
	return true
}

func minSize(a, b common.Size) common.Size {
	if a < b {
		return a
	}
	return b
}

// shouldReduce implements the shadow rule of spec.md §4.4:
// reduce(self_shadow, other_shadow) := self_shadow OR (NOT other_shadow),
// i.e. a real order (self_shadow=false) does not consume inventory only
// when its counterparty is a shadow (other_shadow=true).
func shouldReduce(selfShadow, otherShadow bool) bool {
	return selfShadow || !otherShadow
}

// matchOrders executes one match between a resting order and an
// aggressor, following spec.md §4.2/§4.3: the traded size is the minimum
// of the two shown sizes; each side decides independently, via the
// shadow rule, whether it decrements; a Trade is always emitted (signed
// per spec.md §4.4's notifier convention), and an End follows if a side's
// shown size reaches zero. The aggressor is notified first, then the
// resting order, matching the original engine's Order::match order
// (original_source/src/ob.h).
func matchOrders(resting, aggressor *Order, now common.Time, notify Notifier) common.Size {
	traded := minSize(resting.ShownSize, aggressor.ShownSize)
	if traded == 0 {
		return 0
	}
	applyTrade(aggressor, resting, traded, resting.Price, now, notify)
	applyTrade(resting, aggressor, traded, resting.Price, now, notify)
	return traded
}

func applyTrade(self, other *Order, traded common.Size, tradePrice common.Price, now common.Time, notify Notifier) {
	if shouldReduce(self.IsShadow, other.IsShadow) {
		self.RemainingSize -= traded
		self.ShownSize -= traded
	}
	signed := traded
	if self.Side == common.Offer {
		signed = -traded
	}
	notify.LogOrder(Trade, self, now, signed, tradePrice)
	if self.ShownSize == 0 {
		notify.LogOrder(End, self, now, 0, 0)
	}
}
