package book

import "driftbook/internal/common"

// Level is one side, one price: an intrusive, strictly-arrival-ordered
// FIFO of resting orders. Replenished orders are treated as fresh
// arrivals and appended to the tail, matching spec.md §3/§4.3.
//
// The FIFO is intrusive over Order.prev/next (pool-backed, stable
// addresses) rather than a slice, replacing the teacher's
// internal/engine/orderbook.go PriceLevel.orders []*Order — a slice
// works for the teacher's non-iceberg orders, but icebergs need O(1)
// mid-list-free removal on cancel, which a slice cannot give without a
// linear scan.
type Level struct {
	Price common.Price
	Side  common.Side

	head, tail *Order
	count      int
}

func newLevel(price common.Price, side common.Side) *Level {
	return &Level{Price: price, Side: side}
}

// IsEmpty reports whether the level's FIFO is empty.
func (l *Level) IsEmpty() bool { return l.count == 0 }

// Len is the number of resting orders at this level.
func (l *Level) Len() int { return l.count }

func (l *Level) pushBack(o *Order) {
	o.prev, o.next = l.tail, nil
	if l.tail != nil {
		l.tail.next = o
	} else {
		l.head = o
	}
	l.tail = o
	l.count++
}

func (l *Level) popFront() *Order {
	o := l.head
	if o == nil {
		return nil
	}
	l.remove(o)
	return o
}

// remove unlinks o from the FIFO wherever it sits — needed for direct
// cancellation of a non-head order, which a plain append-only slice (the
// teacher's approach) cannot do without an O(n) search-and-shift.
func (l *Level) remove(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.prev, o.next = nil, nil
	l.count--
}

// TotalShown sums ShownSize across every resting order — level2's
// total_shown_size field (spec.md §4.4).
func (l *Level) TotalShown() common.Size {
	var total common.Size
	for o := l.head; o != nil; o = o.next {
		total += o.ShownSize
	}
	return total
}

// AverageAge is the mean, over orders with ShownSize > 0, of
// (now - creation_time) in seconds. ok is false when no such order
// exists (spec.md §4.4: "undefined if no such orders exist").
func (l *Level) AverageAge(now common.Time) (age float64, ok bool) {
	var sum float64
	var n int
	for o := l.head; o != nil; o = o.next {
		if o.ShownSize <= 0 {
			continue
		}
		sum += float64(now-o.CreationTime) * 1e-9
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// PricesAgree reports whether incoming's price crosses this level in the
// aggressive direction: a bid level agrees with an offer priced at or
// below it; an offer level agrees with a bid priced at or above it.
func (l *Level) PricesAgree(incoming *Order) bool {
	if l.Side == common.Bid {
		return l.Price >= incoming.Price
	}
	return l.Price <= incoming.Price
}

// match executes spec.md §4.3's matching loop for one incoming order
// against this level's resting FIFO.
func (l *Level) match(incoming *Order, idx *orderIndex, pool *Pool[Order], now common.Time, notify Notifier) {
	if !l.PricesAgree(incoming) {
		return
	}
	for l.head != nil && incoming.RemainingSize > 0 {
		resting := l.head
		matchOrders(resting, incoming, now, notify)

		if resting.ShownSize == 0 {
			l.popFront()
			if resting.RemainingSize > 0 {
				resting.Replenish(now)
				notify.LogOrder(Ack, resting, now, 0, 0)
				l.pushBack(resting)
			} else {
				idx.remove(resting)
				pool.Release(resting)
			}
		}

		if incoming.ShownSize == 0 && incoming.RemainingSize > 0 {
			incoming.Replenish(now)
			notify.LogOrder(Ack, incoming, now, 0, 0)
		}
	}
}
