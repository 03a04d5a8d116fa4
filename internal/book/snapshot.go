package book

import "driftbook/internal/common"

// OrderSnapshot is a value-type copy of one resting order, safe to retain
// after the pool reclaims the original (spec.md §4.4 snapshot row).
type OrderSnapshot struct {
	OrderID       common.OrderID
	ClientID      common.ClientID
	Price         common.Price
	TotalSize     common.Size
	RemainingSize common.Size
	ShownSize     common.Size
	Side          common.Side
	IsShadow      bool
	IsHidden      bool
}

// Snapshot is a full point-in-time copy of the book, ordered as one price
// ladder from the top down: offers from the deepest (highest) price down
// to best, then bids from best down to the deepest (lowest) price — the single combined ladder shape spec.md §4.4 describes for
// snapshot(include_shadow).
type Snapshot struct {
	Time   common.Time
	Orders []OrderSnapshot
}

// Snapshot clones the current book state. When includeShadow is false,
// shadow orders are omitted entirely, matching the original's notion of a
// "real-world visible" snapshot used by statistics collection.
func (e *Engine) Snapshot(includeShadow bool) Snapshot {
	snap := Snapshot{Time: e.now}

	// Offers: deepest first. e.asks iterates best (lowest) first, so walk
	// it in reverse order by collecting then reversing.
	var askLevels []*Level
	e.asks.Scan(func(lvl *Level) bool {
		askLevels = append(askLevels, lvl)
		return true
	})
	for i := len(askLevels) - 1; i >= 0; i-- {
		appendLevel(&snap, askLevels[i], includeShadow)
	}

	// Bids: best first, as stored.
	e.bids.Scan(func(lvl *Level) bool {
		appendLevel(&snap, lvl, includeShadow)
		return true
	})

	return snap
}

func appendLevel(snap *Snapshot, lvl *Level, includeShadow bool) {
	for o := lvl.head; o != nil; o = o.next {
		if o.IsShadow && !includeShadow {
			continue
		}
		snap.Orders = append(snap.Orders, OrderSnapshot{
			OrderID:       o.OrderID,
			ClientID:      o.ClientID,
			Price:         o.Price,
			TotalSize:     o.TotalSize,
			RemainingSize: o.RemainingSize,
			ShownSize:     o.ShownSize,
			Side:          o.Side,
			IsShadow:      o.IsShadow,
			IsHidden:      o.IsHidden,
		})
	}
}
