package book

import "driftbook/internal/common"

// orderIndex maps OrderId to order reference. spec.md §3 calls it a
// multiset: multiplicity is only ever transient while a new order is
// being constructed, before an id is assigned; once recorded, exactly
// one entry must exist per id. We model it as a small multimap so
// Cancel can distinguish UnknownOrder (0 hits) from AmbiguousOrder
// (>1 hits) exactly as spec.md §4.4 requires, rather than collapsing
// both into a single "not found" case.
type orderIndex struct {
	byID map[common.OrderID][]*Order
}

func newOrderIndex() orderIndex {
	return orderIndex{byID: make(map[common.OrderID][]*Order)}
}

func (idx *orderIndex) insert(o *Order) {
	idx.byID[o.OrderID] = append(idx.byID[o.OrderID], o)
}

// lookup returns every entry currently recorded under oid.
func (idx *orderIndex) lookup(oid common.OrderID) []*Order {
	return idx.byID[oid]
}

// remove deletes the exact entry o (by identity) from its id's slot.
func (idx *orderIndex) remove(o *Order) {
	entries := idx.byID[o.OrderID]
	for i, e := range entries {
		if e == o {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(idx.byID, o.OrderID)
	} else {
		idx.byID[o.OrderID] = entries
	}
}

func (idx *orderIndex) len() int { return len(idx.byID) }

// anyOrder returns one surviving order, used by Shutdown to drain the
// index one cancellation at a time.
func (idx *orderIndex) anyOrder() *Order {
	for _, entries := range idx.byID {
		if len(entries) > 0 {
			return entries[0]
		}
	}
	return nil
}
