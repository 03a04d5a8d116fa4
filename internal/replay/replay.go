package replay

import (
	"bufio"
	"fmt"
	"io"

	"driftbook/internal/book"
	"driftbook/internal/common"
)

// replayClientID tags every order the replay driver originates; replayed
// books have no real agents behind them.
const replayClientID common.ClientID = 0

// Replay drives book input events into an engine, one line at a time, in
// timestamp order, tracking which external order ids are currently
// active so CANCEL/AMEND can resolve back to the engine-assigned
// common.OrderID the original ENTRY produced. The engine always mints its
// own ids (spec.md's id-allocation invariant); the external id from the
// CSV is a replay-local correlation key, never threaded into the engine
// itself (original_source/src/sim.h's add_replay_order accepts a
// caller-supplied id directly — this engine does not, so the mapping
// lives here instead).
//
// Replay implements book.Notifier itself and passes itself to every
// engine call, forwarding each notification to base while watching for
// End: an external id stops being active once its order fully ends,
// mirroring how internal/transport's AgentDispatchNotifier wraps a base
// notifier to maintain its own seen-id bookkeeping. Spec.md §6 rejects
// ENTRY only for a still-active id, so a marketable entry that trades
// away completely must free its external id immediately, not just on an
// explicit CANCEL.
type Replay struct {
	base   book.Notifier
	engine *book.Engine
	active map[string]common.OrderID
	byOID  map[common.OrderID]string

	// justEnded holds oids whose End notification arrived during the Add
	// call that created them (a marketable entry that fully trades away
	// on arrival), before enter has had a chance to record them in
	// active/byOID. enter consults and clears this instead of caching
	// such an oid as active.
	justEnded map[common.OrderID]bool

	lastTime common.Time
	seenAny  bool
}

// New builds a replay driver writing into engine and reporting through
// base.
func New(engine *book.Engine, base book.Notifier) *Replay {
	return &Replay{
		base:      base,
		engine:    engine,
		active:    make(map[string]common.OrderID),
		byOID:     make(map[common.OrderID]string),
		justEnded: make(map[common.OrderID]bool),
	}
}

// LogOrder implements book.Notifier.
func (rp *Replay) LogOrder(kind book.Kind, o *book.Order, now common.Time, tradeSize common.Size, tradePrice common.Price) {
	rp.base.LogOrder(kind, o, now, tradeSize, tradePrice)
	if kind != book.End {
		return
	}
	if extID, tracked := rp.byOID[o.OrderID]; tracked {
		delete(rp.active, extID)
		delete(rp.byOID, o.OrderID)
		return
	}
	rp.justEnded[o.OrderID] = true
}

// LogBook implements book.Notifier.
func (rp *Replay) LogBook(e *book.Engine) { rp.base.LogBook(e) }

// Error implements book.Notifier.
func (rp *Replay) Error(oid common.OrderID, msg string) { rp.base.Error(oid, msg) }

// Apply reads newline-delimited CSV events from r and feeds them into the
// engine in order, returning the first ReplayError-class error.
func (rp *Replay) Apply(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		ev, err := ParseLine(line)
		if err != nil {
			return err
		}
		if err := rp.applyOne(ev); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (rp *Replay) applyOne(ev Event) error {
	if rp.seenAny && ev.Time < rp.lastTime {
		return fmt.Errorf("%w: event at %d after %d", ErrOutOfOrder, ev.Time, rp.lastTime)
	}
	rp.lastTime = ev.Time
	rp.seenAny = true
	rp.engine.SetTime(ev.Time)

	switch ev.Action {
	case ActionEntry:
		if _, active := rp.active[ev.ExtID]; active {
			return fmt.Errorf("%w: %q", ErrDuplicateEntry, ev.ExtID)
		}
		if err := rp.enter(ev); err != nil {
			return err
		}
	case ActionCancel:
		oid, active := rp.active[ev.ExtID]
		if !active {
			return fmt.Errorf("%w: %q", ErrUnknownCancel, ev.ExtID)
		}
		rp.engine.Cancel(oid, rp)
	case ActionAmend:
		// Amend isn't implemented by the original engine (left as a TODO
		// in original_source/src/agents.h); the natural CSV-replay
		// semantics are cancel-then-reenter at the line's price/size.
		if oid, active := rp.active[ev.ExtID]; active {
			rp.engine.Cancel(oid, rp)
		}
		if err := rp.enter(ev); err != nil {
			return err
		}
	}
	rp.base.LogBook(rp.engine)
	return nil
}

func (rp *Replay) enter(ev Event) error {
	size := ev.Size
	oid, err := rp.engine.Add(replayClientID, common.NoLocalOrderID, ev.Price, size, size, ev.Side, false, rp)
	if err != nil {
		return fmt.Errorf("replay: entry %q: %w", ev.ExtID, err)
	}
	if rp.justEnded[oid] {
		delete(rp.justEnded, oid)
		return nil
	}
	rp.active[ev.ExtID] = oid
	rp.byOID[oid] = ev.ExtID
	return nil
}
