// Package sim implements the discrete-event simulation driver: the
// global clock that alternates between agent actions and delayed
// transport delivery (spec.md component C8).
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"driftbook/internal/book"
	"driftbook/internal/common"
	"driftbook/internal/transport"
)

// DefaultDepth is the number of price levels re-aggregated into the
// market snapshot each tick (the "3x bid/3x ask" of spec.md §6's market
// output row).
const DefaultDepth = 3

// Driver owns the engine, transport and agent collection and advances
// logical time one event at a time (spec.md §4.7).
type Driver struct {
	Engine    *book.Engine
	Transport *transport.Transport
	Agents    []transport.Agent
	Market    *MarketSnapshot
	TMax      common.Time
	Depth     int

	// Record, when true, appends a value copy of Market to History after
	// every tick — the tick-by-tick history internal/replay needs to
	// build the snapshot matrix of spec.md §6 (its trailing columns look
	// forward from each row, so they can't be computed live).
	Record  bool
	History []MarketSnapshot

	rng *rand.Rand
	log zerolog.Logger
}

// New constructs a driver with an empty agent roster and an allocated,
// zero-valued MarketSnapshot. Callers add agents via AddAgent once they
// are constructed — agent implementations typically hold d.Market as
// their read-only view of top-of-book (original_source/src/sim.h's
// Agent base class holds the same kind of reference), so the snapshot
// must exist before any agent does. seed controls both the transport's
// delay draws and any agent randomness sharing this RNG.
func New(engine *book.Engine, tr *transport.Transport, tMax common.Time, seed uint64, log zerolog.Logger) *Driver {
	return &Driver{
		Engine:    engine,
		Transport: tr,
		Market:    &MarketSnapshot{},
		TMax:      tMax,
		Depth:     DefaultDepth,
		rng:       rand.New(rand.NewSource(seed)),
		log:       log,
	}
}

// AddAgent registers agent with the transport and appends it to the
// driver's roster. It returns the transport's registration error, if any
// (spec.md §6's "duplicate agent id" exit condition).
func (d *Driver) AddAgent(agent transport.Agent) error {
	if err := d.Transport.Register(agent); err != nil {
		return err
	}
	d.Agents = append(d.Agents, agent)
	return nil
}

// RNG exposes the driver's shared random source, so agent implementations
// that need randomness (price draws, cancel timers) stay deterministic
// under a fixed seed alongside the transport's own delay draws.
func (d *Driver) RNG() *rand.Rand { return d.rng }

// Run executes the outer loop of spec.md §4.7 until market.time exceeds
// TMax, a fatal error occurs, or ctx is cancelled. Cancellation is
// cooperative and checked only between ticks — the engine has no locks
// of its own (spec.md §5), so nothing may touch it while a tick is in
// flight; on cancellation Run drains the book via Engine.Shutdown before
// returning, from inside the same single-threaded loop.
func (d *Driver) Run(ctx context.Context) error {
	for d.Market.Time <= d.TMax {
		if err := ctx.Err(); err != nil {
			d.log.Info().Msg("context cancelled, shutting down book")
			d.Engine.Shutdown(d.Transport.Notifier())
			return nil
		}

		// 1-2: earliest agent action.
		tAgents := math.Inf(1)
		for _, a := range d.Agents {
			if next := a.NextActionTime(); next < tAgents {
				tAgents = next
			}
		}

		// 3-4: refresh transport delay, earliest transport delivery.
		d.Transport.RefreshDelay(d.rng)
		tTransport := d.Transport.NextSendTime()

		// 5: strict progress.
		t := math.Min(tAgents, tTransport)
		if math.IsInf(t, 1) {
			break
		}
		if t <= float64(d.Market.Time) {
			d.log.Error().
				Float64("t", t).
				Int64("current", int64(d.Market.Time)).
				Msg("stalled clock")
			return ErrStalledClock
		}

		// 6: advance the clock.
		next := common.Time(t)
		d.Market.Time = next
		d.Engine.SetTime(next)

		// 7: agents react to the new tick, possibly enqueuing work.
		if err := d.runAgentCallbacks(); err != nil {
			return err
		}

		// 8: deliver queued transport work; this re-enters agent code via
		// notification routing.
		if err := d.deliverTransport(next); err != nil {
			return err
		}
		if d.Transport.NextSendTime() <= float64(next) {
			d.log.Error().Int64("current", int64(next)).Msg("stalled transport")
			return ErrStalledTransport
		}

		// 9-10: re-aggregate top of book.
		d.refreshMarket(next)
	}
	return nil
}

// runAgentCallbacks invokes OnMarketStateChanged for every agent,
// recovering an agent protocol violation panic (spec.md §7
// AgentProtocolViolation, fatal in agent context) into a returned error.
func (d *Driver) runAgentCallbacks() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asFatalError(r)
			d.log.Error().Err(err).Msg("agent callback panicked")
		}
	}()
	for _, a := range d.Agents {
		a.OnMarketStateChanged(d.Transport)
	}
	return nil
}

// deliverTransport drives transport.Deliver, recovering an agent protocol
// violation panic raised from a re-entrant OnOwnOrderMessage callback.
func (d *Driver) deliverTransport(now common.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asFatalError(r)
			d.log.Error().Err(err).Msg("transport delivery panicked")
		}
	}()
	if err := d.Transport.Deliver(now); err != nil {
		d.log.Error().Err(err).Msg("transport delivery failed")
		return err
	}
	return nil
}

func asFatalError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

func (d *Driver) refreshMarket(now common.Time) {
	bids, asks := d.Engine.Level25(d.Depth)
	d.Market.Bids = bids
	d.Market.Asks = asks
	d.Market.WM = d.Engine.WM()
	d.Market.Time = now
	if d.Record {
		d.History = append(d.History, *d.Market)
	}
}
