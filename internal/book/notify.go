package book

import (
	"github.com/rs/zerolog"

	"driftbook/internal/common"
)

// Kind names the four order lifecycle notifications spec.md §4.5
// describes. Notifications for a single order obey the sequence
// Ack (Trade*)? (Cancel End | End).
type Kind uint8

const (
	Ack Kind = iota
	Trade
	Cancel
	End
)

func (k Kind) String() string {
	switch k {
	case Ack:
		return "Ack"
	case Trade:
		return "Trade"
	case Cancel:
		return "Cancel"
	case End:
		return "End"
	default:
		return "Unknown"
	}
}

// Notifier is the sink consumed by recorders, agents and statistics
// (spec.md §4.5). It is a plain interface rather than a global
// singleton (the teacher's NOOP/pretty-print pattern is kept, but spec.md's
// design notes call for replacing the original's process-wide
// NOOPNotify::instance/LogNotify::instance statics with explicit,
// by-reference sinks).
type Notifier interface {
	// LogOrder reports an Ack, Trade, Cancel or End for order o. tradeSize
	// and tradePrice are only meaningful for Trade.
	LogOrder(kind Kind, o *Order, now common.Time, tradeSize common.Size, tradePrice common.Price)
	// LogBook records a post-event book state.
	LogBook(e *Engine)
	// Error reports a recoverable protocol error (duplicate/unknown oid
	// cancels) tied to oid.
	Error(oid common.OrderID, msg string)
}

// NoopNotifier discards every notification. It replaces the teacher's
// global NOOPNotify with a zero-sized value passed explicitly.
type NoopNotifier struct{}

func (NoopNotifier) LogOrder(Kind, *Order, common.Time, common.Size, common.Price) {}
func (NoopNotifier) LogBook(*Engine)                                              {}
func (NoopNotifier) Error(common.OrderID, string)                                 {}

// PrettyNotifier logs every notification through zerolog, in the style
// of the teacher's internal/net/server.go logging calls.
type PrettyNotifier struct {
	Log zerolog.Logger
}

func NewPrettyNotifier(log zerolog.Logger) *PrettyNotifier {
	return &PrettyNotifier{Log: log}
}

func (n *PrettyNotifier) LogOrder(kind Kind, o *Order, now common.Time, tradeSize common.Size, tradePrice common.Price) {
	n.Log.Info().
		Str("kind", kind.String()).
		Str("oid", o.OrderID.String()).
		Uint32("client", uint32(o.ClientID)).
		Str("side", o.Side.String()).
		Int16("price", int16(o.Price)).
		Int16("shown", int16(o.ShownSize)).
		Int16("remaining", int16(o.RemainingSize)).
		Int16("tradeSize", int16(tradeSize)).
		Int16("tradePrice", int16(tradePrice)).
		Int64("time", int64(now)).
		Bool("shadow", o.IsShadow).
		Msg("order event")
}

func (n *PrettyNotifier) LogBook(e *Engine) {
	n.Log.Debug().
		Int("bidLevels", e.bids.Len()).
		Int("askLevels", e.asks.Len()).
		Int64("time", int64(e.now)).
		Msg("book snapshot")
}

func (n *PrettyNotifier) Error(oid common.OrderID, msg string) {
	n.Log.Warn().Str("oid", oid.String()).Msg(msg)
}

// Event is a value-type copy of one LogOrder call, safe to retain after
// the originating Order is released back to the pool.
type Event struct {
	Kind          Kind
	OrderID       common.OrderID
	LocalID       common.LocalOrderID
	ClientID      common.ClientID
	Time          common.Time
	Price         common.Price
	TotalSize     common.Size
	RemainingSize common.Size
	ShownSize     common.Size
	Side          common.Side
	IsShadow      bool
	IsHidden      bool
	TradeSize     common.Size
	TradePrice    common.Price
}

// ErrorEvent is a value-type copy of one Error call.
type ErrorEvent struct {
	OrderID common.OrderID
	Message string
}

// RecordingNotifier appends every event and a book snapshot taken after
// each LogBook call, for later replay / property comparison (spec.md
// §4.5, §8's snapshot-and-replay property).
type RecordingNotifier struct {
	Events    []Event
	Snapshots []Snapshot
	Errors    []ErrorEvent
	// IncludeShadow controls whether LogBook snapshots retain shadow
	// orders (spec.md §4.4 snapshot(include_shadow)).
	IncludeShadow bool
}

func NewRecordingNotifier(includeShadow bool) *RecordingNotifier {
	return &RecordingNotifier{IncludeShadow: includeShadow}
}

func (n *RecordingNotifier) LogOrder(kind Kind, o *Order, now common.Time, tradeSize common.Size, tradePrice common.Price) {
	n.Events = append(n.Events, Event{
		Kind: kind, OrderID: o.OrderID, LocalID: o.LocalID, ClientID: o.ClientID,
		Time: now, Price: o.Price, TotalSize: o.TotalSize, RemainingSize: o.RemainingSize,
		ShownSize: o.ShownSize, Side: o.Side, IsShadow: o.IsShadow, IsHidden: o.IsHidden,
		TradeSize: tradeSize, TradePrice: tradePrice,
	})
}

func (n *RecordingNotifier) LogBook(e *Engine) {
	n.Snapshots = append(n.Snapshots, e.Snapshot(n.IncludeShadow))
}

func (n *RecordingNotifier) Error(oid common.OrderID, msg string) {
	n.Errors = append(n.Errors, ErrorEvent{OrderID: oid, Message: msg})
}
