// Package replay ingests the book input event format of spec.md §6 (CSV
// book events, replayed into an engine in timestamp order) and renders
// the market output row and optional snapshot matrix described in the
// same section. Grounded on original_source/src/utils.h's read_csv_file
// and sim.h's ReplayData::replay.
package replay

import (
	"fmt"
	"strconv"
	"strings"

	"driftbook/internal/common"
)

// Action names one of the three book input event kinds.
type Action int

const (
	ActionEntry Action = iota
	ActionCancel
	ActionAmend
)

func (a Action) String() string {
	switch a {
	case ActionEntry:
		return "ENTRY"
	case ActionCancel:
		return "CANCEL"
	case ActionAmend:
		return "AMEND"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Event is one parsed line of the replay CSV format:
// event_time_ns,order_id,action,price,side[,size].
type Event struct {
	Time    common.Time
	ExtID   string // decoded external order id (may contain raw bytes)
	Action  Action
	Price   common.Price
	Side    common.Side
	Size    common.Size
	HasSize bool
}

// ParseLine parses a single CSV replay line.
func ParseLine(line string) (Event, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 5 && len(fields) != 6 {
		return Event{}, fmt.Errorf("%w: expected 5 or 6 fields, got %d: %q", ErrMalformed, len(fields), line)
	}

	tns, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("%w: event_time_ns %q: %v", ErrMalformed, fields[0], err)
	}

	extID, err := DecodeExternalID(fields[1])
	if err != nil {
		return Event{}, fmt.Errorf("%w: order_id %q: %v", ErrMalformed, fields[1], err)
	}

	var action Action
	switch fields[2] {
	case "ENTRY":
		action = ActionEntry
	case "CANCEL":
		action = ActionCancel
	case "AMEND":
		action = ActionAmend
	default:
		return Event{}, fmt.Errorf("%w: unknown action %q", ErrMalformed, fields[2])
	}

	price, err := strconv.ParseInt(fields[3], 10, 16)
	if err != nil {
		return Event{}, fmt.Errorf("%w: price %q: %v", ErrMalformed, fields[3], err)
	}

	var side common.Side
	switch fields[4] {
	case "Ask":
		side = common.Offer
	case "Bid":
		side = common.Bid
	default:
		return Event{}, fmt.Errorf("%w: unknown side %q", ErrMalformed, fields[4])
	}

	ev := Event{
		Time:   common.Time(tns),
		ExtID:  extID,
		Action: action,
		Price:  common.Price(price),
		Side:   side,
	}
	if len(fields) == 6 && fields[5] != "" {
		size, err := strconv.ParseInt(fields[5], 10, 16)
		if err != nil {
			return Event{}, fmt.Errorf("%w: size %q: %v", ErrMalformed, fields[5], err)
		}
		ev.Size = common.Size(size)
		ev.HasSize = true
	}
	return ev, nil
}

// EncodeExternalID renders raw as printable ASCII passthrough plus <HH>
// hex escapes for any byte outside the printable range. Space, '<', '>'
// and ',' are escaped as well, so the result never splits a CSV field or
// reads as a stray escape.
func EncodeExternalID(raw string) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b >= 0x21 && b <= 0x7e && b != '<' && b != '>' && b != ',' {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "<%02X>", b)
	}
	return sb.String()
}

// DecodeExternalID is EncodeExternalID's inverse.
func DecodeExternalID(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '<' {
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				return "", fmt.Errorf("unterminated escape at byte %d", i)
			}
			hex := s[i+1 : i+end]
			v, err := strconv.ParseUint(hex, 16, 8)
			if err != nil {
				return "", fmt.Errorf("bad escape %q: %w", hex, err)
			}
			sb.WriteByte(byte(v))
			i += end + 1
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String(), nil
}
