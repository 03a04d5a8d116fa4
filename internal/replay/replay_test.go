package replay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftbook/internal/book"
)

func TestReplayEntryThenCancel(t *testing.T) {
	e := book.NewEngine()
	rp := New(e, book.NoopNotifier{})

	data := "1000,ord1,ENTRY,100,Bid,5\n2000,ord1,CANCEL,100,Bid\n"
	require.NoError(t, rp.Apply(strings.NewReader(data)))

	bids, _ := e.Level2(1)
	assert.EqualValues(t, 0, bids[0].ShownSize)
}

func TestReplayDuplicateEntryIsError(t *testing.T) {
	e := book.NewEngine()
	rp := New(e, book.NoopNotifier{})

	data := "1000,ord1,ENTRY,100,Bid,5\n2000,ord1,ENTRY,100,Bid,5\n"
	err := rp.Apply(strings.NewReader(data))
	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestReplayCancelUnknownIsError(t *testing.T) {
	e := book.NewEngine()
	rp := New(e, book.NoopNotifier{})

	err := rp.Apply(strings.NewReader("1000,ghost,CANCEL,100,Bid\n"))
	assert.ErrorIs(t, err, ErrUnknownCancel)
}

func TestReplayOutOfOrderIsError(t *testing.T) {
	e := book.NewEngine()
	rp := New(e, book.NoopNotifier{})

	data := "2000,ord1,ENTRY,100,Bid,5\n1000,ord2,ENTRY,101,Bid,5\n"
	err := rp.Apply(strings.NewReader(data))
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestReplayReusesIDOnceFullyFilled(t *testing.T) {
	e := book.NewEngine()
	rp := New(e, book.NoopNotifier{})

	// ord1 rests, ord2 crosses it fully — both ids fully end within the
	// second ENTRY's Add call. ord1's external id must become reusable
	// immediately, not just on an explicit CANCEL.
	data := "1000,ord1,ENTRY,100,Bid,5\n2000,ord2,ENTRY,100,Ask,5\n3000,ord1,ENTRY,101,Bid,3\n"
	require.NoError(t, rp.Apply(strings.NewReader(data)))

	bids, _ := e.Level2(1)
	assert.EqualValues(t, 3, bids[0].ShownSize)
	assert.EqualValues(t, 101, bids[0].Price)
}

func TestReplayCancelOfFullyFilledIDIsUnknown(t *testing.T) {
	e := book.NewEngine()
	rp := New(e, book.NoopNotifier{})

	data := "1000,ord1,ENTRY,100,Bid,5\n2000,ord2,ENTRY,100,Ask,5\n3000,ord1,CANCEL,100,Bid\n"
	err := rp.Apply(strings.NewReader(data))
	assert.ErrorIs(t, err, ErrUnknownCancel)
}

func TestReplayAmendReplacesOrder(t *testing.T) {
	e := book.NewEngine()
	rp := New(e, book.NoopNotifier{})

	data := "1000,ord1,ENTRY,100,Bid,5\n2000,ord1,AMEND,100,Bid,9\n"
	require.NoError(t, rp.Apply(strings.NewReader(data)))

	bids, _ := e.Level2(1)
	assert.EqualValues(t, 9, bids[0].ShownSize)
}
