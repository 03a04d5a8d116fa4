package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftbook/internal/common"
)

func TestParseLineEntry(t *testing.T) {
	ev, err := ParseLine("1000,abc,ENTRY,101,Bid,5")
	require.NoError(t, err)
	assert.EqualValues(t, 1000, ev.Time)
	assert.Equal(t, "abc", ev.ExtID)
	assert.Equal(t, ActionEntry, ev.Action)
	assert.EqualValues(t, 101, ev.Price)
	assert.Equal(t, common.Bid, ev.Side)
	assert.EqualValues(t, 5, ev.Size)
	assert.True(t, ev.HasSize)
}

func TestParseLineCancelNoSize(t *testing.T) {
	ev, err := ParseLine("2000,abc,CANCEL,101,Bid")
	require.NoError(t, err)
	assert.Equal(t, ActionCancel, ev.Action)
	assert.False(t, ev.HasSize)
}

func TestParseLineRejectsBadFieldCount(t *testing.T) {
	_, err := ParseLine("1000,abc,ENTRY")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseLineRejectsUnknownAction(t *testing.T) {
	_, err := ParseLine("1000,abc,FROB,101,Bid")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestExternalIDEscapeRoundTrip(t *testing.T) {
	raw := "a,\x01<b>\x7f"
	encoded := EncodeExternalID(raw)
	assert.NotContains(t, encoded, ",")
	decoded, err := DecodeExternalID(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDecodeExternalIDPassthrough(t *testing.T) {
	decoded, err := DecodeExternalID("plainid123")
	require.NoError(t, err)
	assert.Equal(t, "plainid123", decoded)
}
