package common

import "testing"

import "github.com/stretchr/testify/assert"

func TestOrderIDNextCarries(t *testing.T) {
	var id OrderID
	id[11] = 0xff
	next := id.Next()
	assert.Equal(t, byte(0x00), next[11])
	assert.Equal(t, byte(0x01), next[10])
}

func TestOrderIDLessLexicographic(t *testing.T) {
	a := OrderID{}
	b := a.Next()
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
}

func TestOrderIDStringHex(t *testing.T) {
	var id OrderID
	id[11] = 1
	assert.Equal(t, "000000000000000000000001", id.String())
}

func TestSideOther(t *testing.T) {
	assert.Equal(t, Offer, Bid.Other())
	assert.Equal(t, Bid, Offer.Other())
}
