package book

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"driftbook/internal/common"
)

func TestPoolAcquireGrowsAndReuses(t *testing.T) {
	p := NewPool[Order](4)

	var acquired []*Order
	for i := 0; i < 10; i++ {
		o := p.Acquire()
		assert.Equal(t, common.Size(0), o.TotalSize)
		acquired = append(acquired, o)
	}
	assert.Equal(t, 10, p.Allocated())

	for _, o := range acquired {
		p.Release(o)
	}
	assert.Equal(t, 0, p.Allocated())
	// Ten acquisitions grew three chunks of 4, so 12 records are now free.
	assert.Equal(t, 12, p.FreeCount())

	reused := p.Acquire()
	assert.Equal(t, 1, p.Allocated())
	assert.Equal(t, 11, p.FreeCount())
	_ = reused
}

func TestPoolReleaseZeroesState(t *testing.T) {
	p := NewPool[Order](2)
	o := p.Acquire()
	o.TotalSize = 42
	o.ShownSize = 7
	p.Release(o)

	next := p.Acquire()
	assert.Equal(t, common.Size(0), next.TotalSize)
	assert.Equal(t, common.Size(0), next.ShownSize)
}
