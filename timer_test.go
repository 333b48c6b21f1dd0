package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerHeapOrdersByDueTime(t *testing.T) {
	h := newTimerHeap()
	base := time.Unix(0, 0)

	far := h.Add(base, 30*time.Millisecond, &task{}, "far", false)
	near := h.Add(base, 10*time.Millisecond, &task{}, "near", false)
	mid := h.Add(base, 20*time.Millisecond, &task{}, "mid", false)

	require.Equal(t, 3, h.LiveCount())

	got := h.PopDue()
	assert.Same(t, near, got)
	got = h.PopDue()
	assert.Same(t, mid, got)
	got = h.PopDue()
	assert.Same(t, far, got)
	assert.True(t, h.Empty())
}

func TestTimerHeapTiesBreakByInsertionOrder(t *testing.T) {
	h := newTimerHeap()
	base := time.Unix(0, 0)

	first := h.Add(base, 5*time.Millisecond, &task{}, "first", false)
	second := h.Add(base, 5*time.Millisecond, &task{}, "second", false)

	assert.Same(t, first, h.PopDue())
	assert.Same(t, second, h.PopDue())
}

func TestTimerHeapLazyRemoval(t *testing.T) {
	h := newTimerHeap()
	base := time.Unix(0, 0)

	item := h.Add(base, 5*time.Millisecond, &task{}, nil, false)
	h.Add(base, 10*time.Millisecond, &task{}, nil, false)

	require.Equal(t, 2, h.LiveCount())
	h.Remove(item)
	assert.Equal(t, 1, h.LiveCount())

	// Removing an already-cancelled item is a no-op.
	h.Remove(item)
	assert.Equal(t, 1, h.LiveCount())

	// The tombstoned entry must not surface from PopDue/Timeout/DueTop.
	assert.False(t, h.Empty())
	got := h.PopDue()
	assert.NotSame(t, item, got)
	assert.True(t, h.Empty())
}

func TestTimerHeapDueTop(t *testing.T) {
	h := newTimerHeap()
	base := time.Unix(0, 0)

	assert.False(t, h.DueTop(base))

	h.Add(base, 10*time.Millisecond, &task{}, nil, false)
	assert.False(t, h.DueTop(base))
	assert.True(t, h.DueTop(base.Add(10*time.Millisecond)))
	assert.True(t, h.DueTop(base.Add(time.Second)))
}
