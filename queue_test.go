package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueueBackpressure is spec.md §8 invariant 3 / scenario C: a Queue(2)
// parks its producer once the buffer is at capacity, and unparks it the
// instant a slot frees up. All endpoint operations run inside spawned
// tasks — per spec.md §5, endpoints are mutated only by the current task
// between suspensions, so the test observes progress through channels
// rather than calling Send/Recv from the test goroutine directly.
func TestQueueBackpressure(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	q := NewQueue[int](h, 2)
	sendReturned := make(chan int, 3)

	h.Spawn(func(h *Hub, _ []any) {
		for _, v := range []int{1, 2, 3} {
			require.NoError(t, q.Sender.Send(v))
			sendReturned <- v
		}
	})

	go func() { _ = h.Run(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	select {
	case v := <-sendReturned:
		assert.Equal(t, 1, v)
	default:
		t.Fatal("first send should have completed")
	}
	select {
	case v := <-sendReturned:
		assert.Equal(t, 2, v)
	default:
		t.Fatal("second send should have completed")
	}
	select {
	case <-sendReturned:
		t.Fatal("third send should still be parked, buffer is at capacity")
	default:
	}

	got := make(chan int, 1)
	h.Submit(func() {
		v, err := q.Recver.Recv()
		require.NoError(t, err)
		got <- v
	})
	select {
	case v := <-got:
		assert.Equal(t, 1, v)
	case <-time.After(2 * time.Second):
		t.Fatal("recv never completed")
	}

	select {
	case v := <-sendReturned:
		assert.Equal(t, 3, v)
	case <-time.After(2 * time.Second):
		t.Fatal("third send never unparked after a slot freed up")
	}

	h.Stop()
}

// TestQueueCloseDrainsThenCloses is spec.md §7's close semantics for Queue:
// a close on the send side still lets buffered values drain before the
// Recver observes Closed.
func TestQueueCloseDrainsThenCloses(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	q := NewQueue[int](h, 5)

	var got int
	var firstErr, secondErr error
	done := make(chan struct{})
	h.Spawn(func(h *Hub, _ []any) {
		require.NoError(t, q.Sender.Send(1))
		require.NoError(t, q.Sender.Close())
	})
	h.Spawn(func(h *Hub, _ []any) {
		got, firstErr = q.Recver.Recv()
		_, secondErr = q.Recver.Recv()
		close(done)
		h.Stop()
	})

	go func() { _ = h.Run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queue never drained")
	}
	require.NoError(t, firstErr)
	assert.Equal(t, 1, got)
	require.Error(t, secondErr)
	var closedErr *ClosedError
	assert.ErrorAs(t, secondErr, &closedErr)
}
