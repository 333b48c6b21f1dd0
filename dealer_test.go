package hub

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDealerFanIn proves Dealer's N:1 contract: every sent value is
// received exactly once, queued FIFO when no Recv is yet waiting.
func TestDealerFanIn(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	newSend, recv := NewDealer[int](h)

	var got []int
	h.Spawn(func(h *Hub, _ []any) {
		for i := 0; i < 3; i++ {
			v, err := recv.Recv()
			require.NoError(t, err)
			got = append(got, v)
		}
		h.Stop()
	})
	for _, v := range []int{1, 2, 3} {
		v := v
		s := newSend()
		h.Spawn(func(h *Hub, _ []any) {
			require.NoError(t, s.Send(v))
		})
	}

	require.NoError(t, runToCompletion(t, h, 2*time.Second))
	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3}, got)
}

// TestRouterRecvTimeoutRemovesStaleWaiter proves a Router Recv that times
// out removes itself from the waiting-Recvers list, so a later Send does
// not spuriously resume a task that has already returned.
func TestRouterRecvTimeoutRemovesStaleWaiter(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	send, newRecv := NewRouter[int](h)
	r := newRecv()

	var timeoutErr error
	timedOut := make(chan struct{})
	h.Spawn(func(h *Hub, _ []any) {
		_, timeoutErr = r.RecvTimeout(10 * time.Millisecond)
		close(timedOut)
	})

	require.NoError(t, runToCompletionAfter(t, h, timedOut, 2*time.Second, func() {
		require.Error(t, timeoutErr)
		require.NoError(t, send.Send(1))
	}))
}

// runToCompletionAfter runs h until signal fires, then calls after, then
// stops the Hub and waits for Run to return.
func runToCompletionAfter(t *testing.T, h *Hub, signal chan struct{}, timeout time.Duration, after func()) error {
	t.Helper()
	runErr := make(chan error, 1)
	go func() { runErr <- h.Run(nil) }()

	select {
	case <-signal:
	case <-time.After(timeout):
		t.Fatal("signal never fired")
	}
	h.Submit(after)
	h.Stop()

	select {
	case err := <-runErr:
		return err
	case <-time.After(timeout):
		t.Fatal("hub did not stop in time")
		return nil
	}
}

func TestRouterFanOut(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	send, newRecv := NewRouter[int](h)

	results := make(chan int, 3)
	for i := 0; i < 3; i++ {
		r := newRecv()
		h.Spawn(func(h *Hub, _ []any) {
			v, err := r.Recv()
			require.NoError(t, err)
			results <- v
		})
	}
	h.Spawn(func(h *Hub, _ []any) {
		for _, v := range []int{10, 20, 30} {
			require.NoError(t, send.Send(v))
		}
		h.Stop()
	})

	require.NoError(t, runToCompletion(t, h, 2*time.Second))
	close(results)
	var got []int
	for v := range results {
		got = append(got, v)
	}
	sort.Ints(got)
	assert.Equal(t, []int{10, 20, 30}, got)
}
