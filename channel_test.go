package hub

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChannelUnbufferedFanInFanOut is spec.md §8 invariant 4 / scenario E:
// three senders each send a distinct value, three recvers each recv one
// value, and the multiset received equals the multiset sent.
func TestChannelUnbufferedFanInFanOut(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	newSend, newRecv := NewChannel[int](h, 0)

	results := make(chan int, 3)
	for i := 0; i < 3; i++ {
		r := newRecv()
		h.Spawn(func(h *Hub, _ []any) {
			v, err := r.Recv()
			require.NoError(t, err)
			results <- v
		})
	}
	for _, v := range []int{1, 2, 3} {
		v := v
		s := newSend()
		h.Spawn(func(h *Hub, _ []any) {
			require.NoError(t, s.Send(v))
		})
	}

	got, err := drainN(t, h, results, 3, 2*time.Second)
	require.NoError(t, err)
	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3}, got)
}

// TestChannelBufferedRespectsCapacity proves the buffered Channel's internal
// Queue caps in-flight values at size before a sender parks.
func TestChannelBufferedRespectsCapacity(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	newSend, newRecv := NewChannel[int](h, 2)

	sendReturned := make(chan int, 3)
	for _, v := range []int{1, 2, 3} {
		v := v
		s := newSend()
		h.Spawn(func(h *Hub, _ []any) {
			require.NoError(t, s.Send(v))
			sendReturned <- v
		})
	}

	go func() { _ = h.Run(nil) }()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, len(sendReturned), "only two sends should have completed while the third is parked on a full buffer")

	r := newRecv()
	got := make(chan int, 1)
	h.Submit(func() {
		v, err := r.Recv()
		require.NoError(t, err)
		got <- v
	})

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("recv never completed")
	}
	select {
	case <-sendReturned:
	case <-time.After(2 * time.Second):
		t.Fatal("third send never unparked once the queue had room")
	}

	h.Stop()
}

// drainN runs h to completion, collecting exactly n values from ch before
// stopping the Hub, and returns them alongside any error from Run.
func drainN(t *testing.T, h *Hub, ch chan int, n int, timeout time.Duration) ([]int, error) {
	t.Helper()
	runErr := make(chan error, 1)
	go func() { runErr <- h.Run(nil) }()

	deadline := time.After(timeout)
	var got []int
	for len(got) < n {
		select {
		case v := <-ch:
			got = append(got, v)
		case <-deadline:
			t.Fatal("did not observe expected number of deliveries in time")
		}
	}
	h.Stop()
	select {
	case err := <-runErr:
		return got, err
	case <-deadline:
		t.Fatal("hub did not stop in time")
		return got, nil
	}
}
