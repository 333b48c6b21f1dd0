package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPulseDeliversOnEveryTick proves Pulse yields item repeatedly at
// roughly the requested interval.
func TestPulseDeliversOnEveryTick(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	recv := Pulse(h, 10*time.Millisecond, "tick")
	got := make(chan string, 3)

	h.Spawn(func(h *Hub, _ []any) {
		for i := 0; i < 3; i++ {
			v, err := recv.Recv()
			require.NoError(t, err)
			got <- v
		}
		h.Stop()
	})

	require.NoError(t, runToCompletion(t, h, 2*time.Second))
	close(got)
	count := 0
	for v := range got {
		assert.Equal(t, "tick", v)
		count++
	}
	assert.Equal(t, 3, count)
}

// TestProducerFeedsFromSpawnedLoop proves Producer wires f's Sends onto the
// returned Recver and closes it once f returns.
func TestProducerFeedsFromSpawnedLoop(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	recv := Producer(h, func(h *Hub, send Sender[int]) {
		for _, v := range []int{1, 2, 3} {
			require.NoError(t, send.Send(v))
		}
	})

	var got []int
	var lastErr error
	h.Spawn(func(h *Hub, _ []any) {
		for {
			v, err := recv.Recv()
			if err != nil {
				lastErr = err
				h.Stop()
				return
			}
			got = append(got, v)
		}
	})

	require.NoError(t, runToCompletion(t, h, 2*time.Second))
	assert.Equal(t, []int{1, 2, 3}, got)
	require.Error(t, lastErr)
	var closedErr *ClosedError
	assert.ErrorAs(t, lastErr, &closedErr)
}

// TestConsumerDeliversOneAtATime proves Consumer's spawned forwarder calls
// f exactly once per Send, never overlapping with a subsequent Send.
func TestConsumerDeliversOneAtATime(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	var got []int
	done := make(chan struct{})
	send := Consumer(h, func(h *Hub, v int) {
		got = append(got, v)
		if len(got) == 3 {
			close(done)
		}
	})

	h.Spawn(func(h *Hub, _ []any) {
		for _, v := range []int{1, 2, 3} {
			require.NoError(t, send.Send(v))
		}
	})

	go func() { _ = h.Run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never observed all three values")
	}
	assert.Equal(t, []int{1, 2, 3}, got)
	h.Stop()
}

// TestSerializeNonOverlappingAcrossProducers proves Serialize accepts
// multiple concurrent producers, calls f once for every value sent, and
// never enters f while a previous call is still active (the active/
// overlapped flags would catch a racing overlap).
func TestSerializeNonOverlappingAcrossProducers(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	var order []int
	active := false
	overlapped := false
	done := make(chan struct{})

	newSend := Serialize(h, func(h *Hub, v int) {
		if active {
			overlapped = true
		}
		active = true
		order = append(order, v)
		active = false
		if len(order) == 4 {
			close(done)
		}
	})

	for _, v := range []int{1, 2, 3, 4} {
		v := v
		s := newSend()
		h.Spawn(func(h *Hub, _ []any) {
			require.NoError(t, s.Send(v))
		})
	}

	go func() { _ = h.Run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("serialize worker never processed all four values")
	}
	assert.False(t, overlapped, "f must never be entered while already active")
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, order)
	h.Stop()
}

// TestTriggerFireDropsWithNoParkedRecver proves Fire is non-blocking and
// reports false when nobody is parked to receive it yet.
func TestTriggerFireDropsWithNoParkedRecver(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	sender, recv := NewTrigger[int](h)

	fired := make(chan bool, 1)
	h.Spawn(func(h *Hub, _ []any) {
		fired <- sender.Fire(1)
		h.Stop()
	})

	require.NoError(t, runToCompletion(t, h, 2*time.Second))
	assert.False(t, <-fired)
	_ = recv
}

// TestTriggerFireDeliversToParkedRecver proves Fire returns true and
// delivers when a Recver is already parked.
func TestTriggerFireDeliversToParkedRecver(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	sender, recv := NewTrigger[int](h)

	got := make(chan int, 1)
	h.Spawn(func(h *Hub, _ []any) {
		v, err := recv.Recv()
		require.NoError(t, err)
		got <- v
	})

	fired := make(chan bool, 1)
	h.Spawn(func(h *Hub, _ []any) {
		fired <- sender.Fire(9)
		h.Stop()
	})

	require.NoError(t, runToCompletion(t, h, 2*time.Second))
	assert.True(t, <-fired)
	assert.Equal(t, 9, <-got)
}
