package hub

import (
	"container/heap"
	"time"
)

// timerItem is one entry in the Timer Heap: a scheduled resume of target at
// due, carrying either an ordinary resume value or, for pause-with-timeout
// (isTimeout set), the timeout duration from which tick() builds the
// *TimeoutError. A nil target with a spawnPayload is a SpawnLater. canceled is the lazy-deletion tombstone flag described
// in spec.md §9 ("Lazy timer deletion"): Remove only flips this flag and
// decrements the live count; physical removal happens in prune when the
// tombstoned entry would otherwise surface at the heap top.
type timerItem struct {
	due      time.Time
	seq      uint64 // insertion order, breaks due-time ties (container/heap is not stable)
	target   *task
	payload  any
	isTimeout bool
	canceled bool
	index    int // maintained by container/heap
}

type timerHeap struct {
	items []*timerItem
	live  int
	seq   uint64
}

func newTimerHeap() *timerHeap {
	return &timerHeap{}
}

func (h *timerHeap) Len() int { return len(h.items) }

func (h *timerHeap) Less(i, j int) bool {
	if h.items[i].due.Equal(h.items[j].due) {
		return h.items[i].seq < h.items[j].seq
	}
	return h.items[i].due.Before(h.items[j].due)
}

func (h *timerHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *timerHeap) Push(x any) {
	item := x.(*timerItem)
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *timerHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return item
}

// Add schedules target to resume at now+delay with payload. Returns the
// timerItem, which Remove accepts to cancel.
func (h *timerHeap) Add(now time.Time, delay time.Duration, target *task, payload any, isTimeout bool) *timerItem {
	h.seq++
	item := &timerItem{
		due:       now.Add(delay),
		seq:       h.seq,
		target:    target,
		payload:   payload,
		isTimeout: isTimeout,
	}
	heap.Push(h, item)
	h.live++
	return item
}

// Remove tombstones item. Idempotent: removing an already-canceled or
// already-fired item is a no-op.
func (h *timerHeap) Remove(item *timerItem) {
	if item == nil || item.canceled {
		return
	}
	item.canceled = true
	h.live--
}

// prune pops physically-cancelled items from the top until the top is live
// or the heap is empty.
func (h *timerHeap) prune() {
	for len(h.items) > 0 && h.items[0].canceled {
		heap.Pop(h)
	}
}

// Empty reports whether the Timer Heap has no live entries.
func (h *timerHeap) Empty() bool {
	h.prune()
	return len(h.items) == 0
}

// LiveCount returns the logical (live) item count, per the invariant that
// Timer Heap count equals live count regardless of lazy removals.
func (h *timerHeap) LiveCount() int {
	return h.live
}

// Timeout returns the duration until the top live item fires, relative to
// now. Only valid when !Empty().
func (h *timerHeap) Timeout(now time.Time) time.Duration {
	h.prune()
	return h.items[0].due.Sub(now)
}

// PopDue removes and returns the top live item. Only valid when !Empty().
func (h *timerHeap) PopDue() *timerItem {
	h.prune()
	item := heap.Pop(h).(*timerItem)
	h.live--
	item.canceled = true // fired: a later Remove is a no-op
	return item
}

// DueTop reports whether the top live item is due at or before now, without
// popping it.
func (h *timerHeap) DueTop(now time.Time) bool {
	if h.Empty() {
		return false
	}
	return !h.items[0].due.After(now)
}
