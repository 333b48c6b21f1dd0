package hub

import "sync"

// externalIngress is the Hub's sole concurrent-entry surface: any goroutine
// other than the Loop itself must route work through Submit, which queues it
// under a mutex and wakes the Loop so the next tick drains the queue onto the
// Ready Deque before step 2 of the pump runs. Grounded on the teacher's
// external *ChunkedIngress plus Submit/doWakeup pair; simplified to a plain
// mutex-guarded slice since this repo does not need the teacher's
// cross-goroutine lock-free ring (submissions from outside the Loop are
// expected to be comparatively rare — registration-time setup, signal
// delivery, cross-Hub bridging — not a hot path).
type externalIngress struct {
	mu    sync.Mutex
	queue []func()
}

func newExternalIngress() *externalIngress {
	return &externalIngress{}
}

func (e *externalIngress) push(fn func()) {
	e.mu.Lock()
	e.queue = append(e.queue, fn)
	e.mu.Unlock()
}

// drain returns and clears the queued external work. Called only from the
// Loop goroutine at the top of a tick.
func (e *externalIngress) drain() []func() {
	e.mu.Lock()
	if len(e.queue) == 0 {
		e.mu.Unlock()
		return nil
	}
	out := e.queue
	e.queue = nil
	e.mu.Unlock()
	return out
}

// Submit schedules fn to run on the Loop goroutine, as the body of a freshly
// spawned task, and wakes the Loop if it is blocked in PollIO or asleep.
// Safe to call from any goroutine, including from inside a running task
// (where it behaves like Spawn, just routed through the thread-safe path).
func (h *Hub) Submit(fn func()) {
	if h.isLoopThread() {
		h.Spawn(func(h *Hub, _ []any) { fn() })
		return
	}
	h.external.push(fn)
	h.wake()
}

// isLoopThread reports whether the calling goroutine currently holds the
// baton — either the Loop itself, between ticks, or whichever task is
// presently running, since every task runs on its own goroutine but at
// most one is ever live at a time (see hub.go's runEntry). This selects
// between the fast unlocked path (direct ready-deque push) and the
// thread-safe external path for any other, genuinely foreign goroutine.
func (h *Hub) isLoopThread() bool {
	return currentGoroutineID() == h.batonGoroutineID
}
