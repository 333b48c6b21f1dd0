package hub

// readyEntry is one (task, args) tuple awaiting its next tick on the Ready
// Deque. A nil task with a non-nil fn represents a freshly spawned task that
// has not yet been given a *task handle (assigned by runEntry on first run).
type readyEntry struct {
	t    *task
	fn   taskFunc
	args []any
	val  resumeMsg
}

// readyDeque is the Hub's FIFO of runnable work. Only ever touched from the
// Loop goroutine (external submissions land here via external.go's drain
// step), so it needs no locking — unlike the teacher's ChunkedIngress, which
// must be safe for a foreign producer goroutine to push into concurrently,
// this structure's only producer is the Loop itself.
//
// Fairness is provided the same way the teacher's runAux swaps auxJobs: drain
// snapshots the current backing slice and starts a fresh one, so entries
// appended by tasks running during the drain land in the *next* tick instead
// of extending the current one.
type readyDeque struct {
	entries []readyEntry
}

func newReadyDeque() *readyDeque {
	return &readyDeque{entries: make([]readyEntry, 0, 64)}
}

func (r *readyDeque) push(e readyEntry) {
	r.entries = append(r.entries, e)
}

func (r *readyDeque) Len() int { return len(r.entries) }

// drain snapshots the current entries and resets the deque to empty,
// returning the snapshot for the caller to run to completion.
func (r *readyDeque) drain() []readyEntry {
	snapshot := r.entries
	r.entries = make([]readyEntry, 0, cap(snapshot))
	return snapshot
}
