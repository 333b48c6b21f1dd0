package hub

import (
	"bytes"
	"runtime"
	"strconv"
)

// resumeMsg is handed to a parked task's resumeCh to bring it back onto the
// baton. Exactly one of Value/Err is meaningful: Err carries an exception the
// task must raise at its suspension point (Timeout, Stop, Closed, Abandoned);
// otherwise Value is the ordinary delivered value.
type resumeMsg struct {
	Value any
	Err   error
}

// taskFunc is the body of a spawned task. args mirrors vanilla/core.py's
// *args convention; a task reads its own argument list once at start and its
// subsequent resume values via the Hub's Pause/Sleep/Recv methods.
type taskFunc func(h *Hub, args []any)

// task is a suspended (or running) execution context, the Go analogue of a
// greenlet. Every task runs on its own goroutine but, per the baton
// handoff protocol implemented in hub.go, at most one task's body is ever
// actually executing at a time.
type task struct {
	id       uint64
	resumeCh chan resumeMsg
	goid     int64 // captured once the task's goroutine starts, for isLoopThread
	done     bool
}

// newTask allocates a task handle. The goroutine itself is started by
// Hub.runEntry, which also wires goid once the goroutine is alive.
func newTask(id uint64) *task {
	return &task{id: id, resumeCh: make(chan resumeMsg)}
}

// currentGoroutineID parses the numeric goroutine id out of a runtime.Stack
// dump, the same trick the teacher's getGoroutineID uses to distinguish the
// Loop's own goroutine from arbitrary external callers (there is no public
// stdlib API for this; the pack carries no library specializing in it).
func currentGoroutineID() int64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	i := bytes.IndexByte(buf, ' ')
	if i < 0 {
		return -1
	}
	id, err := strconv.ParseInt(string(buf[:i]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
