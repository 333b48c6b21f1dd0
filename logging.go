package hub

import (
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// newDefaultLogger builds the Hub's default structured logger: a
// logiface.Logger writing stumpy's compact JSON encoding to stderr, mirroring
// the teacher's DefaultLogger-to-os.Stdout default but through the real
// logiface/stumpy backend the teacher declares as a dependency but never
// wires up.
func newDefaultLogger() logiface.Logger[*stumpy.Event] {
	return stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)))
}

// logTaskPanic records a recovered task panic at Warning level, the category
// ("task") and task id mirroring the teacher's LogEntry.Category/TaskID
// fields.
func (h *Hub) logTaskPanic(taskID uint64, v any) {
	if h.logger == nil {
		return
	}
	h.logger.Warning().
		Uint64("task_id", taskID).
		Any("recovered", v).
		Log("task panic recovered")
}

// logPollError records a poll-binding failure (other than EINTR, which is
// retried transparently and never logged) at Error level.
func (h *Hub) logPollError(err error) {
	if h.logger == nil {
		return
	}
	h.logger.Err().Err(err).Log("poll error")
}

// logLifecycle records Hub start/stop transitions at Info level.
func (h *Hub) logLifecycle(event string) {
	if h.logger == nil {
		return
	}
	h.logger.Info().Str("event", event).Log("hub lifecycle")
}

// logDebug records low-frequency scheduling diagnostics (tick counts,
// deadlock detection) at Debug level.
func (h *Hub) logDebug(msg string) {
	if h.logger == nil {
		return
	}
	h.logger.Debug().Log(msg)
}
