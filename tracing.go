package hub

import "github.com/zoobzio/tracez"

// Span keys and tags for Hub-wide tracing. Grounded on zoobzio-pipz's
// per-connector Span/Tag constant blocks.
const (
	SpanTick   = tracez.Key("hub.tick")
	SpanPause  = tracez.Key("hub.pause")
	SpanSend   = tracez.Key("hub.send")
	SpanRecv   = tracez.Key("hub.recv")
	SpanPoll   = tracez.Key("hub.poll")
	SpanDeadline = tracez.Key("hub.deadline")

	TagTaskID    = tracez.Tag("hub.task_id")
	TagEndpoint  = tracez.Tag("hub.endpoint")
	TagOutcome   = tracez.Tag("hub.outcome")
	TagEventCnt  = tracez.Tag("hub.event_count")
)

// Tracer returns the Hub's tracez.Tracer. Returns nil if tracing was not
// enabled via WithTracing(true).
func (h *Hub) Tracer() *tracez.Tracer {
	return h.tracer
}
