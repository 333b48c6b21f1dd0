package hub

import "github.com/zoobzio/metricz"

// Metric keys for the Hub-wide registry. Grounded on zoobzio-pipz's
// per-connector Key constant blocks (backoff.go, fallback.go, filter.go).
const (
	MetricTicksTotal        = metricz.Key("hub.ticks.total")
	MetricTasksSpawnedTotal = metricz.Key("hub.tasks.spawned.total")
	MetricTasksDiedTotal    = metricz.Key("hub.tasks.died.total")
	MetricPollEventsTotal   = metricz.Key("hub.poll.events.total")
	MetricReadyDepth        = metricz.Key("hub.ready.depth")
	MetricTimerDepth        = metricz.Key("hub.timer.depth")
)

// newHubMetrics builds and pre-registers the Hub's metricz.Registry. Mirrors
// the zoobzio-pipz constructor shape: create the registry, register every
// counter/gauge up front, hand back the live registry.
func newHubMetrics() *metricz.Registry {
	reg := metricz.New()
	reg.Counter(MetricTicksTotal)
	reg.Counter(MetricTasksSpawnedTotal)
	reg.Counter(MetricTasksDiedTotal)
	reg.Counter(MetricPollEventsTotal)
	reg.Gauge(MetricReadyDepth)
	reg.Gauge(MetricTimerDepth)
	return reg
}

// Metrics returns the Hub's metricz.Registry. Returns nil if metrics were not
// enabled via WithMetrics(true).
func (h *Hub) Metrics() *metricz.Registry {
	return h.metrics
}
