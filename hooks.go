package hub

import (
	"context"

	"github.com/zoobzio/hookz"
)

// HubEventKind identifies the kind of lifecycle event emitted by a Hub.
type HubEventKind int

const (
	EventTaskSpawned HubEventKind = iota
	EventTaskPanicked
	EventStopping
	EventStopped
)

// HubEvent is emitted on the Hub's hookz.Hooks for every lifecycle
// transition external collaborators may want to observe without coupling to
// Hub internals.
type HubEvent struct {
	Kind   HubEventKind
	TaskID uint64
	Err    error
}

// Hook keys. Grounded on zoobzio-pipz's hookz.Key constant blocks.
const (
	HookTaskSpawned   = hookz.Key("hub.task.spawned")
	HookTaskPanicked  = hookz.Key("hub.task.panicked")
	HookStopping      = hookz.Key("hub.stopping")
	HookStopped       = hookz.Key("hub.stopped")
)

// OnTaskSpawned registers a handler invoked whenever Spawn/SpawnLater creates
// a new task.
func (h *Hub) OnTaskSpawned(fn func(context.Context, HubEvent) error) error {
	_, err := h.hooks.Hook(HookTaskSpawned, fn)
	return err
}

// OnTaskPanicked registers a handler invoked whenever a task body panics and
// is recovered by safeExecute.
func (h *Hub) OnTaskPanicked(fn func(context.Context, HubEvent) error) error {
	_, err := h.hooks.Hook(HookTaskPanicked, fn)
	return err
}

// OnStopped registers a handler invoked once the Hub's run loop has fully
// drained and the stopped State latch has been set.
func (h *Hub) OnStopped(fn func(context.Context, HubEvent) error) error {
	_, err := h.hooks.Hook(HookStopped, fn)
	return err
}

func (h *Hub) emit(ctx context.Context, key hookz.Key, ev HubEvent) {
	if h.hooks == nil {
		return
	}
	_ = h.hooks.Emit(ctx, key, ev) //nolint:errcheck
}
