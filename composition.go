package hub

import "time"

// This file holds the five convenience spawners spec.md §2/§6 lists
// alongside the primitive constructors: Pulse, Producer, Consumer,
// Serialize, and Trigger. None adds new endpoint machinery: Pulse, Producer,
// Consumer and Trigger each wire one internal Pipe (plus, for the first
// three, a small spawned task), and Serialize wires a Dealer and one worker
// task, grounded on vanilla/core.py's pulse/producer/
// consumer/serialize/trigger methods.

// Pulse returns a Recver that yields item every d until the Hub stops or the
// Recver is closed.
func Pulse[T any](h *Hub, d time.Duration, item T) Recver[T] {
	pair := NewPipe[T](h)
	h.Spawn(func(h *Hub, _ []any) {
		for {
			if err := h.Sleep(d); err != nil {
				_ = pair.Sender.Close()
				return
			}
			if err := pair.Sender.Send(item); err != nil {
				return
			}
		}
	})
	return pair.Recver
}

// Producer returns a Recver fed by a spawned task running f against the
// Sender half of an internal Pipe. f is expected to loop, calling Send for
// each produced value, and to Close the Sender when it has nothing more to
// produce.
func Producer[T any](h *Hub, f func(h *Hub, send Sender[T])) Recver[T] {
	pair := NewPipe[T](h)
	h.Spawn(func(h *Hub, _ []any) {
		f(h, pair.Sender)
		_ = pair.Sender.Close()
	})
	return pair.Recver
}

// Consumer returns a Sender whose values are delivered, one at a time, to
// f by a spawned forwarder task that reads until Halt. This is the
// resolved Open Question 3 from SPEC_FULL.md §9: the original closure-based
// consumer is replaced with a spawned forwarder, which owns its Recver for
// its whole lifetime and so cannot outlive or alias the caller's stack.
func Consumer[T any](h *Hub, f func(h *Hub, v T)) Sender[T] {
	pair := NewPipe[T](h)
	h.Spawn(func(h *Hub, _ []any) {
		for {
			v, err := pair.Recver.Recv()
			if err != nil {
				return
			}
			f(h, v)
		}
	})
	return pair.Sender
}

// Serialize returns a Sender whose Sends are handled one at a time, in
// arrival order, by a single spawned worker calling f — even if multiple
// tasks Send concurrently. Built on Dealer rather than Pipe precisely
// because it must accept N concurrent producers while still guaranteeing
// strict in-order, non-overlapping delivery to f (Dealer's FIFO wait list
// provides the ordering; the single worker provides the non-overlap).
func Serialize[T any](h *Hub, f func(h *Hub, v T)) func() Sender[T] {
	newSend, recv := NewDealer[T](h)
	h.Spawn(func(h *Hub, _ []any) {
		for {
			v, err := recv.Recv()
			if err != nil {
				return
			}
			f(h, v)
		}
	})
	return newSend
}

// TriggerSender extends Sender with a non-blocking variant used by
// Trigger: Fire delivers v only if a Recver is already parked, and reports
// whether it did, rather than parking the caller when no one is waiting.
type TriggerSender[T any] interface {
	Sender[T]
	Fire(v T) bool
}

type triggerSender[T any] struct{ p *pipe[T] }

func (s triggerSender[T]) Send(v T) error { return s.p.Send(v) }
func (s triggerSender[T]) Close() error   { return s.p.closeSend() }
func (s triggerSender[T]) Ready() bool    { return s.p.Ready() }
func (s triggerSender[T]) Fire(v T) bool  { return s.p.tryDeliver(v) }

// NewTrigger constructs a Pipe whose Sender additionally exposes Fire, the
// non-blocking "notify if anyone's listening" primitive spec.md's endpoint
// surface lists as `trigger` on Trigger senders only.
func NewTrigger[T any](h *Hub) (TriggerSender[T], Recver[T]) {
	p := newPipe[T](h)
	return triggerSender[T]{p}, pipeRecver[T]{p}
}
