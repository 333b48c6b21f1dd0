package hub

import "time"

// pipe is the 1:1 rendezvous primitive from spec.md §4.3: a value handed to
// Send is delivered directly to whichever task is parked in Recv, with no
// buffering — if no counterpart is waiting, the caller parks instead.
// Grounded on vanilla/core.py's Pipe class; the direct-handoff shape (no
// internal buffer, no background task) is what makes it the cheapest of the
// primitives and the building block the others compose.
//
// pipe is used two ways in this package: wrapped in the pipeSender/
// pipeRecver split for NewPipe's public API, and used directly (both ends
// on the same value) by registration.go, which owns both sides of the fd
// readiness bridge and has no reason to enforce the split.
type pipe[T any] struct {
	hub *Hub

	waitingSender *task
	senderVal     T
	waitingRecver *task

	senderClosed bool
	recverClosed bool
}

func newPipe[T any](h *Hub) *pipe[T] {
	return &pipe[T]{hub: h}
}

// NewPipe constructs a Pipe and returns its two ends.
func NewPipe[T any](h *Hub) Pair[T] {
	p := newPipe[T](h)
	return Pair[T]{Sender: pipeSender[T]{p}, Recver: pipeRecver[T]{p}}
}

func (p *pipe[T]) Send(v T) error {
	if p.recverClosed {
		return &AbandonedError{Endpoint: "pipe"}
	}
	if p.senderClosed {
		return &ClosedError{Endpoint: "pipe"}
	}
	if p.waitingRecver != nil {
		t := p.waitingRecver
		p.waitingRecver = nil
		p.hub.Resume(t, v)
		return nil
	}
	p.waitingSender = p.hub.currentTask
	p.senderVal = v
	msg := p.hub.parkCurrent()
	p.waitingSender = nil
	return msg.Err
}

func (p *pipe[T]) Recv() (T, error) {
	var zero T
	if p.waitingSender != nil {
		v := p.senderVal
		t := p.waitingSender
		p.waitingSender = nil
		p.hub.Resume(t, nil)
		return v, nil
	}
	if p.senderClosed {
		return zero, &ClosedError{Endpoint: "pipe"}
	}
	if p.recverClosed {
		return zero, &AbandonedError{Endpoint: "pipe"}
	}
	p.waitingRecver = p.hub.currentTask
	msg := p.hub.parkCurrent()
	p.waitingRecver = nil
	if msg.Err != nil {
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

// RecvTimeout is Recv's timed variant, parking with a timeout instead of
// indefinitely.
func (p *pipe[T]) RecvTimeout(d time.Duration) (T, error) {
	var zero T
	if p.waitingSender != nil {
		v := p.senderVal
		t := p.waitingSender
		p.waitingSender = nil
		p.hub.Resume(t, nil)
		return v, nil
	}
	if p.senderClosed {
		return zero, &ClosedError{Endpoint: "pipe"}
	}
	if p.recverClosed {
		return zero, &AbandonedError{Endpoint: "pipe"}
	}
	p.waitingRecver = p.hub.currentTask
	msg := p.hub.parkCurrentTimeout(d)
	p.waitingRecver = nil
	if msg.Err != nil {
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

// tryDeliver attempts a non-parking send: it succeeds only if a Recver is
// already waiting. Used by Broadcast, which must never block the
// broadcaster on a slow or absent subscriber.
func (p *pipe[T]) tryDeliver(v T) bool {
	if p.waitingRecver == nil {
		return false
	}
	t := p.waitingRecver
	p.waitingRecver = nil
	p.hub.Resume(t, v)
	return true
}

// Ready reports whether a Recver is currently parked waiting for a value.
func (p *pipe[T]) Ready() bool {
	return p.waitingRecver != nil
}

func (p *pipe[T]) closeSend() error {
	if p.senderClosed {
		return nil
	}
	p.senderClosed = true
	if p.waitingRecver != nil {
		t := p.waitingRecver
		p.waitingRecver = nil
		p.hub.ResumeErr(t, &ClosedError{Endpoint: "pipe"})
	}
	return nil
}

func (p *pipe[T]) closeRecv() error {
	if p.recverClosed {
		return nil
	}
	p.recverClosed = true
	if p.waitingSender != nil {
		t := p.waitingSender
		p.waitingSender = nil
		p.hub.ResumeErr(t, &AbandonedError{Endpoint: "pipe"})
	}
	return nil
}

// Close closes both ends, for the registration.go use case where a single
// *pipe owns both roles and a poll-deregister should wake any parked party
// regardless of which role it was waiting in.
func (p *pipe[T]) Close() error {
	_ = p.closeSend()
	_ = p.closeRecv()
	return nil
}

type pipeSender[T any] struct{ p *pipe[T] }

func (s pipeSender[T]) Send(v T) error { return s.p.Send(v) }
func (s pipeSender[T]) Close() error   { return s.p.closeSend() }
func (s pipeSender[T]) Ready() bool    { return s.p.Ready() }

type pipeRecver[T any] struct{ p *pipe[T] }

func (r pipeRecver[T]) Recv() (T, error) { return r.p.Recv() }
func (r pipeRecver[T]) RecvTimeout(d time.Duration) (T, error) { return r.p.RecvTimeout(d) }
func (r pipeRecver[T]) Close() error     { return r.p.closeRecv() }

// Pipe forwards every value received on r to next.Sender until r closes or
// next.Sender rejects a value, propagating closure in both directions. The
// Go translation of vanilla/core.py's Recver.pipe(): rather than splice
// internal queues together, it spawns a small forwarding task, matching the
// resolved Open Question 3 in SPEC_FULL.md §9 (no closure-capture hazard
// since the task owns r and next for its entire lifetime).
func Pipe[T any](h *Hub, r Recver[T], next Pair[T]) Recver[T] {
	h.Spawn(func(h *Hub, _ []any) {
		for {
			v, err := r.Recv()
			if err != nil {
				_ = next.Sender.Close()
				return
			}
			if err := next.Sender.Send(v); err != nil {
				_ = r.Close()
				return
			}
		}
	})
	return next.Recver
}
