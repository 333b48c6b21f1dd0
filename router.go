package hub

import "time"

// router is the 1:N mirror of dealer: one Sender, any number of Recvers.
// Recvers that arrive while no value is pending queue in FIFO order;
// Send always wakes the longest-waiting Recver first. Grounded on
// vanilla/core.py's Router class.
type router[T any] struct {
	hub *Hub

	waitingRecvers []*task
	waitingSender  *task
	senderVal      T

	senderClosed   bool
	recversClosed  bool
}

func newRouter[T any](h *Hub) *router[T] {
	return &router[T]{hub: h}
}

// NewRouter constructs a Router and returns its single shared Sender plus a
// constructor for fresh Recvers, one per consumer task.
func NewRouter[T any](h *Hub) (Sender[T], func() Recver[T]) {
	r := newRouter[T](h)
	newRecver := func() Recver[T] { return routerRecver[T]{r} }
	return routerSender[T]{r}, newRecver
}

func (r *router[T]) send(v T) error {
	if r.recversClosed {
		return &AbandonedError{Endpoint: "router"}
	}
	if r.senderClosed {
		return &ClosedError{Endpoint: "router"}
	}
	if len(r.waitingRecvers) > 0 {
		t := r.waitingRecvers[0]
		r.waitingRecvers = r.waitingRecvers[1:]
		r.hub.Resume(t, v)
		return nil
	}
	r.waitingSender = r.hub.currentTask
	r.senderVal = v
	msg := r.hub.parkCurrent()
	r.waitingSender = nil
	return msg.Err
}

func (r *router[T]) recv() (T, error) {
	var zero T
	if r.waitingSender != nil {
		v := r.senderVal
		t := r.waitingSender
		r.waitingSender = nil
		r.hub.Resume(t, nil)
		return v, nil
	}
	if r.senderClosed {
		return zero, &ClosedError{Endpoint: "router"}
	}
	if r.recversClosed {
		return zero, &AbandonedError{Endpoint: "router"}
	}
	r.waitingRecvers = append(r.waitingRecvers, r.hub.currentTask)
	msg := r.hub.parkCurrent()
	if msg.Err != nil {
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

// recvTimeout is recv's timed variant. Unlike pipe/dealer/queue, a Router
// may have several Recvers parked concurrently, so a timed-out waiter must
// be found and removed from waitingRecvers by identity rather than relying
// on a single pointer being unconditionally cleared — otherwise a later Send
// could resume a task that has already returned from this call.
func (r *router[T]) recvTimeout(timeout time.Duration) (T, error) {
	var zero T
	if r.waitingSender != nil {
		v := r.senderVal
		t := r.waitingSender
		r.waitingSender = nil
		r.hub.Resume(t, nil)
		return v, nil
	}
	if r.senderClosed {
		return zero, &ClosedError{Endpoint: "router"}
	}
	if r.recversClosed {
		return zero, &AbandonedError{Endpoint: "router"}
	}
	self := r.hub.currentTask
	r.waitingRecvers = append(r.waitingRecvers, self)
	msg := r.hub.parkCurrentTimeout(timeout)
	if _, isTimeout := msg.Err.(*TimeoutError); isTimeout {
		for i, t := range r.waitingRecvers {
			if t == self {
				r.waitingRecvers = append(r.waitingRecvers[:i], r.waitingRecvers[i+1:]...)
				break
			}
		}
	}
	if msg.Err != nil {
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

func (r *router[T]) closeSend() error {
	if r.senderClosed {
		return nil
	}
	r.senderClosed = true
	waiters := r.waitingRecvers
	r.waitingRecvers = nil
	for _, t := range waiters {
		r.hub.ResumeErr(t, &ClosedError{Endpoint: "router"})
	}
	return nil
}

type routerSender[T any] struct{ r *router[T] }

func (s routerSender[T]) Send(v T) error { return s.r.send(v) }
func (s routerSender[T]) Close() error   { return s.r.closeSend() }
func (s routerSender[T]) Ready() bool    { return len(s.r.waitingRecvers) > 0 }

type routerRecver[T any] struct{ r *router[T] }

func (rc routerRecver[T]) Recv() (T, error) { return rc.r.recv() }
func (rc routerRecver[T]) RecvTimeout(d time.Duration) (T, error) { return rc.r.recvTimeout(d) }

// Close on one Recver handle does not close the router for other
// consumers; it only matters if it happens to be the one currently parked,
// which cannot be targeted selectively, so this is a no-op, matching
// router's counterpart of dealer's no-op Sender.Close.
func (rc routerRecver[T]) Close() error { return nil }
