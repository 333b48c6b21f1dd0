package hub

import "time"

// dealer is the N:1 primitive from spec.md §4.4: any number of Senders, one
// Recver. Senders that arrive while no Recver is waiting queue in FIFO
// order rather than racing; Recv always serves the longest-waiting Sender
// first. Grounded on vanilla/core.py's Dealer class.
type dealer[T any] struct {
	hub *Hub

	pending       []pendingSend[T]
	waitingRecver *task

	sendersClosed bool
	recverClosed  bool
}

type pendingSend[T any] struct {
	t   *task
	val T
}

func newDealer[T any](h *Hub) *dealer[T] {
	return &dealer[T]{hub: h}
}

// NewDealer constructs a Dealer and returns a constructor for Senders bound
// to it plus its single shared Recver. Call the constructor once for each
// producer task.
func NewDealer[T any](h *Hub) (func() Sender[T], Recver[T]) {
	d := newDealer[T](h)
	newSender := func() Sender[T] { return dealerSender[T]{d} }
	return newSender, dealerRecver[T]{d}
}

func (d *dealer[T]) send(v T) error {
	if d.recverClosed {
		return &AbandonedError{Endpoint: "dealer"}
	}
	if d.sendersClosed {
		return &ClosedError{Endpoint: "dealer"}
	}
	if d.waitingRecver != nil {
		t := d.waitingRecver
		d.waitingRecver = nil
		d.hub.Resume(t, v)
		return nil
	}
	d.pending = append(d.pending, pendingSend[T]{t: d.hub.currentTask, val: v})
	msg := d.hub.parkCurrent()
	return msg.Err
}

func (d *dealer[T]) recv() (T, error) {
	var zero T
	if len(d.pending) > 0 {
		ps := d.pending[0]
		d.pending = d.pending[1:]
		d.hub.Resume(ps.t, nil)
		return ps.val, nil
	}
	if d.sendersClosed {
		return zero, &ClosedError{Endpoint: "dealer"}
	}
	if d.recverClosed {
		return zero, &AbandonedError{Endpoint: "dealer"}
	}
	d.waitingRecver = d.hub.currentTask
	msg := d.hub.parkCurrent()
	d.waitingRecver = nil
	if msg.Err != nil {
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

// recvTimeout is recv's timed variant, parking with a timeout instead of
// indefinitely.
func (d *dealer[T]) recvTimeout(timeout time.Duration) (T, error) {
	var zero T
	if len(d.pending) > 0 {
		ps := d.pending[0]
		d.pending = d.pending[1:]
		d.hub.Resume(ps.t, nil)
		return ps.val, nil
	}
	if d.sendersClosed {
		return zero, &ClosedError{Endpoint: "dealer"}
	}
	if d.recverClosed {
		return zero, &AbandonedError{Endpoint: "dealer"}
	}
	d.waitingRecver = d.hub.currentTask
	msg := d.hub.parkCurrentTimeout(timeout)
	d.waitingRecver = nil
	if msg.Err != nil {
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

// closeRecv closes the dealer from the Recver side (consumer gone), waking
// every parked Sender with an *AbandonedError. Closing one Sender handle is
// not meaningful for a multi-producer primitive, so Sender.Close is a no-op
// here, matching the reference's dealer, which exposes no per-producer close.
func (d *dealer[T]) closeRecv() error {
	if d.recverClosed {
		return nil
	}
	d.recverClosed = true
	pending := d.pending
	d.pending = nil
	for _, ps := range pending {
		d.hub.ResumeErr(ps.t, &AbandonedError{Endpoint: "dealer"})
	}
	return nil
}

type dealerSender[T any] struct{ d *dealer[T] }

func (s dealerSender[T]) Send(v T) error { return s.d.send(v) }
func (s dealerSender[T]) Close() error   { return nil }
func (s dealerSender[T]) Ready() bool    { return s.d.waitingRecver != nil }

type dealerRecver[T any] struct{ d *dealer[T] }

func (r dealerRecver[T]) Recv() (T, error) { return r.d.recv() }
func (r dealerRecver[T]) RecvTimeout(d time.Duration) (T, error) { return r.d.recvTimeout(d) }
func (r dealerRecver[T]) Close() error     { return r.d.closeRecv() }
