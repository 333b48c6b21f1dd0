package hub

import "time"

// queue is the bounded-FIFO primitive from spec.md §4.5: a single Sender
// and a single Recver, interposed by a size-bounded buffer. Send blocks
// once the buffer is at capacity; Recv blocks once it is empty. Unlike
// Channel (§4.6), Queue is strictly 1:1 — spec.md describes it as sitting
// between "a Sender" and "a Recver," not a fan-in/fan-out pair — so rather
// than compose two Pipes around a forwarding task (what Channel needs for
// its N:1/1:N legs), this implements the buffer directly: simpler, and one
// less task/goroutine per Queue.
type queue[T any] struct {
	hub  *Hub
	buf  []T
	size int

	waitingSender *task
	senderVal     T
	waitingRecver *task

	senderClosed bool
	recverClosed bool
}

func newQueue[T any](h *Hub, size int) *queue[T] {
	return &queue[T]{hub: h, size: size, buf: make([]T, 0, size)}
}

// NewQueue constructs a Queue with the given capacity and returns its ends.
func NewQueue[T any](h *Hub, size int) Pair[T] {
	q := newQueue[T](h, size)
	return Pair[T]{Sender: queueSender[T]{q}, Recver: queueRecver[T]{q}}
}

func (q *queue[T]) send(v T) error {
	if q.recverClosed {
		return &AbandonedError{Endpoint: "queue"}
	}
	if q.senderClosed {
		return &ClosedError{Endpoint: "queue"}
	}
	if len(q.buf) < q.size {
		q.buf = append(q.buf, v)
		if q.waitingRecver != nil {
			t := q.waitingRecver
			q.waitingRecver = nil
			head := q.buf[0]
			q.buf = q.buf[1:]
			q.hub.Resume(t, head)
		}
		return nil
	}
	q.waitingSender = q.hub.currentTask
	q.senderVal = v
	msg := q.hub.parkCurrent()
	q.waitingSender = nil
	return msg.Err
}

func (q *queue[T]) recv() (T, error) {
	var zero T
	if len(q.buf) > 0 {
		v := q.buf[0]
		q.buf = q.buf[1:]
		if q.waitingSender != nil {
			t := q.waitingSender
			val := q.senderVal
			q.waitingSender = nil
			q.buf = append(q.buf, val)
			q.hub.Resume(t, nil)
		}
		return v, nil
	}
	if q.senderClosed {
		return zero, &ClosedError{Endpoint: "queue"}
	}
	if q.recverClosed {
		return zero, &AbandonedError{Endpoint: "queue"}
	}
	q.waitingRecver = q.hub.currentTask
	msg := q.hub.parkCurrent()
	q.waitingRecver = nil
	if msg.Err != nil {
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

// recvTimeout is recv's timed variant, parking with a timeout instead of
// indefinitely.
func (q *queue[T]) recvTimeout(timeout time.Duration) (T, error) {
	var zero T
	if len(q.buf) > 0 {
		v := q.buf[0]
		q.buf = q.buf[1:]
		if q.waitingSender != nil {
			t := q.waitingSender
			val := q.senderVal
			q.waitingSender = nil
			q.buf = append(q.buf, val)
			q.hub.Resume(t, nil)
		}
		return v, nil
	}
	if q.senderClosed {
		return zero, &ClosedError{Endpoint: "queue"}
	}
	if q.recverClosed {
		return zero, &AbandonedError{Endpoint: "queue"}
	}
	q.waitingRecver = q.hub.currentTask
	msg := q.hub.parkCurrentTimeout(timeout)
	q.waitingRecver = nil
	if msg.Err != nil {
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

// closeSend marks the Queue closed for writes. Buffered items remain
// drainable via Recv; once empty, Recv starts returning *ClosedError — the
// "close drains, then closes" behavior spec.md §7 requires.
func (q *queue[T]) closeSend() error {
	if q.senderClosed {
		return nil
	}
	q.senderClosed = true
	if q.waitingRecver != nil && len(q.buf) == 0 {
		t := q.waitingRecver
		q.waitingRecver = nil
		q.hub.ResumeErr(t, &ClosedError{Endpoint: "queue"})
	}
	return nil
}

func (q *queue[T]) closeRecv() error {
	if q.recverClosed {
		return nil
	}
	q.recverClosed = true
	if q.waitingSender != nil {
		t := q.waitingSender
		q.waitingSender = nil
		q.hub.ResumeErr(t, &AbandonedError{Endpoint: "queue"})
	}
	return nil
}

type queueSender[T any] struct{ q *queue[T] }

func (s queueSender[T]) Send(v T) error { return s.q.send(v) }
func (s queueSender[T]) Close() error   { return s.q.closeSend() }

// Ready reports whether the buffer currently has room, the Queue analogue
// of "a counterparty parked" (a Send here would not park the caller).
func (s queueSender[T]) Ready() bool { return len(s.q.buf) < s.q.size }

type queueRecver[T any] struct{ q *queue[T] }

func (r queueRecver[T]) Recv() (T, error) { return r.q.recv() }
func (r queueRecver[T]) RecvTimeout(d time.Duration) (T, error) { return r.q.recvTimeout(d) }
func (r queueRecver[T]) Close() error     { return r.q.closeRecv() }
