package hub

// NewChannel composes the M:N primitive from spec.md §4.6 out of a Dealer
// (fan-in from any number of producers into one internal recver), an
// optional Queue buffer, and a Router (fan-out from one internal sender to
// any number of consumers), joined by forwarding tasks — directly mirroring
// vanilla/core.py's channel(), which builds exactly this Dealer ->
// [Queue] -> Router pipeline. size <= 0 skips the Queue leg and forwards
// the Dealer straight into the Router.
func NewChannel[T any](h *Hub, size int) (func() Sender[T], func() Recver[T]) {
	newDealerSend, dealerRecv := NewDealer[T](h)
	routerSend, newRouterRecv := NewRouter[T](h)

	if size > 0 {
		q := NewQueue[T](h, size)
		forward(h, dealerRecv, q.Sender)
		forward(h, q.Recver, routerSend)
	} else {
		forward(h, dealerRecv, routerSend)
	}

	return newDealerSend, newRouterRecv
}

// forward spawns a task pumping every value from src into dst until either
// side closes, propagating the closure. Shared by NewChannel's queued and
// unqueued legs.
func forward[T any](h *Hub, src Recver[T], dst Sender[T]) {
	h.Spawn(func(h *Hub, _ []any) {
		for {
			v, err := src.Recv()
			if err != nil {
				_ = dst.Close()
				return
			}
			if err := dst.Send(v); err != nil {
				_ = src.Close()
				return
			}
		}
	})
}
