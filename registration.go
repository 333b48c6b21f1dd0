package hub

// Register binds a file descriptor's readiness for events to a Recver: each
// time PollIO reports fd ready for (any bit of) events, the waiting task is
// woken with true. Register is the Poll Binding contract's entry point from
// spec.md §4.9/§6 — the bridge a TCP/TLS/HTTP collaborator (out of core
// scope per spec.md §1) is expected to build on.
func (h *Hub) Register(fd int, events IOEvents) (Recver[bool], error) {
	if fd < 0 {
		return nil, ErrFDOutOfRange
	}
	masks, ok := h.registrations[fd]
	if !ok {
		if err := h.poller.RegisterFD(fd, events); err != nil {
			return nil, err
		}
		masks = make(map[IOEvents]*pipe[bool])
		h.registrations[fd] = masks
	} else if _, dup := masks[events]; dup {
		return nil, ErrFDAlreadyRegistered
	} else {
		combined := events
		for m := range masks {
			combined |= m
		}
		if err := h.poller.ModifyFD(fd, combined); err != nil {
			return nil, err
		}
	}

	p := newPipe[bool](h)
	masks[events] = p
	return pipeRecver[bool]{p}, nil
}

// Unregister removes a previously Registered (fd, events) pair, waking any
// task currently parked on its Recver with a *ClosedError.
func (h *Hub) Unregister(fd int, events IOEvents) error {
	masks, ok := h.registrations[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	p, ok := masks[events]
	if !ok {
		return ErrFDNotRegistered
	}
	_ = p.closeSend()
	delete(masks, events)

	if len(masks) == 0 {
		delete(h.registrations, fd)
		return h.poller.UnregisterFD(fd)
	}
	combined := IOEvents(0)
	for m := range masks {
		combined |= m
	}
	return h.poller.ModifyFD(fd, combined)
}

// dispatchEvents delivers each PollIO result to every registration on that
// fd whose mask intersects the reported events. Equivalent to spec.md
// §4.1 step 6's dispatcher: see hub.go's tick for why this runs inline
// instead of as a separately spawned task.
//
// A poll error is not just another readiness bit: spec.md requires that a
// poll-error event closes every Sender registered for that fd, rather than
// merely waking one parked Recv the way a read/write readiness event does —
// the fd itself is now presumed broken, so every current and future waiter
// on it must observe Closed, not a one-shot delivery.
func (h *Hub) dispatchEvents(events []PollEvent) {
	for _, ev := range events {
		masks, ok := h.registrations[ev.FD]
		if !ok {
			continue
		}
		if ev.Events&EventError != 0 {
			for _, p := range masks {
				_ = p.Close()
			}
			delete(h.registrations, ev.FD)
			_ = h.poller.UnregisterFD(ev.FD)
			continue
		}
		for mask, p := range masks {
			if mask&ev.Events != 0 {
				p.tryDeliver(true)
			}
		}
	}
}
