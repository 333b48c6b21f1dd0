package hub

// StateCell is the State primitive from spec.md §4.8: a single latched
// value. Send sets (or overwrites) the value and wakes every task parked in
// Recv; Recv returns immediately once a value has been set, or parks until
// one is. Unlike the rendezvous primitives, Send never blocks and never
// fails — there is no backpressure and no close, only a value that has
// either been set or not yet.
//
// Go cannot express this as a method with its own type parameter (methods
// may not introduce type parameters beyond the receiver's), so construction
// is a free function taking the Hub explicitly, following the same pattern
// used by NewPipe, NewDealer, NewRouter, NewQueue, NewChannel and
// NewBroadcast below.
type StateCell[T any] struct {
	hub      *Hub
	hasValue bool
	value    T
	waiters  []*task
}

// NewState constructs an unset StateCell: Recv blocks until the first Send.
func NewState[T any](h *Hub) *StateCell[T] {
	return &StateCell[T]{hub: h}
}

// NewStateWithValue constructs a StateCell already latched to v.
func NewStateWithValue[T any](h *Hub, v T) *StateCell[T] {
	return &StateCell[T]{hub: h, hasValue: true, value: v}
}

// Send latches value and resumes every task currently parked in Recv.
func (s *StateCell[T]) Send(v T) {
	s.value = v
	s.hasValue = true
	waiters := s.waiters
	s.waiters = nil
	for _, t := range waiters {
		s.hub.Resume(t, v)
	}
}

// Recv returns the latched value, parking the current task until Send is
// called if no value has been set yet.
func (s *StateCell[T]) Recv() (T, error) {
	if s.hasValue {
		return s.value, nil
	}
	s.waiters = append(s.waiters, s.hub.currentTask)
	msg := s.hub.parkCurrent()
	if msg.Err != nil {
		var zero T
		return zero, msg.Err
	}
	return msg.Value.(T), nil
}

// Peek reports the latched value and whether one has been set, without
// parking.
func (s *StateCell[T]) Peek() (T, bool) {
	return s.value, s.hasValue
}
