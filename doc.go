// Package hub implements a single-process concurrency runtime: a
// cooperative scheduler of lightweight tasks wired to an OS readiness
// multiplexer, plus a family of typed message-passing primitives (pipes,
// dealers, routers, queues, channels, broadcasts, states) built on a common
// sender/recver rendezvous.
//
// # Scheduling
//
// A [Hub] runs its pump loop on one dedicated goroutine (Hub.Run). Every
// task spawned onto the Hub gets its own goroutine, but at most one task's
// body is ever actually executing: the Loop hands off a baton — either by
// starting a fresh task goroutine or by sending on a parked task's resume
// channel — and blocks until that task next suspends or returns. Tasks
// suspend by parking on a channel receive of their own, never by switching
// stacks, which is the Go-native analogue of the stackful-coroutine
// translation this runtime is built around.
//
// # Message passing
//
// [Sender] and [Recver] are the two halves of every rendezvous endpoint.
// [NewPipe] gives a 1:1 unbuffered rendezvous; [NewDealer] and [NewRouter]
// give the N:1 and 1:N variants; [NewQueue] adds a bounded buffer between
// one Sender and one Recver; [NewChannel] composes a Dealer, an optional
// Queue, and a Router into an M:N primitive; [NewBroadcast] fans a value
// out to every currently-parked subscriber, dropping it for the rest.
// [NewState] is a latched single-value cell.
//
// [Pulse], [Producer], [Consumer], [Serialize] and [NewTrigger] are
// convenience spawners built atop these primitives.
//
// # I/O readiness
//
// [Hub.Register] binds a file descriptor's readiness to a Recver[bool];
// [Hub.Unregister] releases it. See poller.go for the platform-specific
// Poller implementations.
package hub
