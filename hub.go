package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// hubState is the Hub's lifecycle state machine, a simplified, spec-scoped
// relative of the teacher's FastState: this Hub runs on one dedicated
// goroutine rather than a pool, so a plain field guarded by the baton
// protocol (only the Loop goroutine ever writes it) suffices in place of the
// teacher's atomic.Uint64 CAS machine, which exists to support concurrent
// transitions from arbitrary callers.
type hubState int32

const (
	stateIdle hubState = iota
	stateRunning
	stateStopping
	stateStopped
)

// backMsg is what a task's goroutine sends back across Hub.backCh when it
// suspends (parks on some wait-list) or finishes (its body returned).
type backMsg struct {
	t        *task
	finished bool
	panicVal any
}

// Hub is the scheduler + timer heap + poll registration facade: every
// concurrency primitive in this package is bound to exactly one Hub.
// Grounded on vanilla/core.py's Hub class (algorithm) and the teacher's
// loop.go (Go construction/lifecycle idiom: functional options, dedicated
// run goroutine, structured shutdown).
type Hub struct {
	clock   clockz.Clock
	logger  logiface.Logger[*stumpy.Event]
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[HubEvent]

	ready    *readyDeque
	timers   *timerHeap
	external *externalIngress
	poller   Poller

	registrations map[int]map[IOEvents]*pipe[bool]

	backCh chan backMsg

	currentTask      *task
	batonGoroutineID int64
	loopGoroutineID  int64
	nextTaskIDVal    uint64

	state hubState

	stopped *StateCell[bool]

	maxFDs int
}

// New constructs a Hub. The Hub does not start running until Run is called.
func New(opts ...HubOption) (*Hub, error) {
	cfg, err := resolveHubOptions(opts)
	if err != nil {
		return nil, err
	}

	h := &Hub{
		clock:         cfg.clock,
		logger:        cfg.logger,
		ready:         newReadyDeque(),
		timers:        newTimerHeap(),
		external:      newExternalIngress(),
		registrations: make(map[int]map[IOEvents]*pipe[bool]),
		backCh:        make(chan backMsg),
		maxFDs:        cfg.maxFDs,
		state:         stateIdle,
	}

	if cfg.metricsEnabled {
		h.metrics = newHubMetrics()
	}
	if cfg.tracingEnabled {
		h.tracer = tracez.New()
	}
	h.hooks = hookz.New[HubEvent]()

	poller, err := newPoller(h.maxFDs)
	if err != nil {
		return nil, fmt.Errorf("hub: poller init: %w", err)
	}
	h.poller = poller

	h.stopped = NewState[bool](h)

	return h, nil
}

func (h *Hub) nextTaskID() uint64 {
	h.nextTaskIDVal++
	return h.nextTaskIDVal
}

func (h *Hub) now() time.Time { return h.clock.Now() }

// Run drives the Hub's pump loop on the calling goroutine until the Hub
// deadlocks (nothing left to schedule), ctx is canceled (triggers Stop), or
// Stop is called from elsewhere. It returns once the Loop has fully drained.
func (h *Hub) Run(ctx context.Context) error {
	h.loopGoroutineID = currentGoroutineID()
	h.batonGoroutineID = h.loopGoroutineID
	h.state = stateRunning
	h.logLifecycle("run.start")

	stopRequested := false
	if ctx != nil {
		done := ctx.Done()
		if done != nil {
			go func() {
				<-done
				h.Stop()
			}()
		}
	}

	for {
		more, err := h.tick()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if h.metrics != nil {
			h.metrics.Counter(MetricTicksTotal).Inc()
			h.metrics.Gauge(MetricReadyDepth).Set(float64(h.ready.Len()))
			h.metrics.Gauge(MetricTimerDepth).Set(float64(h.timers.LiveCount()))
		}
	}

	_ = stopRequested
	h.state = stateStopped
	h.stopped.Send(true)
	// Run the tasks the latch just woke (StopOnTerm callers) so they observe it.
	for h.ready.Len() > 0 {
		for _, e := range h.ready.drain() {
			h.runEntry(e)
		}
	}
	h.emit(context.Background(), HookStopped, HubEvent{Kind: EventStopped})
	h.logLifecycle("run.stopped")
	return nil
}

// tick runs one pump iteration: §4.1 of SPEC_FULL.md.
func (h *Hub) tick() (bool, error) {
	var span *tracez.Span
	var ctx context.Context
	if h.tracer != nil {
		ctx, span = h.tracer.StartSpan(context.Background(), SpanTick)
	}

	// step 1: drain anything Submitted from outside the Loop goroutine onto
	// the Ready Deque, each as a freshly spawned task.
	for _, fn := range h.external.drain() {
		fn := fn
		h.Spawn(func(h *Hub, _ []any) { fn() })
	}

	if h.ready.Len() == 0 && h.timers.Empty() && len(h.registrations) == 0 {
		h.logDebug("hub: deadlock detected, nothing left to schedule")
		if span != nil {
			span.SetTag(TagOutcome, "drained")
			span.Finish()
		}
		return false, nil
	}

	// step 2: drain ready deque, fairness via slice-swap in readyDeque.drain
	entries := h.ready.drain()
	for i := range entries {
		h.runEntry(entries[i])
	}

	// step 3: compute timeout
	now := h.now()
	timeout := h.calculateTimeout(now)

	// step 4: poll. The poller always has at least its wake fd registered
	// (set up in newPoller), so this is safe — and necessary — even with no
	// caller-registered fds: it is the only primitive that both respects a
	// computed deadline and is reliably interruptible by Hub.Submit/Stop
	// from another goroutine. A plain clock.After sleep would miss wakeups
	// delivered while the Loop is asleep and no timer is due.
	var events []PollEvent
	for {
		evs, err := h.poller.PollIO(timeout)
		if err == ErrInterrupted {
			continue
		}
		if err != nil {
			h.logPollError(err)
			return false, err
		}
		events = evs
		break
	}
	if h.metrics != nil {
		h.metrics.Counter(MetricPollEventsTotal).Add(float64(len(events)))
	}

	// step 5: fire due timers, in heap order, synchronously (direct switch,
	// mirroring vanilla/core.py's pump: "task, a = self.scheduled.pop();
	// self.run_task(task, *a)" — not routed through the Ready Deque).
	now = h.now()
	for h.timers.DueTop(now) {
		item := h.timers.PopDue()
		if item.target == nil {
			payload := item.payload.(spawnPayload)
			h.runEntry(readyEntry{fn: payload.f, args: payload.args})
			continue
		}
		var msg resumeMsg
		if item.isTimeout {
			msg = resumeMsg{Err: &TimeoutError{Duration: item.payload.(time.Duration).String()}}
		} else {
			msg = resumeMsg{Value: item.payload}
		}
		h.runEntry(readyEntry{t: item.target, val: msg})
	}

	// step 6: dispatch poll events directly (functionally equivalent to the
	// reference's spawned dispatcher task, since both reduce to enqueuing
	// resumes for matched parked recvers).
	if len(events) > 0 {
		h.dispatchEvents(events)
	}

	if span != nil {
		span.SetTag(TagEventCnt, fmt.Sprintf("%d", len(events)))
		span.Finish()
	}
	_ = ctx
	return true, nil
}

// calculateTimeout implements spec.md §4.1 step 3 and the resolved Open
// Question 1: if a timer is due, never block (clamp to <= 0) so poll returns
// immediately instead of racing the wall clock. Entries readied during this
// tick's drain must run next tick, so a non-empty Ready Deque also yields 0.
func (h *Hub) calculateTimeout(now time.Time) time.Duration {
	if h.ready.Len() > 0 {
		return 0
	}
	if h.timers.Empty() {
		return -1
	}
	d := h.timers.Timeout(now)
	if d > 0 {
		d = 0
	}
	return d
}

// runEntry hands the baton to entry's task (starting a fresh goroutine for a
// spawn, or resuming a parked one) and blocks until it next suspends or
// finishes. Exactly one of entry.fn (fresh spawn) or entry.t (resume) is set.
func (h *Hub) runEntry(entry readyEntry) {
	if entry.fn != nil {
		t := newTask(h.nextTaskID())
		h.currentTask = t
		if h.hooks != nil {
			h.emit(context.Background(), HookTaskSpawned, HubEvent{Kind: EventTaskSpawned, TaskID: t.id})
		}
		if h.metrics != nil {
			h.metrics.Counter(MetricTasksSpawnedTotal).Inc()
		}
		go func() {
			t.goid = currentGoroutineID()
			h.batonGoroutineID = t.goid
			h.safeExecute(t, entry.fn, entry.args)
		}()
	} else {
		t := entry.t
		h.currentTask = t
		h.batonGoroutineID = t.goid
		t.resumeCh <- entry.val
	}

	back := <-h.backCh
	h.currentTask = nil
	h.batonGoroutineID = h.loopGoroutineID

	if back.panicVal != nil {
		h.logTaskPanic(back.t.id, back.panicVal)
		if h.metrics != nil {
			h.metrics.Counter(MetricTasksDiedTotal).Inc()
		}
		h.emit(context.Background(), HookTaskPanicked, HubEvent{Kind: EventTaskPanicked, TaskID: back.t.id})
	}
}

// safeExecute runs a task body with panic recovery, grounded on the
// teacher's own recover-and-log wrapper around task execution.
func (h *Hub) safeExecute(t *task, fn taskFunc, args []any) {
	defer func() {
		if r := recover(); r != nil {
			h.backCh <- backMsg{t: t, finished: true, panicVal: r}
			return
		}
		h.backCh <- backMsg{t: t, finished: true}
	}()
	fn(h, args)
}

// parkCurrent suspends the calling task: it reports "suspending" to the Loop
// across backCh, then blocks on its own resumeCh until a future resume
// delivers a value. This is the Go-native equivalent of greenlet's
// loop.switch(): a plain blocking channel receive on the task's own
// goroutine stack, rather than a stack-switch.
func (h *Hub) parkCurrent() resumeMsg {
	t := h.currentTask
	h.backCh <- backMsg{t: t, finished: false}
	return <-t.resumeCh
}

// resume appends (task, value) to the Ready Deque. Per spec.md §5, this is
// idempotent against re-entry and safe to call only while holding the baton
// (from the Loop's own dispatch code or from the currently running task).
func (h *Hub) resume(t *task, msg resumeMsg) {
	h.ready.push(readyEntry{t: t, val: msg})
}

// Spawn starts f(args...) as a new task. Called from within a running task,
// it also yields that task for one tick, guaranteeing spawn-order progress
// (spec.md §4.1): two Spawns from the same task land in the Ready Deque in
// call order, and spec.md's scenario A depends on the first spawned task's
// own send completing before the caller spawns the second. Called before
// Run (bootstrapping a Hub's initial tasks) there is no current task to
// yield, so Spawn just enqueues. Like the rest of the Hub's scheduling
// state, Spawn is only safe to call from the Loop goroutine or before Run
// starts — from any other goroutine, use Submit instead.
func (h *Hub) Spawn(f taskFunc, args ...any) {
	h.ready.push(readyEntry{fn: f, args: args})
	if h.currentTask != nil {
		h.Cont()
	}
}

// SpawnLater schedules f(args...) to start d in the future, on a fresh task.
// Unlike Sleep/Pause, there is no existing task to resume when the timer
// fires — target is left nil, and the timer-fire loop in tick() recognizes a
// nil target as carrying a spawnPayload and routes it through the same
// fresh-goroutine path Spawn uses, rather than trying to resume a task that
// was never started.
func (h *Hub) SpawnLater(d time.Duration, f taskFunc, args ...any) {
	h.timers.Add(h.now(), d, nil, spawnPayload{f: f, args: args}, false)
}

type spawnPayload struct {
	f    taskFunc
	args []any
}

// Sleep pauses the current task for d, then resumes it with no value.
func (h *Hub) Sleep(d time.Duration) error {
	t := h.currentTask
	h.timers.Add(h.now(), d, t, nil, false)
	msg := h.parkCurrent()
	if msg.Err != nil {
		return msg.Err
	}
	return nil
}

// Pause suspends the current task indefinitely (timeout < 0) or until
// timeout elapses, in which case it is resumed by raising *TimeoutError at
// this call site.
func (h *Hub) Pause(timeout time.Duration) (any, error) {
	t := h.currentTask
	var item *timerItem
	if timeout >= 0 {
		item = h.timers.Add(h.now(), timeout, t, timeout, true)
	}
	msg := h.parkCurrent()
	if timeout >= 0 {
		if _, isTimeout := msg.Err.(*TimeoutError); !isTimeout {
			h.timers.Remove(item)
		}
	}
	if msg.Err != nil {
		return nil, msg.Err
	}
	return msg.Value, nil
}

// parkCurrentTimeout is parkCurrent's timed variant: it schedules a timeout
// timer exactly the way Pause does, parks, and cancels the timer if woken
// for any other reason. Used by every endpoint's RecvTimeout; the caller is
// still responsible for clearing its own wait-list entry afterward, since
// this helper has no visibility into which primitive's wait structure the
// current task registered itself on.
func (h *Hub) parkCurrentTimeout(d time.Duration) resumeMsg {
	t := h.currentTask
	item := h.timers.Add(h.now(), d, t, d, true)
	msg := h.parkCurrent()
	if _, isTimeout := msg.Err.(*TimeoutError); !isTimeout {
		h.timers.Remove(item)
	}
	return msg
}

// Cont enqueues the current task and yields one tick — "give others a turn."
func (h *Hub) Cont() {
	t := h.currentTask
	if t == nil {
		panic("hub: Cont called outside a running task")
	}
	h.resume(t, resumeMsg{})
	h.parkCurrent()
}

// Resume appends (task, value) onto the Ready Deque; see spec.md §4.1.
// Exported for primitives implemented outside this package (e.g. custom
// endpoint variants) that need to wake a parked task.
func (h *Hub) Resume(t *task, v any) {
	h.resume(t, resumeMsg{Value: v})
}

// ResumeErr is Resume's error-delivery counterpart: the target task observes
// err raised at its suspension point instead of an ordinary value.
func (h *Hub) ResumeErr(t *task, err error) {
	h.resume(t, resumeMsg{Err: err})
}

// CurrentTask exposes the task presently holding the baton, for primitives
// implemented in this package's other files.
func (h *Hub) CurrentTask() *task { return h.currentTask }

// wake interrupts a blocking PollIO call so a freshly Submitted external task can be drained promptly rather than
// waiting for an unrelated timeout to elapse.
func (h *Hub) wake() {
	if h.poller != nil {
		h.poller.Wake()
	}
}

// Stop implements spec.md §4.1's stop(): it sleeps one tick, closes every
// registered fd's Senders, and delivers StopError to every still-scheduled
// timer target via the standard resume mechanism (the Open Question 2
// redesign from SPEC_FULL.md §9). Stop does not wait for the stopped State
// latch: it returns once those steps are done (or, from a foreign goroutine,
// once they are submitted). Run sets the latch after the loop drains;
// StopOnTerm is the call that waits for it. Safe to call from any goroutine.
func (h *Hub) Stop() {
	if !h.isLoopThread() {
		h.Submit(func() { h.stopInternal() })
		return
	}
	h.stopInternal()
}

func (h *Hub) stopInternal() {
	if h.state == stateStopping || h.state == stateStopped {
		return
	}
	h.state = stateStopping
	h.emit(context.Background(), HookStopping, HubEvent{Kind: EventStopping})
	h.logLifecycle("stop.begin")

	_ = h.Sleep(time.Millisecond)

	for fd, masks := range h.registrations {
		for _, sender := range masks {
			_ = sender.Close()
		}
		delete(h.registrations, fd)
	}

	for !h.timers.Empty() {
		item := h.timers.PopDue()
		h.resume(item.target, resumeMsg{Err: &StopError{Reason: "stop"}})
	}
}

// StopOnTerm blocks the current task until an external SIGINT/SIGTERM bridge
// (driven by an out-of-scope signal collaborator through Submit) calls Stop,
// then returns. Out of core scope beyond this hook per spec.md §1; provided
// so collaborators have a stable call site.
func (h *Hub) StopOnTerm() {
	_, _ = h.stopped.Recv()
}
