// Package thread implements the kernel's thread scheduler: creation,
// join, the wait/wakeup family, yield, and the advisory preemption
// bookkeeping a tick handler would drive on real hardware.
//
// Grounded on the original kernel's thread.c for the full state machine
// and primitive semantics. The context switch itself — a platform
// assembly routine there — is represented here by backing every Thread
// with a dedicated goroutine parked on a private "resume" channel; the
// scheduler hands off execution by signaling that channel, the channel
// handoff pattern coming directly from a toy cooperative scheduler
// (block/unblock over channels) rather than anything hand-rolled for
// this port. See DESIGN.md for why true asynchronous preemption of a
// running goroutine is not attempted: nothing in stock Go can suspend
// another goroutine's execution from outside, so the reschedule flag
// and preemption-disable bookkeeping below are advisory state threads
// consult cooperatively at their own safe points, not a mechanism that
// forcibly interrupts one.
package thread

import (
	"runtime"

	"accnt"
	"frame"
	"intr"
	"queue"
)

/// Mode controls whether a created thread keeps a parent reference.
type Mode int

const (
	Attached Mode = iota /// parent is expected to Join
	Detached              /// no parent reference is kept
)

/// State is a thread's lifecycle stage.
type State int

const (
	Ready State = iota
	Running
	Waiting
	Exited
	Killed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Waiting:
		return "WAITING"
	case Exited:
		return "EXITED"
	case Killed:
		return "KILLED"
	}
	return "?"
}

/// Quantum is the number of ticks a thread may run before the reschedule
/// flag is set.
const Quantum = 4

/// Thread is one schedulable kernel thread.
type Thread struct {
	state    State
	exitcode int
	refcount int
	parent   *Thread
	ticks    int
	stack    *frame.Frame
	Acc      accnt.Accnt_t

	joinQ    queue.Queue[*Thread]
	runElem  *queue.Elem[*Thread]
	resumeCh chan struct{}
}

func (t *Thread) State() State       { return t.state }
func (t *Thread) ExitCode() int      { return t.exitcode }
func (t *Thread) Refcount() int      { return t.refcount }

var (
	runqueue    queue.Queue[*Thread]
	current     *Thread
	idle        *Thread
	reschedule  bool
	preemptible = true
	bootStall   = make(chan struct{})
)

/// Destroyer is invoked (with the thread already removed from every
/// observer's view) once a thread's refcount reaches zero. It is wired
/// up during bootstrap to defer onto the work queue — a thread cannot
/// free its own stack while executing on it, so this must never run
/// synchronously inside the exiting thread's own goroutine.
var Destroyer func(t *Thread)

func destroy(t *Thread) {
	if Destroyer == nil {
		FinishDestroy(t)
		return
	}
	Destroyer(t)
}

/// FinishDestroy actually frees a dead thread's stack frame. Call this
/// from the work-queue worker (see Destroyer).
func FinishDestroy(t *Thread) {
	t.stack.Unref()
	frame.Free(t.stack)
}

/// Current returns the thread presently running.
func Current() *Thread { return current }

/// FrameWaitQ is the wait queue threads block on when the frame
/// allocator's free list is empty.
var FrameWaitQ queue.Queue[*Thread]

/// WireFrameAllocator connects frame's blocking allocation path to this
/// scheduler. Call once during bootstrap, before any thread can block in
/// frame.Alloc.
func WireFrameAllocator() {
	frame.Park = func() { Park(&FrameWaitQ) }
	frame.WakeAll = func() {
		t := intr.Begin()
		Wakeup(&FrameWaitQ)
		intr.End(t)
	}
}

/// Init creates the idle thread, the run queue's permanent last resort.
func Init() {
	idle = &Thread{state: Ready, resumeCh: make(chan struct{}), refcount: 1}
	idle.runElem = queue.NewElem(idle)
	go func() {
		<-idle.resumeCh
		for {
			Yield()
		}
	}()
	t := intr.Begin()
	runqueue.Append(idle.runElem)
	intr.End(t)
}

/// Create allocates a thread and its kernel stack, primes it to call
/// start(arg) on first dispatch, and appends it to the run queue ready
/// to run. mode == Attached additionally takes a reference on behalf of
/// the creating thread's future Join call.
func Create(start func(arg any), arg any, mode Mode) *Thread {
	stack := frame.Alloc(frame.KSTACK, 1)
	th := &Thread{
		state:    Ready,
		resumeCh: make(chan struct{}),
		stack:    stack,
		refcount: 1,
	}
	th.runElem = queue.NewElem(th)
	if mode == Attached {
		th.parent = current
		th.refcount = 2
	}
	go func() {
		<-th.resumeCh
		start(arg)
		Exit(0)
	}()
	t := intr.Begin()
	runqueue.Append(th.runElem)
	intr.End(t)
	return th
}

// dispatch removes the next runnable thread, makes it current, hands it
// the CPU, and blocks the caller (whichever thread is giving up the CPU)
// until some future wakeup resumes it. Must be called with the atomic
// region held; returns with it held again.
func dispatch() {
	self := current
	next := runqueue.RemoveFirst().Val()
	next.state = Running
	next.ticks = 0
	current = next
	if next == self {
		// Nothing else is runnable (e.g. the idle thread yielding to
		// itself): keep running without a handoff.
		return
	}
	intr.SuspendHeld()
	next.resumeCh <- struct{}{}
	<-self.resumeCh
	intr.ResumeHeld()
}

/// StartScheduler performs the very first dispatch and parks the calling
/// (bootstrap) goroutine forever; it never returns. Call once, after all
/// initial threads have been created.
func StartScheduler() {
	intr.Begin()
	next := runqueue.RemoveFirst().Val()
	next.state = Running
	next.ticks = 0
	current = next
	intr.SuspendHeld()
	next.resumeCh <- struct{}{}
	<-bootStall
}

/// RelinquishCPU asserts the caller is RUNNING and resets its tick count.
/// Requires the atomic region held.
func RelinquishCPU() {
	if current.state != Running {
		panic("thread: relinquish by non-running thread")
	}
	current.ticks = 0
}

/// Wait suspends the current thread on q. Requires the atomic region
/// already held; returns with it held again once resumed.
func Wait(q *queue.Queue[*Thread]) {
	RelinquishCPU()
	self := current
	self.state = Waiting
	q.Append(self.runElem)
	dispatch()
}

/// Park behaves like Wait but must be called with the atomic region not
/// held (intr is not reentrant): it acquires the region, disables preemption for the
/// duration, waits, then restores both.
func Park(q *queue.Queue[*Thread]) {
	t := intr.Begin()
	wasPreemptible := preemptible
	preemptible = false
	Wait(q)
	preemptible = wasPreemptible
	intr.End(t)
}

/// WakeupOne removes one thread from q and makes it runnable. Requires
/// the atomic region held.
func WakeupOne(q *queue.Queue[*Thread]) {
	if q.Empty() {
		return
	}
	e := q.RemoveFirst()
	w := e.Val()
	w.state = Ready
	runqueue.Append(w.runElem)
}

/// Wakeup drains q, making every waiter runnable in order. Requires the
/// atomic region held.
func Wakeup(q *queue.Queue[*Thread]) {
	for !q.Empty() {
		WakeupOne(q)
	}
}

/// WaitUntil blocks on q until pred returns true, rechecking after each
/// wakeup. Requires the atomic region held throughout.
func WaitUntil(q *queue.Queue[*Thread], pred func() bool) {
	for !pred() {
		Wait(q)
	}
}

/// Yield moves the current thread to the run queue's tail and dispatches
/// the next runnable thread.
func Yield() {
	t := intr.Begin()
	self := current
	self.state = Ready
	runqueue.Append(self.runElem)
	dispatch()
	intr.End(t)
}

func unref(t *Thread) {
	tok := intr.Begin()
	t.refcount--
	r := t.refcount
	intr.End(tok)
	if r == 0 {
		destroy(t)
	} else if r < 0 {
		panic("thread: refcount underflow")
	}
}

/// Join waits for child (created Attached by the caller) to terminate
/// and returns its exit code.
func Join(child *Thread) int {
	t := intr.Begin()
	if current != child.parent {
		intr.End(t)
		panic("thread: join by non-parent")
	}
	WaitUntil(&child.joinQ, func() bool {
		return child.state == Exited || child.state == Killed
	})
	code := child.exitcode
	child.parent = nil
	intr.End(t)
	unref(child)
	return code
}

/// Exit terminates the current thread with the given exit code. It never
/// returns: the backing goroutine's function body ends here.
func Exit(code int) {
	intr.Begin()
	self := current
	self.exitcode = code
	self.state = Exited
	Wakeup(&self.joinQ)
	next := runqueue.RemoveFirst().Val()
	next.state = Running
	next.ticks = 0
	current = next
	intr.SuspendHeld() // matches the Begin above; this goroutine never resumes
	next.resumeCh <- struct{}{}
	unref(self)
	runtime.Goexit()
}

/// RequestReschedule sets the advisory reschedule flag directly, for
/// event sources other than the timer (e.g. the keyboard IRQ) that want
/// the next MaybeYield checkpoint to hand off the CPU soon.
func RequestReschedule() {
	t := intr.Begin()
	reschedule = true
	intr.End(t)
}

/// Tick is driven by a simulated timer source; it is bookkeeping only
/// (see the package doc for why real preemption is not attempted).
func Tick() {
	t := intr.Begin()
	if current != nil {
		current.ticks++
		if current.ticks >= Quantum {
			reschedule = true
		}
	}
	intr.End(t)
}

/// MaybeYield is the cooperative checkpoint a thread calls at a safe
/// point (e.g. between work-queue items) to honor a
/// pending reschedule request.
func MaybeYield() {
	t := intr.Begin()
	should := reschedule && preemptible
	if should {
		reschedule = false
	}
	intr.End(t)
	if should {
		Yield()
	}
}

/// PreemptDisable and PreemptRestore bracket a non-preemptible critical
/// section (used by ksync around mutex/condition-variable bodies).
func PreemptDisable() bool {
	was := preemptible
	preemptible = false
	return was
}

func PreemptRestore(was bool) {
	preemptible = was
}
