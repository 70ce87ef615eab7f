// Package workqueue runs arbitrary callbacks on a dedicated kernel thread,
// off whatever thread happened to schedule the work.
//
// Grounded on the original kernel's workqueue.c: a list of pending items,
// a worker thread that sleeps on a wait queue until an item arrives, and a
// Schedule entry point any thread can call. The item list here uses
// container/list instead of a hand-rolled intrusive next pointer.
package workqueue

import (
	"container/list"

	"intr"
	"queue"
	"thread"
)

type item struct {
	callback func(data any)
	data     any
}

var (
	pending  list.List
	waitQ    queue.Queue[*thread.Thread]
)

/// Init starts the work queue's worker thread. Call once during
/// bootstrap, after thread.Init.
func Init() {
	thread.Create(func(arg any) { worker() }, nil, thread.Detached)
}

func worker() {
	for {
		t := intr.Begin()
		for pending.Len() == 0 {
			thread.Wait(&waitQ)
		}
		e := pending.Front()
		pending.Remove(e)
		it := e.Value.(item)
		intr.End(t)

		it.callback(it.data)
		// A safe point between items: honor a pending reschedule request
		// rather than let one worker thread run unbounded items within a
		// single quantum.
		thread.MaybeYield()
	}
}

/// Schedule enqueues callback(data) to run on the work-queue thread. Safe
/// to call from any thread context.
func Schedule(callback func(data any), data any) {
	t := intr.Begin()
	pending.PushBack(item{callback: callback, data: data})
	thread.WakeupOne(&waitQ)
	intr.End(t)
}
