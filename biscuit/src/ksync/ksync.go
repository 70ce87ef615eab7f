// Package ksync implements the kernel's sleep-based mutex and condition
// variable: no spinning, contention always sleeps on a wait queue.
//
// Grounded on the original kernel's synch.c. Acquisition sandwiches the
// critical section between disabling and re-enabling scheduler
// preemption (thread.PreemptDisable/Restore); inside that window state
// is touched with the atomic region briefly taken just to manipulate the
// wait queue, exactly mirroring the source's split between "preemption
// disabled" and "interrupts disabled" scopes.
package ksync

import (
	"intr"
	"queue"
	"thread"
)

/// Mutex_t is a non-recursive, sleep-on-contention mutex.
type Mutex_t struct {
	locked bool
	owner  *thread.Thread
	waitq  queue.Queue[*thread.Thread]
}

/// Lock acquires m, blocking the caller while it is held by another
/// thread. Recursive acquisition by the same thread is a fatal
/// assertion.
func (m *Mutex_t) Lock() {
	was := thread.PreemptDisable()
	if m.locked && m.owner == thread.Current() {
		thread.PreemptRestore(was)
		panic("ksync: recursive mutex acquisition")
	}
	for m.locked {
		thread.Park(&m.waitq)
	}
	m.locked = true
	m.owner = thread.Current()
	thread.PreemptRestore(was)
}

/// Unlock releases m. The caller must currently hold it.
func (m *Mutex_t) Unlock() {
	was := thread.PreemptDisable()
	if !m.locked || m.owner != thread.Current() {
		thread.PreemptRestore(was)
		panic("ksync: unlock by non-owner")
	}
	m.locked = false
	m.owner = nil
	t := intr.Begin()
	thread.WakeupOne(&m.waitq)
	intr.End(t)
	thread.PreemptRestore(was)
}

/// Holding reports whether the current thread holds m; intended for
/// assertions in callers, not for control flow.
func (m *Mutex_t) Holding() bool {
	return m.locked && m.owner == thread.Current()
}

/// Cond_t is a condition variable always used together with a Mutex_t.
type Cond_t struct {
	waitq queue.Queue[*thread.Thread]
}

/// Wait atomically releases m and blocks on c, reacquiring m before
/// returning. m must be held on entry.
func (c *Cond_t) Wait(m *Mutex_t) {
	was := thread.PreemptDisable()
	if !m.Holding() {
		thread.PreemptRestore(was)
		panic("ksync: cond wait without holding mutex")
	}
	m.locked = false
	m.owner = nil
	// Wake a waiter for the mutex itself now that it is free, same as a
	// normal Unlock, before parking on the condition — otherwise a
	// thread already blocked in Lock on this mutex would never learn it
	// became available.
	t := intr.Begin()
	thread.WakeupOne(&m.waitq)
	intr.End(t)
	thread.Park(&c.waitq)
	for m.locked {
		thread.Park(&m.waitq)
	}
	m.locked = true
	m.owner = thread.Current()
	thread.PreemptRestore(was)
}

/// Signal wakes one thread blocked in Wait, if any. The caller is
/// expected to hold the associated mutex, but this is a contract on
/// callers, not enforced here.
func (c *Cond_t) Signal() {
	t := intr.Begin()
	thread.WakeupOne(&c.waitq)
	intr.End(t)
}

/// Broadcast wakes every thread blocked in Wait.
func (c *Cond_t) Broadcast() {
	t := intr.Begin()
	thread.Wakeup(&c.waitq)
	intr.End(t)
}
