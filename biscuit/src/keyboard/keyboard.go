// Package keyboard bridges a scancode source (normally an IRQ handler)
// to thread context through a small ring buffer and a wait queue.
//
// Grounded on the original kernel's keyboard.c/x86_keyb.c: the IRQ side
// enqueues a scancode, wakes every waiter, and requests a reschedule;
// the consumer side polls non-blockingly (ReadKey) or parks until one
// arrives (WaitForKey). The ring buffer itself is circbuf.Circbuf_t,
// generalized here from its page-backed I/O-buffer role down to a small
// fixed-size scancode queue (two bytes per code, no physical-page
// backing needed).
package keyboard

import (
	"circbuf"
	"intr"
	"queue"
	"thread"
)

const unknownKey = 0xFFFF

var (
	cb    circbuf.Circbuf_t
	waitq queue.Queue[*thread.Thread]
)

/// Init allocates the scancode ring buffer, sized for n pending codes.
func Init(n int) {
	cb.Cb_init(n * 2)
}

func enqueue(code uint16) {
	cb.WriteByte(byte(code))
	cb.WriteByte(byte(code >> 8))
}

func dequeue() uint16 {
	lo := cb.ReadByte()
	hi := cb.ReadByte()
	return uint16(lo) | uint16(hi)<<8
}

func empty() bool { return cb.Empty() }

/// Deliver is called by the keyboard interrupt source with a newly
/// scanned key code. It wakes every thread parked in WaitForKey and
/// requests a reschedule so one gets a chance to run soon.
func Deliver(code uint16) {
	t := intr.Begin()
	if !cb.Full() {
		enqueue(code)
	}
	thread.Wakeup(&waitq)
	intr.End(t)
	thread.RequestReschedule()
}

/// ReadKey polls for a pending key code without blocking. ok is false if
/// none is available.
func ReadKey() (code uint16, ok bool) {
	t := intr.Begin()
	defer intr.End(t)
	if empty() {
		return unknownKey, false
	}
	return dequeue(), true
}

/// WaitForKey blocks the calling thread until a key code is available.
func WaitForKey() uint16 {
	t := intr.Begin()
	defer intr.End(t)
	for empty() {
		thread.Wait(&waitq)
	}
	return dequeue()
}
