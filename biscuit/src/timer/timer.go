// Package timer drives the kernel's tick counter: a simulated timer
// interrupt source that advances thread.Tick() the way the timer chip's
// IRQ handler does on real hardware.
//
// Grounded on the original kernel's timer.c: a free-running tick counter
// plus a process-tick routine called once per IRQ that bumps both the
// global count and the running thread's own, so thread can notice a
// quantum has elapsed. Nothing in this port can suspend a goroutine from
// outside to deliver a real interrupt, so a ticker-driven goroutine
// stands in for the IRQ source; it only ever calls Tick, never
// Yield/MaybeYield, since it has no thread identity of its own to hand
// the CPU to — honoring the resulting reschedule request is left to
// whichever thread next reaches a MaybeYield checkpoint.
package timer

import (
	"sync/atomic"
	"time"

	"thread"
)

var numTicks uint64

/// NumTicks returns the total number of ticks processed since Start was
/// called.
func NumTicks() uint64 { return atomic.LoadUint64(&numTicks) }

/// Start launches the simulated timer source, calling thread.Tick() once
/// per interval until the returned stop function is invoked. Call once
/// during bootstrap, after thread.Init.
func Start(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				atomic.AddUint64(&numTicks, 1)
				thread.Tick()
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
