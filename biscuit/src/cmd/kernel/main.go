// Command kernel wires up the concurrency/memory-management core's
// module-scope singletons in the fixed order every subsystem assumes
// and starts the scheduler. It takes the place of the teacher's
// assembly-level entry trampoline and GDT/IDT/paging bring-up, both of
// which are out of scope here (SPEC_FULL.md §1).
package main

import (
	"fmt"
	"time"

	"blockdev"
	"boot"
	"console"
	"defs"
	"devreg"
	"frame"
	"keyboard"
	"kprintf"
	"kstats"
	"thread"
	"timer"
	"workqueue"
)

const (
	numFrames      = 8192
	keyboardRingSz = 256
	consoleRows    = 25
	consoleCols    = 80
	tickInterval   = 10 * time.Millisecond
)

// Bootstrap brings the kernel up to the point of having a runnable
// scheduler with its ambient devices registered. Each singleton is
// initialized exactly once, in the order its dependents require:
// frames before threads (threads need a stack allocator), threads
// before the work queue (the work queue is itself a kernel thread),
// the work queue before wiring thread destruction to it, the simulated
// timer only once there are threads whose quantum it can track, and the
// device layer only once threads and the work queue can service it.
func Bootstrap(info *boot.Info) {
	frame.Init(numFrames)

	thread.WireFrameAllocator()
	thread.Init()

	workqueue.Init()
	thread.Destroyer = func(t *thread.Thread) {
		workqueue.Schedule(func(data any) {
			thread.FinishDestroy(data.(*thread.Thread))
		}, t)
	}
	timer.Start(tickInterval)

	console.SetDefault(console.NewMemCons(consoleRows, consoleCols))
	keyboard.Init(keyboardRingSz)

	rd := blockdev.NewRamdisk(make([]byte, 1<<20), 512)
	if rc := devreg.RegisterBlockdev("ramdisk0", rd); rc != 0 {
		panic("devreg: duplicate ramdisk0")
	}

	kstats.Register(0, "idle")
	devreg.Register(defs.D_PROF, "prof", kstats.Snapshot)

	kprintf.Printf("geekos: %d frames, %u bytes usable memory\n", numFrames, info.TotalUsableBytes())

	thread.StartScheduler()
}

func main() {
	info := &boot.Info{
		Flags:      boot.FlagMemInfo,
		MemLowerKB: 640,
		MemUpperKB: 1 << 16,
	}
	fmt.Println("geekos: bootstrapping")
	Bootstrap(info)
}
