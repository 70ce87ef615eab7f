// Package frame implements the kernel's physical frame allocator: a
// single global free list of page-sized frames, backed by a contiguous
// frame array, with blocking allocation when the list is empty.
//
// Grounded on the original kernel's mem.c (Alloc_Page/Free_Page); the
// package-scope singleton shape follows the teacher's own
// mem.Physmem_t/limits.Syslimit convention even though the teacher's own
// mem package (x86 direct-map specific) is not reused here.
package frame

import (
	"intr"
	"kerrors"
	"limits"
	"queue"
)

/// PageSize is the size in bytes of one frame.
const PageSize = 4096

/// State classifies what a frame currently holds.
type State int

const (
	AVAIL State = iota /// on the free list, unused
	KERN               /// kernel image / static data
	HW                 /// reserved for hardware (ISA hole, frame array itself)
	UNUSED             /// not backed by real memory (a hole in the map)
	HEAP               /// carved out for the kernel heap
	KSTACK             /// backing a thread's kernel stack
	PGCACHE            /// resident in a page-cache
)

/// Content further describes a PGCACHE frame's validity.
type Content int

const (
	NoContent   Content = iota
	PendingInit         /// pagein in flight; readers must wait
	FailedInit          /// pagein failed; Err holds the reason
	Clean               /// matches backing store
	Dirty               /// modified since last write-back (unused by this port)
)

/// Frame represents one page of physical memory.
type Frame struct {
	Index    int
	state    State
	Content  Content
	PageNum  int /// logical page number within the owning page-cache
	refcount int
	Err      kerrors.Err_t
	Bytes    [PageSize]byte

	elem *queue.Elem[*Frame] /// this frame's slot on whichever list holds it
}

func (f *Frame) State() State { return f.state }

/// Refcount returns the frame's current reference count.
func (f *Frame) Refcount() int { return f.refcount }

/// Ref increments the reference count. Must be called with the owning
/// page-cache's mutex held (or, for free-list bookkeeping, inside an
/// intr.Atomic region).
func (f *Frame) Ref() { f.refcount++ }

/// Unref decrements the reference count and returns the new value.
func (f *Frame) Unref() int {
	if f.refcount <= 0 {
		panic("frame: unref of non-referenced frame")
	}
	f.refcount--
	return f.refcount
}

var (
	frames   []Frame
	freelist queue.Queue[*Frame]
)

// Park and WakeAll are wired up by thread.WireFrameAllocator so this
// package can block an allocating caller without importing thread
// (which itself allocates frames for kernel stacks — importing it here
// would cycle).
var (
	Park    func()
	WakeAll func()
)

/// Init builds the frame array and free list from n available frames.
/// Called once during bootstrap.
func Init(n int) {
	frames = make([]Frame, n)
	for i := range frames {
		frames[i].Index = i
		frames[i].state = AVAIL
		frames[i].elem = queue.NewElem(&frames[i])
	}
	t := intr.Begin()
	freelist.Clear()
	for i := range frames {
		freelist.Append(frames[i].elem)
	}
	intr.End(t)
}

/// NumFrames returns the total number of frames under management.
func NumFrames() int { return len(frames) }

/// ByIndex returns the frame at the given index.
func ByIndex(i int) *Frame { return &frames[i] }

/// Alloc removes one frame from the free list, setting its state and
/// reference count, blocking the caller while the list is empty.
func Alloc(state State, refcount int) *Frame {
	for {
		t := intr.Begin()
		if freelist.Empty() {
			intr.End(t)
			if Park == nil {
				panic("frame: Alloc blocked but no scheduler is wired up")
			}
			Park()
			continue
		}
		e := freelist.RemoveFirst()
		f := e.Val()
		f.state = state
		f.refcount = refcount
		f.Content = NoContent
		f.Err = 0
		intr.End(t)
		return f
	}
}

/// TryAllocCapped behaves like Alloc but additionally charges against a
/// Syslimit allotment (e.g. limits.Syslimit.Blocks for page-cache use);
/// it fails fast with kerrors.NOMEM instead of blocking when the limit,
/// not the free list, is exhausted.
func TryAllocCapped(state State, refcount int, limit *limits.Sysatomic_t) (*Frame, kerrors.Err_t) {
	if !limit.Take() {
		return nil, kerrors.NOMEM
	}
	return Alloc(state, refcount), 0
}

/// Free requires refcount == 0, returns the frame to the free list, and
/// wakes every blocked allocator.
func Free(f *Frame) {
	t := intr.Begin()
	if f.refcount != 0 {
		intr.End(t)
		panic("frame: free of referenced frame")
	}
	if f.state == AVAIL {
		intr.End(t)
		panic("frame: double free")
	}
	f.state = AVAIL
	f.Content = NoContent
	freelist.Append(f.elem)
	intr.End(t)
	if WakeAll != nil {
		WakeAll()
	}
}
