// Package pagecache implements a logical-page cache with at-most-one
// concurrent pagein per page number: the central concurrency artifact
// this port exists to exercise.
//
// Grounded on the original kernel's vm.c pager/cache split, adapted from
// whole-address-space virtual memory down to a standalone cache any
// consumer (here, the VFS/PFAT reader) can sit on top of. Locking follows
// the mutex-plus-condition pattern throughout this port's ksync package:
// the mutex protects the resident list and each frame's content tag, the
// condition announces a PENDING_INIT -> {CLEAN,FAILED_INIT} transition.
package pagecache

import (
	"frame"
	"kerrors"
	"ksync"
	"limits"
)

/// Pager reads and writes one logical page at a time.
type Pager interface {
	ReadPage(pageNum uint32, buf []byte) kerrors.Err_t
	WritePage(pageNum uint32, buf []byte) kerrors.Err_t
}

type resident struct {
	f    *frame.Frame
	next *resident
}

/// Cache maps logical page numbers to resident frames over a Pager.
type Cache struct {
	mu    ksync.Mutex_t
	cond  ksync.Cond_t
	pager Pager
	head  *resident
}

/// New creates an empty cache fronting pager.
func New(pager Pager) *Cache {
	return &Cache{pager: pager}
}

func (c *Cache) find(pageNum uint32) *frame.Frame {
	for r := c.head; r != nil; r = r.next {
		if r.f.PageNum == int(pageNum) {
			return r.f
		}
	}
	return nil
}

func (c *Cache) insert(f *frame.Frame) {
	c.head = &resident{f: f, next: c.head}
}

func (c *Cache) remove(f *frame.Frame) {
	var prev *resident
	for r := c.head; r != nil; r = r.next {
		if r.f == f {
			if prev == nil {
				c.head = r.next
			} else {
				prev.next = r.next
			}
			return
		}
		prev = r
	}
}

/// LockPage returns the resident frame for pageNum, faulting it in via
/// the pager on first access. Exactly one pagein per page number is ever
/// in flight; concurrent callers for the same page share its result. A
/// first-time fault that would exceed limits.Syslimit.Blocks fails fast
/// with kerrors.NOMEM rather than blocking on the frame free list.
func (c *Cache) LockPage(pageNum uint32) (*frame.Frame, kerrors.Err_t) {
	c.mu.Lock()

	if f := c.find(pageNum); f != nil {
		f.Ref()
		for f.Content == frame.PendingInit {
			c.cond.Wait(&c.mu)
		}
		if f.Content == frame.FailedInit {
			rc := f.Err
			c.releaseLocked(f)
			c.mu.Unlock()
			return nil, rc
		}
		c.mu.Unlock()
		return f, 0
	}

	f, rc := frame.TryAllocCapped(frame.PGCACHE, 1, &limits.Syslimit.Blocks)
	if rc != 0 {
		c.mu.Unlock()
		return nil, rc
	}
	f.PageNum = int(pageNum)
	f.Content = frame.PendingInit
	c.insert(f)
	c.mu.Unlock()

	rc = c.pager.ReadPage(pageNum, f.Bytes[:])

	c.mu.Lock()
	if rc == 0 {
		f.Content = frame.Clean
	} else {
		f.Content = frame.FailedInit
		f.Err = rc
	}
	c.cond.Broadcast()
	if rc != 0 {
		c.releaseLocked(f)
		c.mu.Unlock()
		return nil, rc
	}
	c.mu.Unlock()
	return f, 0
}

/// UnlockPage releases a reference taken by LockPage.
func (c *Cache) UnlockPage(f *frame.Frame) {
	c.mu.Lock()
	c.releaseLocked(f)
	c.mu.Unlock()
}

// releaseLocked drops one reference to f, evicting and freeing it if that
// was the last reference and it never reached CLEAN/DIRTY. c.mu must be
// held.
func (c *Cache) releaseLocked(f *frame.Frame) {
	if f.Unref() == 0 && f.Content == frame.FailedInit {
		c.remove(f)
		frame.Free(f)
		limits.Syslimit.Blocks.Give()
	}
}
