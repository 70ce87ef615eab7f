package frame

import (
	"testing"
	"time"
)

func reinit(n int) {
	Park = nil
	WakeAll = nil
	Init(n)
}

func TestAllocFreeRoundTrip(t *testing.T) {
	reinit(4)
	f := Alloc(KERN, 1)
	if f.State() != KERN || f.Refcount() != 1 {
		t.Fatalf("unexpected frame state after alloc: %v %d", f.State(), f.Refcount())
	}
	f.Unref()
	Free(f)
	if f.State() != AVAIL {
		t.Fatalf("expected AVAIL after free, got %v", f.State())
	}
}

func TestAllocExhaustionBlocksThenSucceeds(t *testing.T) {
	reinit(1)

	waiters := make(chan struct{})
	woken := make(chan struct{}, 1)
	Park = func() {
		waiters <- struct{}{}
		<-woken
	}
	WakeAll = func() {
		select {
		case woken <- struct{}{}:
		default:
		}
	}

	first := Alloc(KERN, 1)

	done := make(chan *Frame)
	go func() {
		done <- Alloc(KERN, 1)
	}()

	select {
	case <-waiters:
	case <-time.After(time.Second):
		t.Fatal("second Alloc did not block on empty free list")
	}

	first.Unref()
	Free(first)

	select {
	case f := <-done:
		if f == nil {
			t.Fatal("expected a frame after free")
		}
	case <-time.After(time.Second):
		t.Fatal("blocked allocator was not woken after Free")
	}
}

func TestFreeOfReferencedFramePanics(t *testing.T) {
	reinit(2)
	f := Alloc(KERN, 1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic freeing a referenced frame")
		}
	}()
	Free(f)
}
