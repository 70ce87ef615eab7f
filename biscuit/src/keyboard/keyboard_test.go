package keyboard

import (
	"testing"
	"time"

	"frame"
	"thread"
)

func setup(t *testing.T) {
	t.Helper()
	frame.Init(64)
	thread.Destroyer = func(th *thread.Thread) { thread.FinishDestroy(th) }
	thread.WireFrameAllocator()
	thread.Init()
	Init(16)
	waitq.Clear()
}

func TestReadKeyNonBlocking(t *testing.T) {
	setup(t)
	if _, ok := ReadKey(); ok {
		t.Fatal("expected no key available")
	}
	Deliver(0x1E)
	code, ok := ReadKey()
	if !ok || code != 0x1E {
		t.Fatalf("ReadKey = %x,%v want 1E,true", code, ok)
	}
}

func TestWaitForKeyBlocksUntilDelivered(t *testing.T) {
	setup(t)
	result := make(chan uint16, 1)
	thread.Create(func(arg any) {
		result <- WaitForKey()
	}, nil, thread.Detached)

	go thread.StartScheduler()

	time.Sleep(50 * time.Millisecond)

	thread.Create(func(arg any) {
		Deliver(0x2A)
	}, nil, thread.Detached)

	select {
	case code := <-result:
		if code != 0x2A {
			t.Fatalf("got %x, want 2A", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for key")
	}
}
