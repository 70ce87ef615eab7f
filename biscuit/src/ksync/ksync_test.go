package ksync

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
}

func spawn(f func()) {
	thread.Create(func(arg any) { f() }, nil, thread.Detached)
}

func TestMutexExcludes(t *testing.T) {
	setup(t)
	var m Mutex_t
	counter := 0
	const iters = 2000
	done := make(chan struct{}, 2)

	worker := func() {
		spawn(func() {
			for i := 0; i < iters; i++ {
				m.Lock()
				counter++
				m.Unlock()
			}
			done <- struct{}{}
		})
	}
	worker()
	worker()

	go thread.StartScheduler()

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for workers")
		}
	}
	if counter != 2*iters {
		t.Fatalf("counter = %d, want %d", counter, 2*iters)
	}
}

func TestCondSignalWakesWaiter(t *testing.T) {
	setup(t)
	var m Mutex_t
	var c Cond_t
	ready := false
	woke := make(chan struct{}, 1)

	spawn(func() {
		m.Lock()
		for !ready {
			c.Wait(&m)
		}
		m.Unlock()
		woke <- struct{}{}
	})

	go thread.StartScheduler()

	time.Sleep(50 * time.Millisecond)

	spawn(func() {
		m.Lock()
		ready = true
		c.Signal()
		m.Unlock()
	})

	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was never signaled")
	}
}

func TestCondBroadcastWakesAll(t *testing.T) {
	setup(t)
	var m Mutex_t
	var c Cond_t
	ready := false
	done := make(chan struct{}, 3)

	for i := 0; i < 3; i++ {
		spawn(func() {
			m.Lock()
			for !ready {
				c.Wait(&m)
			}
			m.Unlock()
			done <- struct{}{}
		})
	}

	go thread.StartScheduler()

	time.Sleep(50 * time.Millisecond)

	spawn(func() {
		m.Lock()
		ready = true
		c.Broadcast()
		m.Unlock()
	})

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("not all waiters woke from broadcast")
		}
	}
}

func TestUnlockByNonOwnerPanics(t *testing.T) {
	setup(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var m Mutex_t
	m.Unlock()
}

func TestCondWaitWithoutHoldingPanics(t *testing.T) {
	setup(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var m Mutex_t
	var c Cond_t
	c.Wait(&m)
}
