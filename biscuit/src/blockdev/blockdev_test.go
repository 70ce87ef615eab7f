package blockdev

import (
	"os"
	"testing"
	"time"

	"frame"
	"kerrors"
	"thread"
	"workqueue"
)

func setup(t *testing.T) {
	t.Helper()
	frame.Init(64)
	thread.Destroyer = func(th *thread.Thread) { thread.FinishDestroy(th) }
	thread.WireFrameAllocator()
	thread.Init()
	workqueue.Init()
	go thread.StartScheduler()
}

type rwResult struct{ wrc, rrc kerrors.Err_t }

func TestRamdiskReadWriteRoundTrip(t *testing.T) {
	setup(t)
	backing := make([]byte, 8*512)
	rd := NewRamdisk(backing, 512)

	wbuf := make([]byte, 512)
	for i := range wbuf {
		wbuf[i] = 0xAB
	}
	rbuf := make([]byte, 512)

	resultCh := make(chan rwResult, 1)
	thread.Create(func(arg any) {
		wrc := WriteSync(rd, 2, 1, wbuf)
		rrc := ReadSync(rd, 2, 1, rbuf)
		resultCh <- rwResult{wrc, rrc}
	}, nil, thread.Detached)

	select {
	case r := <-resultCh:
		if r.wrc != 0 || r.rrc != 0 {
			t.Fatalf("unexpected error codes: write=%v read=%v", r.wrc, r.rrc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for round trip")
	}
	for i := range rbuf {
		if rbuf[i] != 0xAB {
			t.Fatalf("byte %d = %x, want AB", i, rbuf[i])
		}
	}
}

func TestRamdiskOutOfRangeFails(t *testing.T) {
	setup(t)
	backing := make([]byte, 2*512)
	rd := NewRamdisk(backing, 512)
	buf := make([]byte, 512)

	resultCh := make(chan kerrors.Err_t, 1)
	thread.Create(func(arg any) {
		resultCh <- ReadSync(rd, 5, 1, buf)
	}, nil, thread.Detached)

	select {
	case rc := <-resultCh:
		if rc == 0 {
			t.Fatal("expected error for out-of-range read")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestFilediskRoundTrip(t *testing.T) {
	setup(t)
	f, err := os.CreateTemp("", "blockdev-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	if err := f.Truncate(4 * 512); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dev, rc := OpenFiledisk(f.Name(), 512)
	if rc != 0 {
		t.Fatalf("OpenFiledisk failed: %v", rc)
	}
	defer dev.Close()

	wbuf := make([]byte, 512)
	for i := range wbuf {
		wbuf[i] = 0xCD
	}
	rbuf := make([]byte, 512)
	resultCh := make(chan rwResult, 1)
	thread.Create(func(arg any) {
		wrc := WriteSync(dev, 1, 1, wbuf)
		rrc := ReadSync(dev, 1, 1, rbuf)
		resultCh <- rwResult{wrc, rrc}
	}, nil, thread.Detached)

	select {
	case r := <-resultCh:
		if r.wrc != 0 || r.rrc != 0 {
			t.Fatalf("unexpected error codes: write=%v read=%v", r.wrc, r.rrc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for round trip")
	}
	for i := range rbuf {
		if rbuf[i] != 0xCD {
			t.Fatalf("byte %d = %x, want CD", i, rbuf[i])
		}
	}
}
