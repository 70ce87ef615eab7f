package pfat

import (
	"encoding/binary"
	"testing"
	"time"

	"blockdev"
	"frame"
	"kerrors"
	"thread"
	"workqueue"
)

const blockSize = 512

func putU32(buf []byte, off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:off+4], v) }
func putU16(buf []byte, off int, v uint16) { binary.LittleEndian.PutUint16(buf[off:off+2], v) }

// buildImage lays out a superblock, a one-block FAT region, and four
// 4096-byte clusters (one per FAT entry): cluster 0 is the root directory
// holding a single entry for "hello.txt" pointing at cluster 1; clusters
// 1-3 stay zeroed (cluster 1 stands in for file data the test never reads).
func buildImage() []byte {
	const (
		fatStartLBA     = 1
		fatEntries      = 4
		firstClusterLBA = 2
		clusterSize     = 4096
		rootFatIndex    = 0
	)
	totalBlocks := firstClusterLBA + (clusterSize/blockSize)*fatEntries
	img := make([]byte, totalBlocks*blockSize)

	putU32(img, 0, Magic)
	putU32(img, 4, fatStartLBA)
	putU32(img, 8, fatEntries)
	putU32(img, 12, firstClusterLBA)
	putU32(img, 16, clusterSize)
	putU32(img, 20, rootFatIndex)

	fatOff := fatStartLBA * blockSize
	putU32(img, fatOff+0*4, fatTerminator)
	putU32(img, fatOff+1*4, fatTerminator)

	rootOff := firstClusterLBA * blockSize
	putU32(img, rootOff+0, 1) // fat_index of child
	putU16(img, rootOff+4, 0) // bits: not a directory
	name := []byte("hello.txt")
	copy(img[rootOff+12:rootOff+12+len(name)], name)

	return img
}

func setup(t *testing.T) {
	t.Helper()
	frame.Init(64)
	thread.Destroyer = func(th *thread.Thread) { thread.FinishDestroy(th) }
	thread.WireFrameAllocator()
	thread.Init()
	workqueue.Init()
	go thread.StartScheduler()
}

func TestMountAndRootLookup(t *testing.T) {
	setup(t)
	img := buildImage()
	rd := blockdev.NewRamdisk(img, blockSize)

	type result struct {
		entry DirEntry
		rc    kerrors.Err_t
	}
	done := make(chan result, 1)

	thread.Create(func(arg any) {
		fs, rc := Mount(rd)
		if rc != 0 {
			done <- result{rc: rc}
			return
		}
		e, rc := fs.LookupChild(fs.RootFatIndex(), "hello.txt")
		done <- result{entry: e, rc: rc}
	}, nil, thread.Detached)

	select {
	case r := <-done:
		if r.rc != 0 {
			t.Fatalf("lookup failed: %v", r.rc)
		}
		if r.entry.FatIndex != 1 {
			t.Fatalf("fat_index = %d, want 1", r.entry.FatIndex)
		}
		if r.entry.Name.String() != "hello.txt" {
			t.Fatalf("name = %q, want hello.txt", r.entry.Name.String())
		}
		st := r.entry.Stat(4096)
		if st.Rino() != 1 {
			t.Fatalf("stat ino = %d, want 1", st.Rino())
		}
		if st.Size() != 4096 {
			t.Fatalf("stat size = %d, want 4096", st.Size())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lookup")
	}
}

func TestLookupMissingNameFails(t *testing.T) {
	setup(t)
	img := buildImage()
	rd := blockdev.NewRamdisk(img, blockSize)

	done := make(chan kerrors.Err_t, 1)
	thread.Create(func(arg any) {
		fs, rc := Mount(rd)
		if rc != 0 {
			done <- rc
			return
		}
		_, rc = fs.LookupChild(fs.RootFatIndex(), "nope.txt")
		done <- rc
	}, nil, thread.Detached)

	select {
	case rc := <-done:
		if rc == 0 {
			t.Fatal("expected lookup of missing name to fail")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}
