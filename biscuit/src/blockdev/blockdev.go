// Package blockdev defines the block I/O request pipeline and a ramdisk
// driver: devices post requests asynchronously (typically handed to the
// work queue) and issuers wait on the request's own wait queue for
// completion.
//
// Grounded on the original kernel's blockdev.c/blockdev.h and
// ramdisk.c: a device is an operation-table interface, a request carries
// its own private wait queue, and blockdev_notify_complete/
// blockdev_wait_for_completion form the async-post/sync-wait split that
// read_sync/write_sync build on.
package blockdev

import (
	"intr"
	"kerrors"
	"queue"
	"thread"
	"workqueue"
)

/// ReqType distinguishes a read request from a write request.
type ReqType int

const (
	Read ReqType = iota
	Write
)

/// reqState tracks whether a request has completed.
type reqState int

const (
	pending reqState = iota
	finished
)

/// Request is one block I/O request. Buf holds the data for a write on
/// entry, or receives the data for a read on completion.
type Request struct {
	LBA       uint64
	NumBlocks uint
	Buf       []byte
	Type      ReqType

	state reqState
	rc    kerrors.Err_t
	waitq queue.Queue[*thread.Thread]
	dev   Device
}

/// NewRequest builds a pending request. Use PostAndWait for the common
/// synchronous case, or Post plus WaitForCompletion to overlap other work
/// with the I/O.
func NewRequest(lba uint64, numBlocks uint, buf []byte, typ ReqType) *Request {
	return &Request{LBA: lba, NumBlocks: numBlocks, Buf: buf, Type: typ}
}

/// Device is a block device: something that can accept a Request, report
/// its geometry, and be closed.
type Device interface {
	PostRequest(req *Request)
	NumBlocks() uint64
	BlockSize() int
	Close() kerrors.Err_t
}

/// Post hands req to dev for asynchronous processing.
func Post(dev Device, req *Request) {
	req.dev = dev
	dev.PostRequest(req)
}

/// WaitForCompletion blocks until req finishes and returns its result
/// code.
func WaitForCompletion(req *Request) kerrors.Err_t {
	t := intr.Begin()
	for req.state == pending {
		thread.Wait(&req.waitq)
	}
	intr.End(t)
	return req.rc
}

/// PostAndWait posts req and blocks for its completion.
func PostAndWait(dev Device, req *Request) kerrors.Err_t {
	Post(dev, req)
	return WaitForCompletion(req)
}

/// NotifyComplete marks req finished with result code rc and wakes
/// everyone waiting on it. Called by a driver once the I/O is done.
func NotifyComplete(req *Request, rc kerrors.Err_t) {
	t := intr.Begin()
	req.state = finished
	req.rc = rc
	thread.Wakeup(&req.waitq)
	intr.End(t)
}

func issueSync(dev Device, lba uint64, numBlocks uint, buf []byte, typ ReqType) kerrors.Err_t {
	req := NewRequest(lba, numBlocks, buf, typ)
	rc := PostAndWait(dev, req)
	// The original frees the request and then reads its result code back
	// out of the freed memory; captured above before req is allowed to
	// go out of scope, so there is nothing left to read afterward.
	return rc
}

/// ReadSync reads numBlocks blocks starting at lba into buf, blocking
/// until the I/O completes.
func ReadSync(dev Device, lba uint64, numBlocks uint, buf []byte) kerrors.Err_t {
	return issueSync(dev, lba, numBlocks, buf, Read)
}

/// WriteSync writes numBlocks blocks starting at lba from buf, blocking
/// until the I/O completes.
func WriteSync(dev Device, lba uint64, numBlocks uint, buf []byte) kerrors.Err_t {
	return issueSync(dev, lba, numBlocks, buf, Write)
}

/// Ramdisk is a Device backed entirely by an in-memory buffer.
type Ramdisk struct {
	buf       []byte
	blockSize int
}

/// NewRamdisk wraps buf as a block device with the given block size.
/// len(buf) must be a multiple of blockSize.
func NewRamdisk(buf []byte, blockSize int) *Ramdisk {
	if blockSize <= 0 || len(buf)%blockSize != 0 {
		panic("blockdev: bad ramdisk geometry")
	}
	return &Ramdisk{buf: buf, blockSize: blockSize}
}

func (r *Ramdisk) NumBlocks() uint64 { return uint64(len(r.buf) / r.blockSize) }
func (r *Ramdisk) BlockSize() int    { return r.blockSize }
func (r *Ramdisk) Close() kerrors.Err_t { return 0 }

func (r *Ramdisk) PostRequest(req *Request) {
	workqueue.Schedule(func(data any) {
		r.handle(data.(*Request))
	}, req)
}

func (r *Ramdisk) handle(req *Request) {
	start := req.LBA
	end := start + uint64(req.NumBlocks)
	if end > r.NumBlocks() {
		NotifyComplete(req, kerrors.INVAL)
		return
	}
	off := int(start) * r.blockSize
	size := int(req.NumBlocks) * r.blockSize
	if req.Type == Read {
		copy(req.Buf[:size], r.buf[off:off+size])
	} else {
		copy(r.buf[off:off+size], req.Buf[:size])
	}
	NotifyComplete(req, 0)
}
