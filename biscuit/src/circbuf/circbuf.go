// Package circbuf implements a small fixed-size byte ring buffer.
//
// This is a trimmed descendant of a page-backed I/O staging buffer: the
// physical-page backing and userspace copyin/copyout plumbing are gone
// (there is no MMU and no user mode in this kernel), but the head/tail
// modular arithmetic is unchanged.
package circbuf

import "kerrors"

/// Circbuf_t is a fixed-capacity ring buffer. It is not safe for
/// concurrent use; callers serialize access externally (see keyboard).
type Circbuf_t struct {
	Buf   []uint8 /// backing storage, length == bufsz
	bufsz int     /// capacity in bytes
	head  int     /// write position, monotonically increasing
	tail  int     /// read position, monotonically increasing
}

/// Cb_init allocates a backing buffer of the given size.
func (cb *Circbuf_t) Cb_init(sz int) kerrors.Err_t {
	if sz <= 0 {
		panic("bad circbuf size")
	}
	cb.Buf = make([]uint8, sz)
	cb.bufsz = sz
	cb.head, cb.tail = 0, 0
	return 0
}

/// Bufsz returns the configured buffer size.
func (cb *Circbuf_t) Bufsz() int {
	return cb.bufsz
}

/// Full returns true when the buffer cannot accept more data.
func (cb *Circbuf_t) Full() bool {
	return cb.head-cb.tail == cb.bufsz
}

/// Empty reports whether the buffer contains any data.
func (cb *Circbuf_t) Empty() bool {
	return cb.head == cb.tail
}

/// Left returns the remaining capacity in bytes.
func (cb *Circbuf_t) Left() int {
	return cb.bufsz - (cb.head - cb.tail)
}

/// Used returns the current number of bytes in the buffer.
func (cb *Circbuf_t) Used() int {
	return cb.head - cb.tail
}

/// WriteByte appends one byte. It panics if the buffer is full; callers
/// check Full() first.
func (cb *Circbuf_t) WriteByte(b uint8) {
	if cb.Full() {
		panic("circbuf full")
	}
	cb.Buf[cb.head%cb.bufsz] = b
	cb.head++
}

/// ReadByte removes and returns the oldest byte. It panics if the buffer
/// is empty; callers check Empty() first.
func (cb *Circbuf_t) ReadByte() uint8 {
	if cb.Empty() {
		panic("circbuf empty")
	}
	b := cb.Buf[cb.tail%cb.bufsz]
	cb.tail++
	return b
}

/// Advhead advances the head index by sz bytes, for data the caller has
/// written directly into Buf.
func (cb *Circbuf_t) Advhead(sz int) {
	if cb.Left() < sz {
		panic("advancing full cb")
	}
	cb.head += sz
}

/// Advtail advances the tail index after data has been consumed.
func (cb *Circbuf_t) Advtail(sz int) {
	if sz != 0 && cb.Used() < sz {
		panic("advancing empty cb")
	}
	cb.tail += sz
}
