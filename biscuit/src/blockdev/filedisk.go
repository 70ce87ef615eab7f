package blockdev

import (
	"os"

	"kerrors"
	"workqueue"
)

/// Filedisk is a Device backed by a regular host file, standing in for
/// the disk-image-backed driver a hosted kernel build uses in place of
/// real disk hardware.
type Filedisk struct {
	f         *os.File
	blockSize int
	nblocks   uint64
}

/// OpenFiledisk opens path as a block device with the given block size.
/// The file's size must be a multiple of blockSize.
func OpenFiledisk(path string, blockSize int) (*Filedisk, kerrors.Err_t) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, kerrors.IO
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, kerrors.IO
	}
	if blockSize <= 0 || fi.Size()%int64(blockSize) != 0 {
		f.Close()
		return nil, kerrors.INVAL
	}
	return &Filedisk{f: f, blockSize: blockSize, nblocks: uint64(fi.Size()) / uint64(blockSize)}, 0
}

func (d *Filedisk) NumBlocks() uint64 { return d.nblocks }
func (d *Filedisk) BlockSize() int    { return d.blockSize }

func (d *Filedisk) Close() kerrors.Err_t {
	if d.f.Close() != nil {
		return kerrors.IO
	}
	return 0
}

func (d *Filedisk) PostRequest(req *Request) {
	workqueue.Schedule(func(data any) {
		d.handle(data.(*Request))
	}, req)
}

func (d *Filedisk) handle(req *Request) {
	end := req.LBA + uint64(req.NumBlocks)
	if end > d.nblocks {
		NotifyComplete(req, kerrors.INVAL)
		return
	}
	off := int64(req.LBA) * int64(d.blockSize)
	size := int(req.NumBlocks) * d.blockSize
	var err error
	if req.Type == Read {
		_, err = d.f.ReadAt(req.Buf[:size], off)
	} else {
		_, err = d.f.WriteAt(req.Buf[:size], off)
	}
	if err != nil {
		NotifyComplete(req, kerrors.IO)
		return
	}
	NotifyComplete(req, 0)
}
