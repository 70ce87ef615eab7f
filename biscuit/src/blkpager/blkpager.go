// Package blkpager adapts a block device plus an LBA window to the
// pagecache.Pager interface.
//
// Grounded on the original kernel's blockdev_pager.c: a logical page
// number maps to an LBA range within the window, clipped at the window's
// end for a ragged final page, and the actual transfer is a synchronous
// blockdev read/write.
package blkpager

import (
	"blockdev"
	"frame"
	"kerrors"
)

/// Pager adapts dev's [start, start+numBlocks) window to one logical
/// page per blocksPerPage consecutive LBAs.
type Pager struct {
	dev           blockdev.Device
	start         uint64
	numBlocks     uint64
	blocksPerPage uint64
}

/// New validates the window against dev's geometry and the page size,
/// returning a Pager ready for use with pagecache.New.
func New(dev blockdev.Device, start uint64, numBlocks uint64) (*Pager, kerrors.Err_t) {
	blockSize := dev.BlockSize()
	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		return nil, kerrors.INVAL
	}
	if blockSize > frame.PageSize {
		return nil, kerrors.INVAL
	}
	if start+numBlocks > dev.NumBlocks() || start+numBlocks < start {
		return nil, kerrors.INVAL
	}
	return &Pager{
		dev:           dev,
		start:         start,
		numBlocks:     numBlocks,
		blocksPerPage: uint64(frame.PageSize / blockSize),
	}, 0
}

func (p *Pager) ioRange(pageNum uint32) (ioStart, ioEnd uint64) {
	ioStart = p.start + uint64(pageNum)*p.blocksPerPage
	ioEnd = ioStart + p.blocksPerPage
	rangeEnd := p.start + p.numBlocks
	if rangeEnd < ioEnd {
		ioEnd = rangeEnd
	}
	return
}

/// ReadPage reads the blocks backing pageNum into buf.
func (p *Pager) ReadPage(pageNum uint32, buf []byte) kerrors.Err_t {
	ioStart, ioEnd := p.ioRange(pageNum)
	return blockdev.ReadSync(p.dev, ioStart, uint(ioEnd-ioStart), buf)
}

/// WritePage writes buf out to the blocks backing pageNum.
func (p *Pager) WritePage(pageNum uint32, buf []byte) kerrors.Err_t {
	ioStart, ioEnd := p.ioRange(pageNum)
	return blockdev.WriteSync(p.dev, ioStart, uint(ioEnd-ioStart), buf)
}
