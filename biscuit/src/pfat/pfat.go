// Package pfat reads the PFAT on-disk format: a superblock, a flat FAT
// chain table, and 140-byte directory entries. Write support, multi-
// cluster directory traversal, and anything beyond a directory's first
// cluster are out of scope; this driver exists to give the page-cache a
// realistic caller, not to be a filesystem.
//
// Grounded on the original kernel's pfat.c/pfat.h for the on-disk
// layout: magic 0x77E2EF5A, a FAT region of 32-bit entries (bit 0
// allocated, bits 1-31 next-entry index, 0x7FFFFFFF terminates), and
// 140-byte directory entries scanned linearly for a name match.
// Filenames are normalized with golang.org/x/text/unicode/norm before
// comparison so lookups are not fooled by differing Unicode
// decompositions of the same display name.
package pfat

import (
	"encoding/binary"

	"blkpager"
	"blockdev"
	"kerrors"
	"pagecache"
	"stat"
	"ustr"

	"golang.org/x/text/unicode/norm"
)

const (
	Magic          = 0x77E2EF5A
	superblockSize = 512
	dirEntrySize   = 140
	fatTerminator  = 0x7FFFFFFF
	faAllocatedBit = 1
)

/// Superblock is the PFAT superblock found at LBA 0.
type Superblock struct {
	Magic         uint32
	FatStartLBA   uint32
	FatEntries    uint32
	FirstClusterLBA uint32
	ClusterSize   uint32
	RootFatIndex  uint32
}

func parseSuperblock(buf []byte) (Superblock, kerrors.Err_t) {
	var sb Superblock
	if len(buf) < 24 {
		return sb, kerrors.INVAL
	}
	sb.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if sb.Magic != Magic {
		return sb, kerrors.INVAL
	}
	sb.FatStartLBA = binary.LittleEndian.Uint32(buf[4:8])
	sb.FatEntries = binary.LittleEndian.Uint32(buf[8:12])
	sb.FirstClusterLBA = binary.LittleEndian.Uint32(buf[12:16])
	sb.ClusterSize = binary.LittleEndian.Uint32(buf[16:20])
	sb.RootFatIndex = binary.LittleEndian.Uint32(buf[20:24])
	return sb, 0
}

/// DirEntry is one parsed 140-byte PFAT directory entry.
type DirEntry struct {
	FatIndex uint32
	Bits     uint16
	Perms    uint16
	UID      uint16
	GID      uint16
	Name     ustr.Ustr
}

/// IsDir reports whether the entry names a directory.
func (e DirEntry) IsDir() bool { return e.Bits&1 != 0 }

/// Stat fills out a stat.Stat_t describing this entry, for callers that
/// want file metadata in the kernel's common stat encoding rather than a
/// PFAT-specific struct.
func (e DirEntry) Stat(clusterSize uint32) *stat.Stat_t {
	st := &stat.Stat_t{}
	st.Wino(uint(e.FatIndex))
	st.Wmode(uint(e.Perms))
	st.Wsize(uint(clusterSize))
	st.Wrdev(0)
	return st
}

func parseDirEntry(buf []byte) DirEntry {
	var e DirEntry
	e.FatIndex = binary.LittleEndian.Uint32(buf[0:4])
	e.Bits = binary.LittleEndian.Uint16(buf[4:6])
	e.Perms = binary.LittleEndian.Uint16(buf[6:8])
	e.UID = binary.LittleEndian.Uint16(buf[8:10])
	e.GID = binary.LittleEndian.Uint16(buf[10:12])
	e.Name = ustr.MkUstrSlice(buf[12:140])
	return e
}

/// FS is an open PFAT filesystem instance.
type FS struct {
	dev   blockdev.Device
	sb    Superblock
	fat   []uint32
	cache *pagecache.Cache
}

/// Mount reads and validates the superblock on dev, loads the FAT table,
/// and sets up a page-cache over the cluster region for directory/data
/// reads.
func Mount(dev blockdev.Device) (*FS, kerrors.Err_t) {
	sbBuf := make([]byte, superblockSize)
	if rc := blockdev.ReadSync(dev, 0, blocksFor(dev, superblockSize), sbBuf); rc != 0 {
		return nil, rc
	}
	sb, rc := parseSuperblock(sbBuf)
	if rc != 0 {
		return nil, rc
	}

	fatBytes := int(sb.FatEntries) * 4
	fatBuf := make([]byte, roundUp(fatBytes, dev.BlockSize()))
	fatLBA := uint64(sb.FatStartLBA)
	fatNumBlocks := uint(len(fatBuf) / dev.BlockSize())
	if rc := blockdev.ReadSync(dev, fatLBA, fatNumBlocks, fatBuf); rc != 0 {
		return nil, rc
	}
	fat := make([]uint32, sb.FatEntries)
	for i := range fat {
		fat[i] = binary.LittleEndian.Uint32(fatBuf[i*4 : i*4+4])
	}

	clusterBlocks := uint64(sb.ClusterSize) / uint64(dev.BlockSize())
	pager, rc := blkpager.New(dev, uint64(sb.FirstClusterLBA), clusterBlocks*uint64(sb.FatEntries))
	if rc != 0 {
		return nil, rc
	}

	return &FS{dev: dev, sb: sb, fat: fat, cache: pagecache.New(pager)}, 0
}

func blocksFor(dev blockdev.Device, nbytes int) uint {
	return uint(roundUp(nbytes, dev.BlockSize()) / dev.BlockSize())
}

func roundUp(n, align int) int {
	if n%align == 0 {
		return n
	}
	return n + (align - n%align)
}

/// Next returns the next FAT entry's index following idx, or false at a
/// chain terminator.
func (fs *FS) Next(idx uint32) (uint32, bool) {
	entry := fs.fat[idx]
	if entry == fatTerminator {
		return 0, false
	}
	return entry >> 1, entry&faAllocatedBit != 0
}

/// ReadDir pages in the directory cluster at fatIndex's first page and
/// returns its parsed entries.
func (fs *FS) ReadDir(fatIndex uint32) ([]DirEntry, kerrors.Err_t) {
	f, rc := fs.cache.LockPage(fatIndex)
	if rc != 0 {
		return nil, rc
	}
	defer fs.cache.UnlockPage(f)

	var entries []DirEntry
	buf := f.Bytes[:]
	for off := 0; off+dirEntrySize <= len(buf); off += dirEntrySize {
		chunk := buf[off : off+dirEntrySize]
		if chunk[0] == 0 && chunk[1] == 0 && chunk[2] == 0 && chunk[3] == 0 {
			continue
		}
		entries = append(entries, parseDirEntry(chunk))
	}
	return entries, 0
}

/// LookupChild scans dir's entries (paged in via fatIndex) for name,
/// comparing Unicode-normalized filenames so differing decompositions of
/// the same name still match.
func (fs *FS) LookupChild(fatIndex uint32, name string) (DirEntry, kerrors.Err_t) {
	entries, rc := fs.ReadDir(fatIndex)
	if rc != 0 {
		return DirEntry{}, rc
	}
	wantNorm := norm.NFC.String(name)
	for _, e := range entries {
		if norm.NFC.String(e.Name.String()) == wantNorm {
			return e, 0
		}
	}
	return DirEntry{}, kerrors.INVAL
}

/// RootFatIndex returns the FAT index of the root directory's first
/// cluster.
func (fs *FS) RootFatIndex() uint32 { return fs.sb.RootFatIndex }
