// Package vfs is a thin inode tree sitting on top of a pfat.FS: it caches
// looked-up children on their parent directory so repeated lookups avoid
// re-reading the PFAT directory page, and hands out refcounted inodes the
// way the rest of this kernel hands out refcounted frames.
//
// Grounded on original_source/src/kernel/vfs.c. Two of that file's bugs
// are fixed here rather than ported: vfs_get_root_dir locked its mutex
// twice in a row with no unlock between (almost certainly meant to be an
// unlock before return), and vfs_lookup_child compared the sought name
// against the directory's own name instead of each candidate child's
// name, which could never match a non-empty directory correctly.
package vfs

import (
	"blockdev"
	"kerrors"
	"ksync"
	"pfat"
)

/// Inode is a cached VFS node: either the root or a previously looked-up
/// child, backed by a PFAT directory entry.
type Inode struct {
	FatIndex uint32
	Name     string
	IsDir    bool

	refs     int
	children []*Inode
}

/// FS is one mounted VFS instance.
type FS struct {
	mu     ksync.Mutex_t
	driver *pfat.FS
	root   *Inode
}

/// Mount opens the PFAT driver on dev and seeds the root inode with a
/// single reference.
func Mount(dev blockdev.Device) (*FS, kerrors.Err_t) {
	driver, rc := pfat.Mount(dev)
	if rc != 0 {
		return nil, rc
	}
	root := &Inode{
		FatIndex: driver.RootFatIndex(),
		Name:     "/",
		IsDir:    true,
		refs:     1,
	}
	return &FS{driver: driver, root: root}, 0
}

/// GetRootDir returns the root inode with its refcount bumped.
func (fs *FS) GetRootDir() *Inode {
	fs.mu.Lock()
	fs.root.refs++
	fs.mu.Unlock()
	return fs.root
}

/// LookupChild returns dir's child named name, refcounted, first checking
/// dir's cache and falling back to the underlying driver (which pages in
/// the directory block through the page-cache) on a miss.
func (fs *FS) LookupChild(dir *Inode, name string) (*Inode, kerrors.Err_t) {
	fs.mu.Lock()
	for _, c := range dir.children {
		if c.Name == name {
			c.refs++
			fs.mu.Unlock()
			return c, 0
		}
	}
	fs.mu.Unlock()

	e, rc := fs.driver.LookupChild(dir.FatIndex, name)
	if rc != 0 {
		return nil, rc
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, c := range dir.children {
		if c.Name == name {
			c.refs++
			return c, 0
		}
	}
	child := &Inode{
		FatIndex: e.FatIndex,
		Name:     e.Name.String(),
		IsDir:    e.IsDir(),
		refs:     1,
	}
	dir.children = append(dir.children, child)
	return child, 0
}

/// PutInode drops a reference taken by GetRootDir or LookupChild.
func (fs *FS) PutInode(ino *Inode) {
	fs.mu.Lock()
	ino.refs--
	fs.mu.Unlock()
}
