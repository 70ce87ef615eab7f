// Package devreg implements the kernel's device registry: a mutex
// protected list of (name, type, object) records, searched by an
// enumeration callback that can stop the scan early.
//
// Grounded on the original kernel's dev.c: register rejects a duplicate
// name, enumerate holds the mutex for the whole scan and lets the
// callback signal "stop" by returning false, and a named lookup is just
// enumerate with a callback that records a match and stops.
package devreg

import (
	"defs"
	"kerrors"
	"ksync"
)

/// Record is one registered device.
type Record struct {
	Name string
	Type int
	Obj  any
}

var (
	mu   ksync.Mutex_t
	list []*Record
)

/// Register adds a device under name. Returns EXIST if the name is
/// already taken.
func Register(typ int, name string, obj any) kerrors.Err_t {
	mu.Lock()
	defer mu.Unlock()
	for _, r := range list {
		if r.Name == name {
			return kerrors.EXIST
		}
	}
	list = append(list, &Record{Name: name, Type: typ, Obj: obj})
	return 0
}

/// Enumerate calls cb for every registered device in registration order,
/// stopping early if cb returns false.
func Enumerate(cb func(typ int, name string, obj any) bool) {
	mu.Lock()
	defer mu.Unlock()
	for _, r := range list {
		if !cb(r.Type, r.Name, r.Obj) {
			return
		}
	}
}

/// Find returns the object registered under (typ, name), or NODEV.
func Find(typ int, name string) (any, kerrors.Err_t) {
	var result any
	found := false
	Enumerate(func(t int, n string, obj any) bool {
		if t == typ && n == name {
			result = obj
			found = true
			return false
		}
		return true
	})
	if !found {
		return nil, kerrors.NODEV
	}
	return result, 0
}

/// RegisterBlockdev registers a block device under name.
func RegisterBlockdev(name string, dev any) kerrors.Err_t {
	return Register(defs.D_RAWDISK, name, dev)
}

/// FindBlockdev looks up a block device previously registered under
/// name.
func FindBlockdev(name string) (any, kerrors.Err_t) {
	return Find(defs.D_RAWDISK, name)
}
