// Package kstats implements the profiling device backing defs.D_PROF:
// a per-thread registry of accounting info and distinct call sites,
// snapshotted on demand into a github.com/google/pprof/profile.Profile
// so the numbers can be inspected with standard pprof tooling instead of
// a bespoke dump format.
//
// Grounded on the teacher's caller.Distinct_caller_t (deduplicating call
// chains by runtime.Callers/CallersFrames) and hashtable.Hashtable_t
// (the registry, keyed by thread id, carried over unchanged from the
// teacher). The time breakdown each sample reports is what RecordTime has
// accumulated for that thread; thread.Thread's accnt.Accnt_t is not read
// here.
package kstats

import (
	"time"

	"caller"
	"hashtable"

	"github.com/google/pprof/profile"
)

/// Entry is one thread's tracked statistics.
type Entry struct {
	ThreadID int
	Name     string
	Sites    caller.Distinct_caller_t
	UserNs   int64
	SysNs    int64
}

var registry = hashtable.MkHash(64)

/// Register adds a tracked entry for threadID with call-site dedup
/// enabled.
func Register(threadID int, name string) *Entry {
	e := &Entry{ThreadID: threadID, Name: name}
	e.Sites.Enabled = true
	registry.Set(threadID, e)
	return e
}

/// Unregister removes threadID from the registry.
func Unregister(threadID int) {
	registry.Del(threadID)
}

/// Lookup returns the entry for threadID, if any.
func Lookup(threadID int) (*Entry, bool) {
	v, ok := registry.Get(threadID)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

/// RecordSite notes the caller's current call chain against threadID's
/// distinct-site set, a no-op if that chain was already seen.
func RecordSite(threadID int) {
	if e, ok := Lookup(threadID); ok {
		e.Sites.Distinct()
	}
}

/// RecordTime adds userNs/sysNs to threadID's accounted time.
func RecordTime(threadID int, userNs, sysNs int64) {
	if e, ok := Lookup(threadID); ok {
		e.UserNs += userNs
		e.SysNs += sysNs
	}
}

// Snapshot renders the current registry as a pprof profile: one sample
// per tracked thread, value[0] = distinct call-site count, value[1] =
// accounted user nanoseconds, value[2] = accounted system nanoseconds.
func Snapshot() *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "sites", Unit: "count"},
			{Type: "user", Unit: "nanoseconds"},
			{Type: "sys", Unit: "nanoseconds"},
		},
		TimeNanos: time.Now().UnixNano(),
	}

	var nextFnID uint64 = 1
	fnByName := map[string]*profile.Function{}

	registry.Iter(func(key, value any) bool {
		e := value.(*Entry)

		fn, ok := fnByName[e.Name]
		if !ok {
			fn = &profile.Function{ID: nextFnID, Name: e.Name}
			nextFnID++
			fnByName[e.Name] = fn
			p.Function = append(p.Function, fn)
		}

		loc := &profile.Location{
			ID:   uint64(len(p.Location)) + 1,
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, loc)

		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{int64(e.Sites.Len()), e.UserNs, e.SysNs},
		})
		return false
	})

	return p
}
