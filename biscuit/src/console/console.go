// Package console defines the architecture-polymorphic console
// operation table and tracks the single active console instance.
//
// Grounded on the original kernel's cons.h/cons.c: a console is an
// operation table plus opaque per-implementation state; cons_* wrappers
// dispatch through whichever console was set as the default.
package console

import "intr"

/// Console is a text console implementation.
type Console interface {
	Clear()
	NumRows() int
	NumCols() int
	GetX() int
	GetY() int
	MoveCurs(row, col int)
	PutChar(ch byte)
	Write(s string)
	ClearToEOL()
}

var active Console

/// SetDefault installs c as the console subsequent package-level calls
/// dispatch to. Call once during bootstrap.
func SetDefault(c Console) { active = c }

func Clear()                   { intr.Atomic(func() { active.Clear() }) }
func NumRows() int             { n := 0; intr.Atomic(func() { n = active.NumRows() }); return n }
func NumCols() int             { n := 0; intr.Atomic(func() { n = active.NumCols() }); return n }
func GetX() int                { n := 0; intr.Atomic(func() { n = active.GetX() }); return n }
func GetY() int                { n := 0; intr.Atomic(func() { n = active.GetY() }); return n }
func MoveCurs(row, col int)    { intr.Atomic(func() { active.MoveCurs(row, col) }) }
func PutChar(ch byte)          { intr.Atomic(func() { active.PutChar(ch) }) }
func Write(s string)           { intr.Atomic(func() { active.Write(s) }) }
func ClearToEOL()              { intr.Atomic(func() { active.ClearToEOL() }) }

// PutCharLocked and WriteLocked are the same operations without taking
// the intr region themselves; callers that already hold it (kprintf,
// composing a whole message atomically) must use these instead of the
// wrappers above, which would re-enter intr's non-reentrant mutex.
func PutCharLocked(ch byte) { active.PutChar(ch) }
func WriteLocked(s string)  { active.Write(s) }
