// Package boot holds the loader-provided boot information record. It is
// read by cmd/kernel's Bootstrap, which reports its usable-memory total
// once the other subsystems are up.
package boot

/// MemRange describes one entry of the memory map the loader discovered,
/// in bytes.
type MemRange struct {
	Base   uint64
	Length uint64
	Usable bool
}

/// Module describes one boot module the loader placed in memory (e.g. an
/// initial ramdisk image), as a physical address range plus a command
/// line string.
type Module struct {
	Start uint64
	End   uint64
	Cmd   string
}

const (
	FlagMemInfo  = 1 << 0
	FlagMmap     = 1 << 6
	FlagModules  = 1 << 3
	FlagCmdLine  = 1 << 2
)

/// Info is the boot-time information record, a plain-struct stand-in for
/// the loader's multiboot info table. Bootstrap takes one of these; no
/// loader magic word is passed or checked.
type Info struct {
	Flags uint32

	MemLowerKB uint32
	MemUpperKB uint32

	Mmap []MemRange

	Modules []Module

	CmdLine string
}

/// HasMemInfo reports whether MemLowerKB/MemUpperKB are valid.
func (i *Info) HasMemInfo() bool { return i.Flags&FlagMemInfo != 0 }

/// HasMmap reports whether Mmap is populated.
func (i *Info) HasMmap() bool { return i.Flags&FlagMmap != 0 }

/// HasModules reports whether Modules is populated.
func (i *Info) HasModules() bool { return i.Flags&FlagModules != 0 }

/// TotalUsableBytes sums the usable ranges in Mmap, falling back to
/// MemLowerKB+MemUpperKB if no memory map was provided.
func (i *Info) TotalUsableBytes() uint64 {
	if i.HasMmap() {
		var total uint64
		for _, r := range i.Mmap {
			if r.Usable {
				total += r.Length
			}
		}
		return total
	}
	return uint64(i.MemLowerKB+i.MemUpperKB) * 1024
}
