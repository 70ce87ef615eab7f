// Package kprintf implements the kernel's minimal formatted-output
// routine over package console.
//
// Grounded on the original kernel's cons_printf: a small format subset
// (%d/%u/%x/%p/%c/%s, optional l length modifier), integer-to-string
// conversion into a fixed-size stack buffer so the hot path never
// allocates, and the whole call wrapped in one atomic region so output
// from two callers (one of them possibly simulated interrupt context)
// cannot interleave mid-message.
package kprintf

import (
	"console"
	"intr"
)

const maxDigits = 40

func utoa(buf *[maxDigits]byte, v uint64) []byte {
	if v == 0 {
		buf[0] = '0'
		return buf[:1]
	}
	i := maxDigits
	for v > 0 {
		i--
		buf[i] = byte(v%10) + '0'
		v /= 10
	}
	return buf[i:]
}

func itoa(buf *[maxDigits]byte, v int64) []byte {
	if v < 0 {
		s := utoa(buf, uint64(-v))
		out := buf[:len(buf)]
		start := maxDigits - len(s) - 1
		out[start] = '-'
		copy(out[start+1:], s)
		return out[start:]
	}
	return utoa(buf, uint64(v))
}

func xtoa(buf *[maxDigits]byte, v uint64) []byte {
	const digits = "0123456789ABCDEF"
	i := maxDigits
	for {
		i--
		buf[i] = digits[v&0xF]
		v >>= 4
		if v == 0 {
			break
		}
	}
	return buf[i:]
}

/// Printf writes a formatted message to the active console. Supported
/// verbs: %d %u %x %p %c %s, with an optional l length modifier on
/// %d/%u/%x meaning the argument is int64/uint64 rather than int/uint.
/// For any other character after %, that character alone is emitted (so
/// %% prints %).
func Printf(format string, args ...any) {
	t := intr.Begin()
	defer intr.End(t)

	var buf [maxDigits]byte
	argi := 0
	next := func() any {
		if argi >= len(args) {
			return nil
		}
		a := args[argi]
		argi++
		return a
	}

	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			console.PutCharLocked(c)
			i++
			continue
		}
		i++
		if i >= len(format) {
			break
		}
		if format[i] == 'l' {
			// length modifier: Go's any-typed args already carry their
			// own width, so this is consumed only for format-string
			// compatibility with the original's %ld/%lu/%lx.
			i++
			if i >= len(format) {
				break
			}
		}

		switch format[i] {
		case 'd':
			console.WriteLocked(string(itoa(&buf, toInt64(next()))))
		case 'u':
			console.WriteLocked(string(utoa(&buf, toUint64(next()))))
		case 'x':
			console.WriteLocked(string(xtoa(&buf, toUint64(next()))))
		case 'p':
			console.WriteLocked(string(xtoa(&buf, toUint64(next()))))
		case 'c':
			console.PutCharLocked(byte(toInt64(next())))
		case 's':
			if s, ok := next().(string); ok {
				console.WriteLocked(s)
			}
		default:
			console.PutCharLocked(format[i])
		}
		i++
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case int32:
		return int64(n)
	}
	return 0
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint:
		return uint64(n)
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case int:
		return uint64(n)
	}
	return 0
}
