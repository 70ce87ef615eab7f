// Program ifacecheck verifies that the concrete types this kernel
// registers against an interface (a blockdev.Device, a pagecache.Pager,
// a console.Console) actually satisfy it, as a compile-time-adjacent
// sanity check run out-of-band rather than at kernel runtime.
//
// Grounded on the teacher's misc/depgraph/main.go: a single-purpose host
// tool living under misc/, not part of the kernel build itself. Where
// depgraph shells out to `go mod graph`, this tool loads the module's own
// packages with golang.org/x/tools/go/packages and inspects their types
// directly.
package main

import (
	"fmt"
	"go/types"
	"os"

	"golang.org/x/tools/go/packages"
)

// binding names one (concrete type, interface) pair to check, expressed
// as fully-qualified identifiers: "pkgpath.TypeName".
type binding struct {
	impl  string
	iface string
}

var bindings = []binding{
	{"blockdev.Ramdisk", "blockdev.Device"},
	{"blockdev.Filedisk", "blockdev.Device"},
	{"blkpager.Pager", "pagecache.Pager"},
	{"console.MemCons", "console.Console"},
}

func main() {
	pkgPaths := map[string]bool{}
	for _, b := range bindings {
		pkgPaths[pkgOf(b.impl)] = true
		pkgPaths[pkgOf(b.iface)] = true
	}
	patterns := make([]string, 0, len(pkgPaths))
	for p := range pkgPaths {
		patterns = append(patterns, p)
	}

	cfg := &packages.Config{Mode: packages.NeedTypes | packages.NeedTypesInfo | packages.NeedName | packages.NeedDeps}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ifacecheck: load failed:", err)
		os.Exit(1)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}

	byPath := map[string]*packages.Package{}
	for _, p := range pkgs {
		byPath[p.PkgPath] = p
	}

	failed := false
	for _, b := range bindings {
		ok, msg := check(byPath, b)
		if !ok {
			failed = true
			fmt.Fprintf(os.Stderr, "ifacecheck: %s does not satisfy %s: %s\n", b.impl, b.iface, msg)
			continue
		}
		fmt.Printf("ifacecheck: %s satisfies %s\n", b.impl, b.iface)
	}
	if failed {
		os.Exit(1)
	}
}

func pkgOf(qualified string) string {
	i := lastDot(qualified)
	return qualified[:i]
}

func nameOf(qualified string) string {
	i := lastDot(qualified)
	return qualified[i+1:]
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	panic("ifacecheck: expected a pkg.Name identifier, got " + s)
}

func check(byPath map[string]*packages.Package, b binding) (bool, string) {
	implPkg, ok := byPath[pkgOf(b.impl)]
	if !ok {
		return false, "package not found: " + pkgOf(b.impl)
	}
	ifacePkg, ok := byPath[pkgOf(b.iface)]
	if !ok {
		return false, "package not found: " + pkgOf(b.iface)
	}

	implObj := implPkg.Types.Scope().Lookup(nameOf(b.impl))
	if implObj == nil {
		return false, "type not found: " + b.impl
	}
	ifaceObj := ifacePkg.Types.Scope().Lookup(nameOf(b.iface))
	if ifaceObj == nil {
		return false, "type not found: " + b.iface
	}
	ifaceType, ok := ifaceObj.Type().Underlying().(*types.Interface)
	if !ok {
		return false, b.iface + " is not an interface"
	}

	implType := implObj.Type()
	if types.Implements(implType, ifaceType) {
		return true, ""
	}
	// Value-receiver methods are promoted to *T; retry against the
	// pointer type before reporting failure.
	ptrType := types.NewPointer(implType)
	if types.Implements(ptrType, ifaceType) {
		return true, ""
	}
	return false, "neither " + b.impl + " nor *" + b.impl + " implements it"
}
