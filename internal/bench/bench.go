// Package bench is the surface a benchmark source file imports to
// register itself: a single Register call in a package init(), the Go
// equivalent of the attribute-macro registration the original toolchain
// used. Kept distinct from internal/registry so benchmark authors depend
// on a small, stable surface rather than the registry's storage details.
package bench

import "github.com/worldcoin/mobench/internal/registry"

// Func is the body of one benchmark iteration.
type Func = registry.Runner

// Register adds name to the process-wide benchmark registry. Call it from
// a package init() so the benchmark is discoverable before main() runs.
func Register(name string, fn Func) {
	registry.Register(name, fn)
}
