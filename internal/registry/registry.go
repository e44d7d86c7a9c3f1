// Package registry holds the process-wide table of registered benchmark
// runners, populated by package init() functions (mobench's analog of a
// proc-macro-driven plugin registration mechanism).
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/timing"
)

// Runner is a benchmark's body closure, invoked by the Timing Harness.
type Runner = timing.Body

// Entry is one registered (name, runner) pair.
type Entry struct {
	Name   string
	Runner Runner
}

var (
	mu      sync.RWMutex
	entries = map[string]Runner{}
)

// Register adds name to the registry. Called from package init()
// functions; panics on duplicate registration since it can only indicate
// a programming error discovered at process startup, before any benchmark
// has run.
func Register(name string, runner Runner) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := entries[name]; exists {
		panic(skerr.Fmt("benchmark %q registered twice", name))
	}
	entries[name] = runner
}

// Discover returns every registered entry, in no particular order.
func Discover() []Entry {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Entry, 0, len(entries))
	for name, runner := range entries {
		out = append(out, Entry{Name: name, Runner: runner})
	}
	return out
}

// Find resolves name by exact match, or by suffix match on "::name" —
// matching a benchmark registered under a longer, module-qualified path.
func Find(name string) (Entry, bool) {
	mu.RLock()
	defer mu.RUnlock()
	if runner, ok := entries[name]; ok {
		return Entry{Name: name, Runner: runner}, true
	}
	suffix := "::" + name
	for n, runner := range entries {
		if strings.HasSuffix(n, suffix) {
			return Entry{Name: n, Runner: runner}, true
		}
	}
	return Entry{}, false
}

// ListNames returns every registered name, sorted for deterministic
// output.
func ListNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reset clears the registry; used only by tests, which otherwise leak
// registrations from one test to the next within the same test binary.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	entries = map[string]Runner{}
}
