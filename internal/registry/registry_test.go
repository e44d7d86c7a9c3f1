package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop() error { return nil }

func TestFindExactMatch(t *testing.T) {
	reset()
	Register("bench_one", noop)

	e, ok := Find("bench_one")
	require.True(t, ok)
	assert.Equal(t, "bench_one", e.Name)
}

func TestFindSuffixMatch(t *testing.T) {
	reset()
	Register("crate::module::bench_one", noop)

	e, ok := Find("bench_one")
	require.True(t, ok)
	assert.Equal(t, "crate::module::bench_one", e.Name)

	_, ok = Find("module::bench_one")
	assert.True(t, ok)

	_, ok = Find("other")
	assert.False(t, ok)
}

func TestListNamesIsSorted(t *testing.T) {
	reset()
	Register("zeta", noop)
	Register("alpha", noop)
	Register("mu", noop)

	assert.Equal(t, []string{"alpha", "mu", "zeta"}, ListNames())
}

func TestRegisterDuplicatePanics(t *testing.T) {
	reset()
	Register("dup", noop)
	assert.Panics(t, func() { Register("dup", noop) })
}

func TestDiscoverReturnsEveryEntry(t *testing.T) {
	reset()
	Register("a", noop)
	Register("b", noop)

	entries := Discover()
	assert.Len(t, entries, 2)
}
