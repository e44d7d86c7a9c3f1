// Package samplebench registers a couple of demonstration benchmarks,
// used by the list/verify smoke-test paths and as a worked example of the
// registration pattern for anyone writing a real one.
package samplebench

import (
	"strings"

	"github.com/worldcoin/mobench/internal/bench"
)

func init() {
	bench.Register("samplebench::fibonacci", func() error {
		fibonacci(24)
		return nil
	})
	bench.Register("samplebench::string_concat", func() error {
		concat(256)
		return nil
	})
}

func fibonacci(n int) uint64 {
	if n < 2 {
		return uint64(n)
	}
	a, b := uint64(0), uint64(1)
	for i := 2; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

func concat(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("x")
	}
	return b.String()
}
