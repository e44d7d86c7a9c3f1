// Package timing runs a benchmark closure through a warmup/measure loop
// and produces a BenchReport, the one place in mobench that actually
// calls into benchmark code.
package timing

import (
	"time"

	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/types"
)

// Body is the closure a Run invokes once per iteration. An error aborts
// the run immediately; no partial report is returned.
type Body func() error

// Setup produces a value passed to each measured iteration; it is never
// timed.
type Setup func() (interface{}, error)

// Teardown is invoked once, after all measured iterations complete; it is
// never timed.
type Teardown func(interface{}) error

// IterBody is a per-iteration body that receives the value Setup
// produced; the same value is passed to every iteration.
type IterBody func(interface{}) error

// Run executes spec.Warmup untimed iterations followed by spec.Iterations
// timed iterations of body, returning a BenchReport with exactly
// spec.Iterations samples. Returns an error and no report if
// spec.Iterations is zero, or if body returns an error at any point
// (including during warmup).
func Run(spec types.BenchSpec, body Body) (*types.BenchReport, error) {
	return RunWithSetup(spec, nil, func(interface{}) error { return body() }, nil)
}

// RunWithSetup is the general form: setup (optional) runs once before the
// whole warmup+measure sequence and its result is passed to every
// iteration; teardown (optional) runs once after the whole sequence
// completes successfully. There is no per-iteration setup mode: setup
// runs only once, and any setup work done inside body is timed as part
// of the iteration.
func RunWithSetup(spec types.BenchSpec, setup Setup, body IterBody, teardown Teardown) (*types.BenchReport, error) {
	if spec.Iterations == 0 {
		return nil, skerr.Fmt("iterations must be greater than zero")
	}

	var fixture interface{}
	if setup != nil {
		f, err := setup()
		if err != nil {
			return nil, skerr.Wrapf(err, "benchmark setup failed")
		}
		fixture = f
	}

	for i := uint32(0); i < spec.Warmup; i++ {
		if err := body(fixture); err != nil {
			return nil, skerr.Wrapf(err, "benchmark warmup iteration %d failed", i)
		}
	}

	samples := make([]types.BenchSample, 0, spec.Iterations)
	for i := uint32(0); i < spec.Iterations; i++ {
		start := time.Now()
		if err := body(fixture); err != nil {
			return nil, skerr.Wrapf(err, "benchmark iteration %d failed", i)
		}
		elapsed := time.Since(start)
		samples = append(samples, types.BenchSample{DurationNs: uint64(elapsed.Nanoseconds())})
	}

	if teardown != nil {
		if err := teardown(fixture); err != nil {
			return nil, skerr.Wrapf(err, "benchmark teardown failed")
		}
	}

	return &types.BenchReport{Spec: spec, Samples: samples}, nil
}
