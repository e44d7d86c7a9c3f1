package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcoin/mobench/internal/types"
)

func TestRunProducesExactSampleCount(t *testing.T) {
	calls := 0
	spec := types.BenchSpec{Name: "x", Iterations: 5, Warmup: 3}
	report, err := Run(spec, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 8, calls)
	assert.Len(t, report.Samples, 5)
	assert.Equal(t, spec, report.Spec)
}

func TestRunRejectsZeroIterationsWithoutInvokingBody(t *testing.T) {
	calls := 0
	spec := types.BenchSpec{Name: "x", Iterations: 0, Warmup: 2}
	report, err := Run(spec, func() error {
		calls++
		return nil
	})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, 0, calls)
}

func TestRunAbortsOnClosureErrorDuringWarmup(t *testing.T) {
	calls := 0
	spec := types.BenchSpec{Name: "x", Iterations: 10, Warmup: 5}
	report, err := Run(spec, func() error {
		calls++
		if calls == 2 {
			return assertErr
		}
		return nil
	})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, 2, calls)
}

func TestRunAbortsOnClosureErrorDuringMeasurement(t *testing.T) {
	calls := 0
	spec := types.BenchSpec{Name: "x", Iterations: 10, Warmup: 0}
	report, err := Run(spec, func() error {
		calls++
		if calls == 4 {
			return assertErr
		}
		return nil
	})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, 4, calls)
}

func TestRunWithSetupPassesFixtureAndRunsTeardownOnce(t *testing.T) {
	teardownCalls := 0
	spec := types.BenchSpec{Name: "x", Iterations: 3, Warmup: 1}
	report, err := RunWithSetup(spec,
		func() (interface{}, error) { return "fixture", nil },
		func(f interface{}) error {
			assert.Equal(t, "fixture", f)
			return nil
		},
		func(f interface{}) error {
			teardownCalls++
			assert.Equal(t, "fixture", f)
			return nil
		},
	)
	require.NoError(t, err)
	assert.Len(t, report.Samples, 3)
	assert.Equal(t, 1, teardownCalls)
}

var assertErr = errSentinel("boom")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
