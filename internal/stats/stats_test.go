package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeOddCount(t *testing.T) {
	s := Compute([]uint64{30, 10, 20})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, uint64(20), s.MeanNs)
	assert.Equal(t, float64(20), s.MedianNs)
	assert.Equal(t, uint64(10), s.MinNs)
	assert.Equal(t, uint64(30), s.MaxNs)
}

func TestComputeEvenCountMediansAverage(t *testing.T) {
	s := Compute([]uint64{10, 20, 30, 40})
	assert.Equal(t, float64(25), s.MedianNs)
}

func TestComputeOrderingInvariant(t *testing.T) {
	for _, samples := range [][]uint64{
		{1},
		{5, 1, 3, 2, 4},
		{100, 100, 100},
		{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 1000},
	} {
		s := Compute(samples)
		assert.LessOrEqual(t, s.MinNs, uint64(s.MedianNs))
		assert.LessOrEqual(t, uint64(s.MedianNs), s.P95Ns)
		assert.LessOrEqual(t, s.P95Ns, s.MaxNs)
		assert.GreaterOrEqual(t, s.MeanNs, s.MinNs)
		assert.LessOrEqual(t, s.MeanNs, s.MaxNs)
	}
}

func TestP95IndexNeverExceedsLastIndex(t *testing.T) {
	for n := 1; n <= 50; n++ {
		samples := make([]uint64, n)
		for i := range samples {
			samples[i] = uint64(i + 1)
		}
		s := Compute(samples)
		assert.LessOrEqual(t, s.P95Ns, samples[n-1])
	}
}

func TestHumanDurationSwitchesUnitsAtOneSecond(t *testing.T) {
	assert.Equal(t, "999.000ms", HumanDuration(999_000_000))
	assert.Equal(t, "1.000s", HumanDuration(1_000_000_000))
	assert.Equal(t, "1.500s", HumanDuration(1_500_000_000))
	assert.Equal(t, "0.500ms", HumanDuration(500_000))
}
