// Package stats computes the summary statistics mobench reports for a
// sequence of nanosecond durations, and formats durations for humans.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/worldcoin/mobench/internal/types"
)

// Compute returns count/mean/median/p95/min/max over samples. Compute
// panics on an empty slice; callers must not invoke it for a device/function
// pair with zero samples.
func Compute(samples []uint64) types.Stats {
	if len(samples) == 0 {
		panic("stats.Compute called with no samples")
	}
	sorted := append([]uint64(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return types.Stats{
		Count:    len(sorted),
		MeanNs:   mean(sorted),
		MedianNs: median(sorted),
		P95Ns:    p95(sorted),
		MinNs:    sorted[0],
		MaxNs:    sorted[len(sorted)-1],
	}
}

func mean(sorted []uint64) uint64 {
	var sum uint64
	// sum fits comfortably in uint64 for any realistic sample set (even
	// millions of multi-second durations), so no wider type is needed here.
	for _, v := range sorted {
		sum += v
	}
	return sum / uint64(len(sorted))
}

func median(sorted []uint64) float64 {
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

func p95(sorted []uint64) uint64 {
	n := len(sorted)
	idx := int(math.Ceil(0.95*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// HumanDuration renders a nanosecond duration as milliseconds below one
// second, seconds at or above, always with three-decimal precision.
func HumanDuration(ns float64) string {
	ms := ns / 1e6
	if ms < 1000 {
		return fmt.Sprintf("%.3fms", ms)
	}
	return fmt.Sprintf("%.3fs", ms/1000)
}

// SamplesFromDurations extracts raw nanosecond values from a BenchReport's
// samples, for feeding into Compute.
func SamplesFromDurations(samples []types.BenchSample) []uint64 {
	out := make([]uint64, len(samples))
	for i, s := range samples {
		out[i] = s.DurationNs
	}
	return out
}
