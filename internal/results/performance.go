package results

import (
	"encoding/json"
	"strings"

	"github.com/worldcoin/mobench/internal/types"
)

type rawSnapshot struct {
	Type        string          `json:"type"`
	TimestampMs *int64          `json:"timestamp_ms"`
	TimestampMs2 *int64         `json:"timestampMs"`
	Memory      json.RawMessage `json:"memory"`
	CPU         json.RawMessage `json:"cpu"`
}

type rawMemory struct {
	UsedMB       *float64 `json:"used_mb"`
	UsedMB2      *float64 `json:"usedMb"`
	MaxMB        *float64 `json:"max_mb"`
	MaxMB2       *float64 `json:"maxMb"`
	AvailableMB  *float64 `json:"available_mb"`
	AvailableMB2 *float64 `json:"availableMb"`
	TotalMB      *float64 `json:"total_mb"`
	TotalMB2     *float64 `json:"totalMb"`
}

type rawCPU struct {
	UsagePercent  *float64 `json:"usage_percent"`
	UsagePercent2 *float64 `json:"usagePercent"`
}

// ExtractPerformanceSnapshots scans every line of log for a JSON object
// that looks like a performance sample (a "type":"performance" tag, or a
// bare memory/cpu field) and parses the ones that are valid JSON. Lines
// that aren't valid JSON, or that don't carry a memory/cpu/type field, are
// silently skipped.
func ExtractPerformanceSnapshots(log string) []types.PerformanceSnapshot {
	var out []types.PerformanceSnapshot
	for _, line := range strings.Split(log, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(strings.TrimSpace(line)))
		start := strings.Index(trimmed, "{")
		if start == -1 {
			continue
		}
		candidate, ok := BraceBalanced(trimmed[start:])
		if !ok {
			continue
		}
		var raw rawSnapshot
		if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
			continue
		}
		if raw.Type != "performance" && raw.Memory == nil && raw.CPU == nil {
			continue
		}
		out = append(out, raw.toSnapshot())
	}
	return out
}

func (r rawSnapshot) toSnapshot() types.PerformanceSnapshot {
	snap := types.PerformanceSnapshot{TimestampMs: coalesceInt(r.TimestampMs, r.TimestampMs2)}
	if len(r.Memory) > 0 {
		var m rawMemory
		if err := json.Unmarshal(r.Memory, &m); err == nil {
			snap.Memory = &types.MemoryMetrics{
				UsedMB:      coalesceFloat(m.UsedMB, m.UsedMB2),
				MaxMB:       coalesceFloat(m.MaxMB, m.MaxMB2),
				AvailableMB: coalesceFloat(m.AvailableMB, m.AvailableMB2),
				TotalMB:     coalesceFloat(m.TotalMB, m.TotalMB2),
			}
		}
	}
	if len(r.CPU) > 0 {
		var c rawCPU
		if err := json.Unmarshal(r.CPU, &c); err == nil {
			snap.CPU = &types.CPUMetrics{UsagePercent: coalesceFloat(c.UsagePercent, c.UsagePercent2)}
		}
	}
	return snap
}

func coalesceInt(a, b *int64) *int64 {
	if a != nil {
		return a
	}
	return b
}

func coalesceFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

// AggregatePerformance reduces a set of snapshots into PerformanceMetrics,
// computing peak/avg/min over whichever snapshots carried each field.
func AggregatePerformance(snapshots []types.PerformanceSnapshot) types.PerformanceMetrics {
	metrics := types.PerformanceMetrics{SampleCount: len(snapshots), Snapshots: snapshots}

	var memVals []float64
	var cpuVals []float64
	for _, s := range snapshots {
		if s.Memory != nil && s.Memory.UsedMB != nil {
			memVals = append(memVals, *s.Memory.UsedMB)
		}
		if s.CPU != nil && s.CPU.UsagePercent != nil {
			cpuVals = append(cpuVals, *s.CPU.UsagePercent)
		}
	}
	if len(memVals) > 0 {
		metrics.Memory = &types.AggregateMemoryMetrics{
			PeakMB: maxOf(memVals),
			AvgMB:  avgOf(memVals),
			MinMB:  minOf(memVals),
		}
	}
	if len(cpuVals) > 0 {
		metrics.CPU = &types.AggregateCPUMetrics{
			PeakPercent: maxOf(cpuVals),
			AvgPercent:  avgOf(cpuVals),
			MinPercent:  minOf(cpuVals),
		}
	}
	return metrics
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func avgOf(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
