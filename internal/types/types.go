// Package types holds the value types shared across mobench's packages:
// benchmark specs and reports, build configuration and results, device-farm
// wire shapes, and the aggregated summaries produced at the end of a run.
package types

import (
	"encoding/json"
	"time"
)

// Target selects which mobile platform(s) a build or run targets.
type Target string

const (
	TargetAndroid Target = "android"
	TargetIOS     Target = "ios"
	TargetBoth    Target = "both"
)

// Profile selects a build's optimization level.
type Profile string

const (
	ProfileDebug   Profile = "debug"
	ProfileRelease Profile = "release"
)

// BenchSpec is the configuration for one benchmark run: which function to
// invoke and how many times.
type BenchSpec struct {
	Name       string `json:"name"`
	Iterations uint32 `json:"iterations"`
	Warmup     uint32 `json:"warmup"`
}

// BenchSample is the measured duration of one iteration. It unmarshals
// from either {"duration_ns": N} or a bare JSON number, since both shapes
// appear in the wild depending on which BenchReport serializer produced
// the log line.
type BenchSample struct {
	DurationNs uint64 `json:"duration_ns"`
}

func (s *BenchSample) UnmarshalJSON(data []byte) error {
	var asNumber uint64
	if err := json.Unmarshal(data, &asNumber); err == nil {
		s.DurationNs = asNumber
		return nil
	}
	type alias BenchSample
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = BenchSample(a)
	return nil
}

// BenchReport is the complete result of running a BenchSpec: the spec used
// plus every sample, in execution order.
type BenchReport struct {
	Spec    BenchSpec     `json:"spec"`
	Samples []BenchSample `json:"samples"`
}

// BenchMeta is the build-provenance record embedded alongside a BenchSpec
// inside the mobile app bundles, so the on-device runner can report what
// produced the binary it's running.
type BenchMeta struct {
	Spec           BenchSpec `json:"spec"`
	GitCommit      string    `json:"git_commit,omitempty"`
	GitBranch      string    `json:"git_branch,omitempty"`
	GitDirty       *bool     `json:"git_dirty,omitempty"`
	BuildTime      string    `json:"build_time"`
	BuildTimeUnix  int64     `json:"build_time_unix"`
	Target         Target    `json:"target"`
	Profile        Profile   `json:"profile"`
	ToolVersion    string    `json:"tool_version"`
	RustVersion    string    `json:"rust_version,omitempty"`
	HostOS         string    `json:"host_os"`
}

// BuildConfig is the input to a Platform Builder.
type BuildConfig struct {
	Target      Target
	Profile     Profile
	Incremental bool
	DryRun      bool
	CratePath   string
	OutputDir   string
}

// BuildResult is the output of a Platform Builder: the app artifact and,
// when one was produced, the UI-test runner artifact.
type BuildResult struct {
	Platform      Target
	AppPath       string
	TestSuitePath string
}

// DeviceSpec identifies one device as the device farm understands it, e.g.
// "Google Pixel 7-13.0".
type DeviceSpec struct {
	Raw      string
	Model    string
	OS       string
	OSVer    string
	Tags     []string
}

// ScheduledRun is returned once a build has been scheduled on the device
// farm; it's the handle used for polling and fetching.
type ScheduledRun struct {
	BuildID  string
	Platform Target
}

// BuildStatus is the state of a scheduled run as reported by the device
// farm, retrieved repeatedly while polling.
type BuildStatus struct {
	BuildID string
	Status  string
	Devices []DeviceSession
}

var terminalStatuses = map[string]bool{
	"done": true, "passed": true, "completed": true,
	"failed": true, "error": true, "timeout": true,
}

// IsTerminal reports whether status is one of the terminal states that ends
// the polling loop.
func IsTerminal(status string) bool { return terminalStatuses[status] }

var failedStatuses = map[string]bool{"failed": true, "error": true, "timeout": true}

// IsFailed reports whether status is a terminal failure state.
func IsFailed(status string) bool { return failedStatuses[status] }

// DeviceSession is one device's participation in a scheduled run.
type DeviceSession struct {
	Device    string
	SessionID string
	Status    string
	LogURL    string
}

// MemoryMetrics is a memory snapshot, expressed in megabytes.
type MemoryMetrics struct {
	UsedMB      *float64 `json:"used_mb,omitempty"`
	MaxMB       *float64 `json:"max_mb,omitempty"`
	AvailableMB *float64 `json:"available_mb,omitempty"`
	TotalMB     *float64 `json:"total_mb,omitempty"`
}

// CPUMetrics is a CPU snapshot.
type CPUMetrics struct {
	UsagePercent *float64 `json:"usage_percent,omitempty"`
}

// PerformanceSnapshot is one point-in-time performance sample parsed from a
// device log line.
type PerformanceSnapshot struct {
	TimestampMs *int64         `json:"timestamp_ms,omitempty"`
	Memory      *MemoryMetrics `json:"memory,omitempty"`
	CPU         *CPUMetrics    `json:"cpu,omitempty"`
}

// AggregateMemoryMetrics summarizes memory usage across every snapshot that
// carried a memory field.
type AggregateMemoryMetrics struct {
	PeakMB float64 `json:"peak_mb"`
	AvgMB  float64 `json:"avg_mb"`
	MinMB  float64 `json:"min_mb"`
}

// AggregateCPUMetrics summarizes CPU usage across every snapshot that
// carried a cpu field.
type AggregateCPUMetrics struct {
	PeakPercent float64 `json:"peak_percent"`
	AvgPercent  float64 `json:"avg_percent"`
	MinPercent  float64 `json:"min_percent"`
}

// PerformanceMetrics is the aggregated view over a set of snapshots fetched
// for one device.
type PerformanceMetrics struct {
	SampleCount int                     `json:"sample_count"`
	Memory      *AggregateMemoryMetrics `json:"memory,omitempty"`
	CPU         *AggregateCPUMetrics    `json:"cpu,omitempty"`
	Snapshots   []PerformanceSnapshot   `json:"snapshots"`
}

// Stats is the set of summary statistics derived from a sequence of
// nanosecond durations.
type Stats struct {
	Count  int     `json:"count"`
	MeanNs uint64  `json:"mean_ns"`
	MedianNs float64 `json:"median_ns"`
	P95Ns  uint64  `json:"p95_ns"`
	MinNs  uint64  `json:"min_ns"`
	MaxNs  uint64  `json:"max_ns"`
}

// DeviceBenchStats pairs one function's stats with the device it ran on.
type DeviceBenchStats struct {
	Function string `json:"function"`
	Stats    Stats  `json:"stats"`
}

// DeviceSummary is every benchmark's stats for one device.
type DeviceSummary struct {
	Device string             `json:"device"`
	Stats  []DeviceBenchStats `json:"stats"`
}

// SummaryReport is the top-level, human- and machine-readable summary of a
// run.
type SummaryReport struct {
	GeneratedAt      string          `json:"generated_at"`
	GeneratedAtUnix  int64           `json:"generated_at_unix"`
	Target           Target          `json:"target"`
	Function         string          `json:"function"`
	Iterations       uint32          `json:"iterations"`
	Warmup           uint32          `json:"warmup"`
	Devices          []string        `json:"devices"`
	DeviceSummaries  []DeviceSummary `json:"device_summaries"`
}

// RunSummary is the full record of one orchestrated run, written as
// summary.json.
type RunSummary struct {
	Spec                BenchSpec                      `json:"spec"`
	Build                *BuildResult                   `json:"build,omitempty"`
	Scheduled            *ScheduledRun                   `json:"scheduled,omitempty"`
	Summary              SummaryReport                   `json:"summary"`
	RawResults           map[string][]BenchReport        `json:"raw_results,omitempty"`
	PerformanceMetrics   map[string]PerformanceMetrics    `json:"performance_metrics,omitempty"`
}

// Now is the build-time timestamp helper used by BenchMeta construction;
// kept as a var so tests can override it deterministically.
var Now = time.Now
