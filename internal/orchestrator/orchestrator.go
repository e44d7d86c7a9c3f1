// Package orchestrator drives one end-to-end `run`: resolve the
// requested benchmark spec from flags/config/device matrix, validate it,
// embed provenance, build the platform artifacts, schedule and fetch
// results from the device farm, then summarize and report. Grounded on
// spec.md §4.9's numbered sequence and styled after the teacher's
// top-level main.go sequencing (flag resolution, then a linear chain of
// steps that returns on the first error).
package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/worldcoin/mobench/internal/builder"
	"github.com/worldcoin/mobench/internal/config"
	"github.com/worldcoin/mobench/internal/devicefarm"
	"github.com/worldcoin/mobench/internal/embed"
	"github.com/worldcoin/mobench/internal/metrics2"
	"github.com/worldcoin/mobench/internal/registry"
	"github.com/worldcoin/mobench/internal/report"
	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/sklog"
	"github.com/worldcoin/mobench/internal/stats"
	"github.com/worldcoin/mobench/internal/types"
)

// DefaultPollTimeout and DefaultPollInterval match spec.md §5's stated
// defaults for poll_build_completion.
const (
	DefaultPollTimeout  = 600 * time.Second
	DefaultPollInterval = 10 * time.Second
)

// RegressionExitCode is the dedicated exit code a `run` or `compare`
// invocation returns when regression gating finds at least one
// regressed row, distinct from 0 (success) and 1 (general error).
const RegressionExitCode = 2

// Options is the fully resolved input to Run: CLI flags already merged
// with any config file and device matrix (flag values win). Resolving
// that merge is the CLI layer's job; Orchestrator only consumes the
// result.
type Options struct {
	Target       types.Target
	Function     string
	Iterations   uint32
	Warmup       uint32
	Profile      types.Profile
	CratePath    string
	OutputDir    string
	Devices      []string // device-farm spec strings, e.g. "Google Pixel 7-13.0"
	LocalOnly    bool
	Fetch        bool
	PollTimeout  time.Duration
	PollInterval time.Duration
	BaselinePath string // optional summary.json to regress against
	ThresholdPct float64

	BrowserStack config.BrowserStackConfig
	ToolVersion  string
}

// Result is everything a `run` invocation produces, for the CLI layer to
// print and for tests to assert against.
type Result struct {
	Summary     types.RunSummary
	Regressions []report.Regression
}

// Run executes spec.md §4.9's numbered sequence. Any failure aborts
// immediately and is returned as a wrapped error; the caller (cmd/mobench)
// decides exit codes and whether to invoke sklog.Fatal.
func Run(ctx context.Context, opts Options) (*Result, error) {
	sklog.Infof("resolved run: target=%s function=%s iterations=%d warmup=%d profile=%s devices=%v",
		opts.Target, opts.Function, opts.Iterations, opts.Warmup, opts.Profile, opts.Devices)
	metrics2.GetCounter("mobench_runs", map[string]string{"target": string(opts.Target)}).Inc(1)

	spec := types.BenchSpec{Name: opts.Function, Iterations: opts.Iterations, Warmup: opts.Warmup}

	var client *devicefarm.Client
	if len(opts.Devices) > 0 {
		creds := opts.BrowserStack.ResolveCredentials()
		client = devicefarm.New(devicefarm.Auth{Username: creds.Username, AccessKey: creds.AccessKey}, creds.Project)
		if err := validateDevices(ctx, client, opts.Target, opts.Devices); err != nil {
			return nil, err
		}
	}

	if opts.Function != "" {
		if _, ok := registry.Find(opts.Function); !ok {
			sklog.Warningf("benchmark %q is not registered in this binary; the on-device runner is the authoritative check", opts.Function)
		}
	}

	if err := embed.Write(ctx, embed.Options{
		OutputDir:   opts.OutputDir,
		Spec:        spec,
		Target:      opts.Target,
		Profile:     opts.Profile,
		ToolVersion: opts.ToolVersion,
	}); err != nil {
		return nil, skerr.Wrapf(err, "embedding spec/meta")
	}

	var build *types.BuildResult
	if !opts.LocalOnly {
		b, err := buildArtifacts(ctx, opts)
		if err != nil {
			return nil, err
		}
		build = b
	} else {
		sklog.Infof("--local-only set; skipping platform build")
	}

	summary := types.RunSummary{Spec: spec, Build: build}

	if client != nil && build != nil {
		scheduled, deviceResults, err := scheduleAndFetch(ctx, client, opts, build)
		if err != nil {
			return nil, err
		}
		summary.Scheduled = scheduled
		if deviceResults != nil {
			summary.Summary = summarize(opts, deviceResults)
			summary.RawResults = rawResultsByDevice(deviceResults)
			summary.PerformanceMetrics = performanceByDevice(deviceResults)
		}
	}

	var regressions []report.Regression
	if opts.BaselinePath != "" && summary.Summary.DeviceSummaries != nil {
		baseline, err := loadBaselineSummary(opts.BaselinePath)
		if err != nil {
			return nil, err
		}
		regressions = report.Detect(*baseline, summary.Summary, opts.ThresholdPct)
	}
	metrics2.GetCounter("mobench_devices_reporting", map[string]string{"target": string(opts.Target)}).Reset()
	metrics2.GetCounter("mobench_devices_reporting", map[string]string{"target": string(opts.Target)}).Inc(int64(len(summary.Summary.Devices)))
	if len(regressions) > 0 {
		metrics2.GetCounter("mobench_regressions", map[string]string{"target": string(opts.Target)}).Inc(int64(len(regressions)))
	}

	if err := writeReports(opts.OutputDir, summary, regressions); err != nil {
		return nil, err
	}

	return &Result{Summary: summary, Regressions: regressions}, nil
}

func validateDevices(ctx context.Context, client *devicefarm.Client, target types.Target, devices []string) error {
	catalog, err := client.ListDevices(ctx, target)
	if err != nil {
		return skerr.Wrapf(err, "fetching device-farm catalog to validate requested devices")
	}
	known := map[string]bool{}
	for _, d := range catalog {
		known[d] = true
	}
	var invalid []string
	for _, d := range devices {
		if !known[d] {
			invalid = append(invalid, d)
		}
	}
	if len(invalid) > 0 {
		return skerr.Fmt("requested device(s) not in device-farm catalog: %v", invalid)
	}
	return nil
}

func buildArtifacts(ctx context.Context, opts Options) (*types.BuildResult, error) {
	cfg := types.BuildConfig{Target: opts.Target, Profile: opts.Profile, CratePath: opts.CratePath, OutputDir: opts.OutputDir}

	switch opts.Target {
	case types.TargetAndroid:
		b := &builder.AndroidBuilder{CratePath: opts.CratePath, LibName: "mobench", ProjectRoot: opts.OutputDir + "/android"}
		return b.Build(ctx, cfg)
	case types.TargetIOS:
		b := &builder.IOSBuilder{CratePath: opts.CratePath, LibName: "mobench", OutputDir: opts.OutputDir, SchemeName: "BenchRunner"}
		result, err := b.Build(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// The xcframework build doesn't itself produce an uploadable .app
		// or UI-test runner; when devices were requested, packaging those
		// is the pre-upload step spec.md calls out separately (the
		// library's cross-compile step must run first, so this packaging
		// pass runs right after rather than before the build as listed).
		if len(opts.Devices) > 0 {
			return packageIOSForDeviceFarm(ctx, opts)
		}
		return result, nil
	default:
		return nil, skerr.Fmt("unsupported build target %q; expected android or ios", opts.Target)
	}
}

// packageIOSForDeviceFarm builds the real device .app and UI-test runner
// with xcodebuild against the Xcode project buildArtifacts just
// cross-compiled a fresh xcframework into, then zips each for upload. The
// xcframework itself isn't installable on a device, so it's never what
// gets uploaded here.
func packageIOSForDeviceFarm(ctx context.Context, opts Options) (*types.BuildResult, error) {
	const scheme = "BenchRunner"
	iosDir := opts.OutputDir + "/ios"
	projectPath := iosDir + "/" + scheme + "/" + scheme + ".xcodeproj"

	ipaPath, err := builder.PackageIPA(ctx, projectPath, scheme, iosDir, builder.SigningAdHoc)
	if err != nil {
		return nil, skerr.Wrapf(err, "packaging .ipa")
	}
	suitePath, err := builder.PackageXCUITest(ctx, projectPath, scheme, iosDir)
	if err != nil {
		return nil, skerr.Wrapf(err, "packaging xcuitest runner")
	}
	return &types.BuildResult{Platform: types.TargetIOS, AppPath: ipaPath, TestSuitePath: suitePath}, nil
}

func scheduleAndFetch(ctx context.Context, client *devicefarm.Client, opts Options, build *types.BuildResult) (*types.ScheduledRun, []devicefarm.DeviceResult, error) {
	appUpload, err := client.UploadApp(ctx, opts.Target, build.AppPath)
	if err != nil {
		return nil, nil, skerr.Wrapf(err, "uploading app artifact")
	}
	suiteUpload, err := client.UploadTestSuite(ctx, opts.Target, build.TestSuitePath)
	if err != nil {
		return nil, nil, skerr.Wrapf(err, "uploading test suite artifact")
	}

	scheduled, err := client.ScheduleRun(ctx, opts.Target, opts.Devices, appUpload.AppURL, suiteUpload.TestSuiteURL)
	if err != nil {
		return nil, nil, skerr.Wrapf(err, "scheduling run")
	}
	sklog.Infof("scheduled build %s on %s; dashboard: https://app-automate.browserstack.com/builds/%s", scheduled.BuildID, opts.Target, scheduled.BuildID)

	if !opts.Fetch {
		return scheduled, nil, nil
	}

	timeout, interval := opts.PollTimeout, opts.PollInterval
	if timeout == 0 {
		timeout = DefaultPollTimeout
	}
	if interval == 0 {
		interval = DefaultPollInterval
	}

	deviceResults, err := client.WaitAndFetchAllResults(ctx, opts.Target, scheduled.BuildID, timeout, interval)
	if err != nil {
		return scheduled, nil, skerr.Wrapf(err, "waiting for build %s (timeout %s)", scheduled.BuildID, timeout)
	}
	return scheduled, deviceResults, nil
}

func summarize(opts Options, deviceResults []devicefarm.DeviceResult) types.SummaryReport {
	now := types.Now()
	s := types.SummaryReport{
		GeneratedAt:     now.UTC().Format("2006-01-02T15:04:05Z"),
		GeneratedAtUnix: now.Unix(),
		Target:          opts.Target,
		Function:        opts.Function,
		Iterations:      opts.Iterations,
		Warmup:          opts.Warmup,
	}
	for _, dr := range deviceResults {
		if dr.FetchErr != nil {
			continue
		}
		s.Devices = append(s.Devices, dr.Device)
		samples := stats.SamplesFromDurations(dr.Report.Samples)
		if len(samples) == 0 {
			continue
		}
		functionName := dr.Report.Spec.Name
		if functionName == "" {
			functionName = opts.Function
		}
		s.DeviceSummaries = append(s.DeviceSummaries, types.DeviceSummary{
			Device: dr.Device,
			Stats:  []types.DeviceBenchStats{{Function: functionName, Stats: stats.Compute(samples)}},
		})
	}
	sort.Strings(s.Devices)
	sort.Slice(s.DeviceSummaries, func(i, j int) bool { return s.DeviceSummaries[i].Device < s.DeviceSummaries[j].Device })
	for _, ds := range s.DeviceSummaries {
		sort.Slice(ds.Stats, func(i, j int) bool { return ds.Stats[i].Function < ds.Stats[j].Function })
	}
	return s
}

func rawResultsByDevice(deviceResults []devicefarm.DeviceResult) map[string][]types.BenchReport {
	out := map[string][]types.BenchReport{}
	for _, dr := range deviceResults {
		if dr.FetchErr != nil {
			continue
		}
		out[dr.Device] = append(out[dr.Device], dr.Report)
	}
	return out
}

func performanceByDevice(deviceResults []devicefarm.DeviceResult) map[string]types.PerformanceMetrics {
	out := map[string]types.PerformanceMetrics{}
	for _, dr := range deviceResults {
		if dr.FetchErr != nil {
			continue
		}
		out[dr.Device] = dr.Performance
	}
	return out
}

func writeReports(outputDir string, summary types.RunSummary, regressions []report.Regression) error {
	if err := report.WriteJSON(outputDir+"/summary.json", summary); err != nil {
		return err
	}
	if summary.Summary.DeviceSummaries == nil {
		return nil
	}
	if err := report.WriteMarkdown(outputDir+"/summary.md", summary.Summary); err != nil {
		return err
	}
	if err := report.WriteCSV(outputDir+"/summary.csv", summary.Summary); err != nil {
		return err
	}
	return report.WriteJUnit(outputDir+"/summary.xml", summary.Summary, regressions)
}

func loadBaselineSummary(path string) (*types.SummaryReport, error) {
	var summary types.RunSummary
	if err := readJSONFile(path, &summary); err != nil {
		return nil, skerr.Wrapf(err, "loading baseline summary %s", path)
	}
	return &summary.Summary, nil
}

// CompareSummaries is the standalone entry point for `compare`: it loads
// two already-produced summary.json files and runs regression detection
// between them, independent of a live run.
func CompareSummaries(baselinePath, candidatePath string, thresholdPct float64) ([]report.Regression, error) {
	baseline, err := loadBaselineSummary(baselinePath)
	if err != nil {
		return nil, err
	}
	candidate, err := loadBaselineSummary(candidatePath)
	if err != nil {
		return nil, err
	}
	return report.Detect(*baseline, *candidate, thresholdPct), nil
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return skerr.Wrap(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return skerr.Wrap(err)
	}
	return nil
}
