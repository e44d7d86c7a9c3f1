package cli

import (
	"fmt"

	cli "github.com/urfave/cli/v2"

	"github.com/worldcoin/mobench/internal/config"
	"github.com/worldcoin/mobench/internal/devicefarm"
	"github.com/worldcoin/mobench/internal/orchestrator"
	"github.com/worldcoin/mobench/internal/report"
	"github.com/worldcoin/mobench/internal/sklog"
	"github.com/worldcoin/mobench/internal/types"
)

var runFlags = []cli.Flag{
	&cli.StringFlag{Name: "target", Value: "both"},
	&cli.StringFlag{Name: "function"},
	&cli.UintFlag{Name: "iterations", Value: 100},
	&cli.UintFlag{Name: "warmup", Value: 10},
	&cli.BoolFlag{Name: "release"},
	&cli.StringFlag{Name: "crate-path", Value: "."},
	&cli.StringFlag{Name: "output-dir", Value: "target/mobench"},
	&cli.StringFlag{Name: "config", Usage: "run-config YAML file; flags override it"},
	&cli.StringFlag{Name: "device-matrix", Usage: "device-matrix YAML file"},
	&cli.StringSliceFlag{Name: "tags", Usage: "filter the device matrix by tag"},
	&cli.StringSliceFlag{Name: "device", Usage: "device spec(s) to target, in addition to the matrix"},
	&cli.BoolFlag{Name: "local-only", Usage: "build but skip upload/schedule"},
	&cli.BoolFlag{Name: "fetch", Usage: "poll the scheduled run and fetch device results"},
	&cli.DurationFlag{Name: "poll-timeout", Value: orchestrator.DefaultPollTimeout},
	&cli.DurationFlag{Name: "poll-interval", Value: orchestrator.DefaultPollInterval},
	&cli.StringFlag{Name: "baseline", Usage: "summary.json to regress against"},
	&cli.Float64Flag{Name: "threshold", Value: defaultRegressionThreshold},
}

const defaultRegressionThreshold = report.DefaultThresholdPercent

// resolveOptions merges an optional config file, an optional device
// matrix, and CLI flags into orchestrator.Options, with flags winning
// over the config file per spec.md §4.9 step 1.
func resolveOptions(c *cli.Context) (orchestrator.Options, error) {
	opts := orchestrator.Options{
		Target:     types.Target(c.String("target")),
		Function:   c.String("function"),
		Iterations: uint32(c.Uint("iterations")),
		Warmup:     uint32(c.Uint("warmup")),
		Profile:    profileFromFlag(c.Bool("release")),
		CratePath:  c.String("crate-path"),
		OutputDir:  c.String("output-dir"),
		Devices:    c.StringSlice("device"),
		LocalOnly:  c.Bool("local-only"),
		Fetch:      c.Bool("fetch"),
		PollTimeout: c.Duration("poll-timeout"),
		PollInterval: c.Duration("poll-interval"),
		BaselinePath: c.String("baseline"),
		ThresholdPct: c.Float64("threshold"),
		ToolVersion:  c.App.Version,
	}

	if path := c.String("config"); path != "" {
		cfg, err := config.LoadRunConfig(path)
		if err != nil {
			return opts, err
		}
		if !c.IsSet("target") && cfg.Target != "" {
			opts.Target = cfg.Target
		}
		if !c.IsSet("function") && cfg.Function != "" {
			opts.Function = cfg.Function
		}
		if !c.IsSet("iterations") && cfg.Iterations != 0 {
			opts.Iterations = cfg.Iterations
		}
		if !c.IsSet("warmup") && cfg.Warmup != 0 {
			opts.Warmup = cfg.Warmup
		}
		if !c.IsSet("release") && cfg.Profile != "" {
			opts.Profile = cfg.Profile
		}
		if !c.IsSet("crate-path") && cfg.CratePath != "" {
			opts.CratePath = cfg.CratePath
		}
		if !c.IsSet("output-dir") && cfg.OutputDir != "" {
			opts.OutputDir = cfg.OutputDir
		}
		opts.BrowserStack = cfg.BrowserStack
	}

	if path := c.String("device-matrix"); path != "" {
		dm, err := config.LoadDeviceMatrix(path)
		if err != nil {
			return opts, err
		}
		for _, d := range dm.FilterByTags(c.StringSlice("tags")) {
			opts.Devices = append(opts.Devices, d.Spec)
		}
	}

	return opts, nil
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "resolve, build, schedule, and summarize one end-to-end benchmark run",
		Flags: runFlags,
		Action: func(c *cli.Context) error {
			opts, err := resolveOptions(c)
			if err != nil {
				return fatal("resolving run options: %v", err)
			}
			sklog.Infof("run %s", correlationID(c.Context))

			result, err := orchestrator.Run(c.Context, opts)
			if err != nil {
				return fatal("run failed: %v", err)
			}

			if len(result.Regressions) > 0 {
				for _, r := range result.Regressions {
					failColor().Printf("regression: %s/%s %s +%.1f%% (baseline=%.0f candidate=%.0f)\n", r.Device, r.Function, r.Metric, r.DeltaPercent, r.BaselineValue, r.CandidateValue)
				}
				return cli.Exit("regression(s) detected", orchestrator.RegressionExitCode)
			}
			okColor().Println("run completed with no regressions")
			return nil
		},
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "retrieve results for an already-scheduled build id",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Value: "android"},
			&cli.StringFlag{Name: "build-id", Required: true},
			&cli.BoolFlag{Name: "wait"},
			&cli.DurationFlag{Name: "timeout", Value: orchestrator.DefaultPollTimeout},
			&cli.DurationFlag{Name: "interval", Value: orchestrator.DefaultPollInterval},
		},
		Action: func(c *cli.Context) error {
			creds := config.BrowserStackConfig{}.ResolveCredentials()
			client := devicefarm.New(devicefarm.Auth{Username: creds.Username, AccessKey: creds.AccessKey}, creds.Project)
			target := types.Target(c.String("target"))
			buildID := c.String("build-id")

			if !c.Bool("wait") {
				status, err := client.GetBuildStatus(c.Context, target, buildID)
				if err != nil {
					return fatal("fetching build status: %v", err)
				}
				fmt.Printf("build %s: %s\n", buildID, status.Status)
				return nil
			}

			results, err := client.WaitAndFetchAllResults(c.Context, target, buildID, c.Duration("timeout"), c.Duration("interval"))
			if err != nil {
				return fatal("%v", err)
			}
			for _, r := range results {
				if r.FetchErr != nil {
					warn("device %s: %v", r.Device, r.FetchErr)
					continue
				}
				fmt.Printf("device %s: %d samples\n", r.Device, len(r.Report.Samples))
			}
			return nil
		},
	}
}
