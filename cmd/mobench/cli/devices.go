package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	cli "github.com/urfave/cli/v2"

	"github.com/worldcoin/mobench/internal/config"
	"github.com/worldcoin/mobench/internal/devicefarm"
	"github.com/worldcoin/mobench/internal/registry"
	"github.com/worldcoin/mobench/internal/stats"
	"github.com/worldcoin/mobench/internal/timing"
	"github.com/worldcoin/mobench/internal/types"

	_ "github.com/worldcoin/mobench/internal/samplebench"
)

func devicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "list or validate the device-farm catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "platform", Value: "android"},
			&cli.BoolFlag{Name: "json"},
			&cli.StringSliceFlag{Name: "validate", Usage: "device spec(s) to validate against the catalog"},
		},
		Action: func(c *cli.Context) error {
			creds := config.BrowserStackConfig{}.ResolveCredentials()
			client := devicefarm.New(devicefarm.Auth{Username: creds.Username, AccessKey: creds.AccessKey}, creds.Project)

			devices, err := client.ListDevices(c.Context, types.Target(c.String("platform")))
			if err != nil {
				return fatal("fetching device catalog: %v", err)
			}

			if requested := c.StringSlice("validate"); len(requested) > 0 {
				known := map[string]bool{}
				for _, d := range devices {
					known[d] = true
				}
				var missing []string
				for _, r := range requested {
					if !known[r] {
						missing = append(missing, r)
					}
				}
				if len(missing) > 0 {
					return fatal("device(s) not found in catalog: %v", missing)
				}
				fmt.Println("all requested devices are valid")
				return nil
			}

			if c.Bool("json") {
				data, err := json.MarshalIndent(devices, "", "  ")
				if err != nil {
					return fatal("%v", err)
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Printf("%s devices available:\n", humanize.Comma(int64(len(devices))))
			for _, d := range devices {
				fmt.Printf("  %s\n", d)
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "discover declared benchmarks",
		Action: func(c *cli.Context) error {
			names := registry.ListNames()
			if len(names) == 0 {
				fmt.Println("no benchmarks registered in this binary")
				return nil
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "validate registry, spec, artifacts, and optionally run a smoke test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Value: "both"},
			&cli.StringFlag{Name: "spec-path"},
			&cli.BoolFlag{Name: "check-artifacts"},
			&cli.BoolFlag{Name: "smoke-test"},
			&cli.StringFlag{Name: "function"},
		},
		Action: func(c *cli.Context) error {
			diags := []diagnostic{}

			if path := c.String("spec-path"); path != "" {
				if _, err := os.Stat(path); err != nil {
					diags = append(diags, diagnostic{Name: "spec-file", Detail: err.Error()})
				} else {
					diags = append(diags, diagnostic{Name: "spec-file", OK: true, Detail: "found " + path})
				}
			}

			if c.Bool("check-artifacts") {
				diags = append(diags, verifyArtifacts(types.Target(c.String("target")))...)
			}

			function := c.String("function")
			if function != "" {
				if _, ok := registry.Find(function); ok {
					diags = append(diags, diagnostic{Name: "function", OK: true, Detail: function + " is registered"})
				} else {
					diags = append(diags, diagnostic{Name: "function", Detail: function + " is not registered in this binary"})
				}
			}

			if c.Bool("smoke-test") && function != "" {
				diags = append(diags, runSmokeTest(function))
			}

			if !printDiagnostics(diags, "text") {
				return cli.Exit("verify found one or more failures", 1)
			}
			return nil
		},
	}
}

func verifyArtifacts(target types.Target) []diagnostic {
	var diags []diagnostic
	check := func(name, path string) {
		if _, err := os.Stat(path); err != nil {
			diags = append(diags, diagnostic{Name: name, Warn: true, Detail: path + " not present"})
		} else {
			diags = append(diags, diagnostic{Name: name, OK: true, Detail: path})
		}
	}
	if target == types.TargetAndroid || target == types.TargetBoth {
		check("android-assets", "target/mobench/android/app/src/main/assets/bench_spec.json")
	}
	if target == types.TargetIOS || target == types.TargetBoth {
		check("ios-resources", "target/mobench/ios/BenchRunner/BenchRunner/Resources/bench_spec.json")
	}
	return diags
}

func runSmokeTest(function string) diagnostic {
	entry, ok := registry.Find(function)
	if !ok {
		return diagnostic{Name: "smoke-test", Detail: function + " is not registered"}
	}
	report, err := timing.Run(types.BenchSpec{Name: entry.Name, Iterations: 1, Warmup: 0}, entry.Runner)
	if err != nil {
		return diagnostic{Name: "smoke-test", Detail: err.Error()}
	}
	samples := stats.SamplesFromDurations(report.Samples)
	computed := stats.Compute(samples)
	return diagnostic{Name: "smoke-test", OK: true, Detail: fmt.Sprintf("ran once in %s", stats.HumanDuration(float64(computed.MeanNs)))}
}
