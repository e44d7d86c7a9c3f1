package cli

import (
	"fmt"

	cli "github.com/urfave/cli/v2"

	"github.com/worldcoin/mobench/internal/builder"
	"github.com/worldcoin/mobench/internal/types"
)

func profileFromFlag(release bool) types.Profile {
	if release {
		return types.ProfileRelease
	}
	return types.ProfileDebug
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "build platform artifacts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Value: "both"},
			&cli.BoolFlag{Name: "release"},
			&cli.StringFlag{Name: "output-dir", Value: "target/mobench"},
			&cli.StringFlag{Name: "crate-path", Value: "."},
			&cli.BoolFlag{Name: "progress", Usage: "print each step as it runs (default logging already does this)"},
		},
		Action: func(c *cli.Context) error {
			cfg := types.BuildConfig{
				Profile:   profileFromFlag(c.Bool("release")),
				CratePath: c.String("crate-path"),
				OutputDir: c.String("output-dir"),
				DryRun:    c.Bool("dry-run"),
			}
			target := types.Target(c.String("target"))

			platforms := []types.Target{target}
			if target == types.TargetBoth {
				platforms = []types.Target{types.TargetAndroid, types.TargetIOS}
			}

			for _, platform := range platforms {
				cfg.Target = platform
				b, err := builderFor(platform, cfg.CratePath, cfg.OutputDir)
				if err != nil {
					return fatal("%v", err)
				}
				result, err := b.Build(c.Context, cfg)
				if err != nil {
					return fatal("building %s: %v", platform, err)
				}
				fmt.Printf("%s: app=%s test-suite=%s\n", platform, result.AppPath, result.TestSuitePath)
			}
			return nil
		},
	}
}

func builderFor(platform types.Target, cratePath, outputDir string) (builder.Builder, error) {
	switch platform {
	case types.TargetAndroid:
		return &builder.AndroidBuilder{CratePath: cratePath, LibName: "mobench", ProjectRoot: outputDir + "/android"}, nil
	case types.TargetIOS:
		return &builder.IOSBuilder{CratePath: cratePath, LibName: "mobench", OutputDir: outputDir, SchemeName: "BenchRunner"}, nil
	default:
		return nil, fmt.Errorf("unsupported build target %q", platform)
	}
}

func packageIPACommand() *cli.Command {
	return &cli.Command{
		Name:      "package-ipa",
		Usage:     "build and sign a device .app with xcodebuild, then zip it into an .ipa",
		ArgsUsage: "<xcodeproj-path> <output-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scheme", Value: "BenchRunner"},
			&cli.StringFlag{Name: "method", Value: "adhoc", Usage: "adhoc|development"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fatal("package-ipa requires <xcodeproj-path> <output-dir>")
			}
			method, err := builder.ParseSigningMethod(c.String("method"))
			if err != nil {
				return fatal("%v", err)
			}
			ipaPath, err := builder.PackageIPA(c.Context, c.Args().Get(0), c.String("scheme"), c.Args().Get(1), method)
			if err != nil {
				return fatal("%v", err)
			}
			fmt.Printf("wrote %s\n", ipaPath)
			return nil
		},
	}
}

func packageXCUITestCommand() *cli.Command {
	return &cli.Command{
		Name:      "package-xcuitest",
		Usage:     "build a UI-test runner with xcodebuild, then zip it for device-farm upload",
		ArgsUsage: "<xcodeproj-path> <output-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scheme", Value: "BenchRunner"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fatal("package-xcuitest requires <xcodeproj-path> <output-dir>")
			}
			zipPath, err := builder.PackageXCUITest(c.Context, c.Args().Get(0), c.String("scheme"), c.Args().Get(1))
			if err != nil {
				return fatal("%v", err)
			}
			fmt.Printf("wrote %s\n", zipPath)
			return nil
		},
	}
}
