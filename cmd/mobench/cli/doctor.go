package cli

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/dustin/go-humanize"
	cli "github.com/urfave/cli/v2"

	"github.com/worldcoin/mobench/internal/config"
	"github.com/worldcoin/mobench/internal/devicefarm"
	"github.com/worldcoin/mobench/internal/types"
)

// diagnostic is one line of doctor/check output: a named prerequisite, a
// pass/fail/warn verdict, and a human-readable detail.
type diagnostic struct {
	Name   string
	OK     bool
	Warn   bool
	Detail string
}

func printDiagnostics(diags []diagnostic, format string) bool {
	allOK := true
	if format == "json" {
		fmt.Println("[")
		for i, d := range diags {
			comma := ","
			if i == len(diags)-1 {
				comma = ""
			}
			fmt.Printf("  {\"name\": %q, \"ok\": %v, \"detail\": %q}%s\n", d.Name, d.OK, d.Detail, comma)
		}
		fmt.Println("]")
	} else {
		for _, d := range diags {
			switch {
			case d.OK:
				okColor().Printf("  [ok]   %-12s %s\n", d.Name, d.Detail)
			case d.Warn:
				warnColor().Printf("  [warn] %-12s %s\n", d.Name, d.Detail)
			default:
				failColor().Printf("  [fail] %-12s %s\n", d.Name, d.Detail)
			}
		}
	}
	for _, d := range diags {
		if !d.OK && !d.Warn {
			allOK = false
		}
	}
	return allOK
}

func checkHostTools(target types.Target) []diagnostic {
	var diags []diagnostic
	diags = append(diags, checkTool("cargo", "https://rustup.rs"))
	if target == types.TargetAndroid || target == types.TargetBoth {
		diags = append(diags, checkTool("gradle", "https://gradle.org/install"))
	}
	if target == types.TargetIOS || target == types.TargetBoth {
		diags = append(diags, checkTool("lipo", "xcode-select --install"))
		diags = append(diags, checkTool("codesign", "xcode-select --install"))
	}
	return diags
}

func checkTool(name, installHint string) diagnostic {
	if _, err := exec.LookPath(name); err != nil {
		return diagnostic{Name: name, OK: false, Detail: "not found on PATH; install with: " + installHint}
	}
	return diagnostic{Name: name, OK: true, Detail: "found on PATH"}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "host-only prerequisite scan",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Value: "both"},
			&cli.StringFlag{Name: "format", Value: "text"},
		},
		Action: func(c *cli.Context) error {
			diags := checkHostTools(types.Target(c.String("target")))
			if !printDiagnostics(diags, c.String("format")) {
				return cli.Exit("one or more required host tools are missing", 1)
			}
			return nil
		},
	}
}

func doctorCommand() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "validate host and config prerequisites",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Value: "both"},
			&cli.StringFlag{Name: "config"},
			&cli.StringFlag{Name: "device-matrix"},
			&cli.BoolFlag{Name: "browserstack", Usage: "also ping the device-farm catalog endpoint"},
			&cli.StringFlag{Name: "format", Value: "text"},
		},
		Action: func(c *cli.Context) error {
			diags := checkHostTools(types.Target(c.String("target")))

			if path := c.String("config"); path != "" {
				if _, err := config.LoadRunConfig(path); err != nil {
					diags = append(diags, diagnostic{Name: "config", Detail: err.Error()})
				} else {
					diags = append(diags, diagnostic{Name: "config", OK: true, Detail: "parsed " + path})
				}
			}
			if path := c.String("device-matrix"); path != "" {
				if dm, err := config.LoadDeviceMatrix(path); err != nil {
					diags = append(diags, diagnostic{Name: "device-matrix", Detail: err.Error()})
				} else {
					diags = append(diags, diagnostic{Name: "device-matrix", OK: true, Detail: humanize.Comma(int64(len(dm.Devices))) + " devices"})
				}
			}
			if c.Bool("browserstack") {
				diags = append(diags, checkBrowserStackCredentials(c.Context))
			}

			if !printDiagnostics(diags, c.String("format")) {
				return cli.Exit("doctor found one or more failures", 1)
			}
			return nil
		},
	}
}

func checkBrowserStackCredentials(ctx context.Context) diagnostic {
	creds := config.BrowserStackConfig{}.ResolveCredentials()
	if creds.Username == "" || creds.AccessKey == "" {
		return diagnostic{Name: "browserstack", Detail: "BROWSERSTACK_USERNAME/BROWSERSTACK_ACCESS_KEY not set"}
	}
	client := devicefarm.New(devicefarm.Auth{Username: creds.Username, AccessKey: creds.AccessKey}, creds.Project)
	devices, err := client.ListDevices(ctx, types.TargetAndroid)
	if err != nil {
		return diagnostic{Name: "browserstack", Detail: "credentials did not resolve: " + err.Error()}
	}
	return diagnostic{Name: "browserstack", OK: true, Detail: fmt.Sprintf("catalog reachable, %s devices", humanize.Comma(int64(len(devices))))}
}
