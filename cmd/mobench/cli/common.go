// Package cli assembles mobench's urfave/cli/v2 commands. Each file
// groups the commands for one area of spec.md §6.1's CLI surface;
// common.go holds the global flags and the small helpers every command
// shares, in the spirit of cabe's commonCmd pattern.
package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v2"

	"github.com/worldcoin/mobench/internal/sklog"
)

// GlobalFlags are accepted by every subcommand.
var GlobalFlags = []cli.Flag{
	&cli.BoolFlag{Name: "dry-run", Usage: "print what would happen without running subprocesses or network calls"},
	&cli.BoolFlag{Name: "verbose", Usage: "enable verbose logging"},
	&cli.BoolFlag{Name: "yes", Usage: "assume yes to any confirmation prompt"},
	&cli.BoolFlag{Name: "non-interactive", Usage: "fail instead of prompting when input is needed"},
}

// NewApp builds the top-level mobench CLI: every subcommand from
// spec.md §6.1, plus the global flags.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "mobench",
		Usage:   "cross-compile, deploy, and benchmark a Rust library on real Android/iOS devices",
		Version: version,
		Flags:   GlobalFlags,
		Before: func(c *cli.Context) error {
			correlationID := uuid.New().String()
			c.Context = context.WithValue(c.Context, correlationIDKey{}, correlationID)
			if c.Bool("verbose") {
				sklog.Infof("correlation id %s", correlationID)
			}
			return nil
		},
		Commands: []*cli.Command{
			initCommand(),
			initSDKCommand(),
			planCommand(),
			doctorCommand(),
			checkCommand(),
			devicesCommand(),
			listCommand(),
			verifyCommand(),
			buildCommand(),
			packageIPACommand(),
			packageXCUITestCommand(),
			runCommand(),
			fetchCommand(),
			compareCommand(),
			summaryCommand(),
			ciCommand(),
		},
	}
}

type correlationIDKey struct{}

// correlationID reads the per-invocation correlation id stashed in Before.
func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// fatal prints an actionable message via sklog and returns a cli.ExitError
// so urfave/cli sets the process exit code without also printing its own
// generic error banner.
func fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	sklog.Error(msg)
	return cli.Exit(msg, 1)
}

func warn(format string, args ...interface{}) {
	sklog.Warningf(format, args...)
}

func okColor() *color.Color  { return color.New(color.FgGreen) }
func failColor() *color.Color { return color.New(color.FgRed) }
func warnColor() *color.Color { return color.New(color.FgYellow) }
