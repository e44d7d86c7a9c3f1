// Command mobench cross-compiles a Rust benchmark crate for Android and
// iOS, deploys it to the device farm, and reports timing and resource
// results. See cmd/mobench/cli for the subcommand implementations.
package main

import (
	"os"

	"github.com/worldcoin/mobench/cmd/mobench/cli"
	"github.com/worldcoin/mobench/internal/sklog"
)

var version = "dev"

func main() {
	defer sklog.Flush()
	if err := cli.NewApp(version).Run(os.Args); err != nil {
		sklog.Fatal(err)
	}
}
