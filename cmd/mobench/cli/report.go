package cli

import (
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/worldcoin/mobench/internal/orchestrator"
	"github.com/worldcoin/mobench/internal/report"
	"github.com/worldcoin/mobench/internal/types"
)

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "compute a regression report between two summaries",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "baseline", Required: true},
			&cli.StringFlag{Name: "candidate", Required: true},
			&cli.StringFlag{Name: "output"},
			&cli.Float64Flag{Name: "threshold", Value: report.DefaultThresholdPercent},
		},
		Action: func(c *cli.Context) error {
			regressions, err := orchestrator.CompareSummaries(c.String("baseline"), c.String("candidate"), c.Float64("threshold"))
			if err != nil {
				return fatal("%v", err)
			}

			if out := c.String("output"); out != "" {
				data, err := json.MarshalIndent(regressions, "", "  ")
				if err != nil {
					return fatal("%v", err)
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fatal("writing %s: %v", out, err)
				}
			}

			if len(regressions) == 0 {
				okColor().Println("no regressions found")
				return nil
			}
			for _, r := range regressions {
				failColor().Printf("regression: %s/%s %s +%.1f%%\n", r.Device, r.Function, r.Metric, r.DeltaPercent)
			}
			return cli.Exit("regression(s) detected", orchestrator.RegressionExitCode)
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "print statistics from a summary.json file",
		ArgsUsage: "<summary.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "text", Usage: "text|json|csv"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return fatal("summary requires <summary.json>")
			}
			var run types.RunSummary
			data, err := os.ReadFile(c.Args().Get(0))
			if err != nil {
				return fatal("reading %s: %v", c.Args().Get(0), err)
			}
			if err := json.Unmarshal(data, &run); err != nil {
				return fatal("parsing %s: %v", c.Args().Get(0), err)
			}

			switch c.String("format") {
			case "json":
				fmt.Println(string(data))
			case "csv":
				csvData, err := report.RenderCSV(run.Summary)
				if err != nil {
					return fatal("%v", err)
				}
				fmt.Print(csvData)
			default:
				fmt.Print(report.RenderText(run.Summary))
			}
			return nil
		},
	}
}
