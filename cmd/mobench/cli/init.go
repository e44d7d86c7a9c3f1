package cli

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/worldcoin/mobench/internal/config"
	"github.com/worldcoin/mobench/internal/scaffold"
	"github.com/worldcoin/mobench/internal/types"
)

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "write a starter run-config file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "mobench.yaml"},
			&cli.StringFlag{Name: "target", Value: "both"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.RunConfig{
				Target:     types.Target(c.String("target")),
				Iterations: 100,
				Warmup:     10,
				Profile:    types.ProfileRelease,
				CratePath:  ".",
				OutputDir:  "target/mobench",
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fatal("marshaling starter config: %v", err)
			}
			if c.Bool("dry-run") {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(c.String("output"), data, 0o644); err != nil {
				return fatal("writing %s: %v", c.String("output"), err)
			}
			fmt.Printf("wrote %s\n", c.String("output"))
			return nil
		},
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "write a starter device-matrix file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "devices.yaml"},
		},
		Action: func(c *cli.Context) error {
			dm := config.DeviceMatrix{
				Devices: []config.DeviceEntry{
					{Spec: "Google Pixel 7-13.0", Tags: []string{"smoke", "android"}},
					{Spec: "iPhone 14-16", Tags: []string{"smoke", "ios"}},
				},
			}
			data, err := yaml.Marshal(dm)
			if err != nil {
				return fatal("marshaling starter device matrix: %v", err)
			}
			if c.Bool("dry-run") {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(c.String("output"), data, 0o644); err != nil {
				return fatal("writing %s: %v", c.String("output"), err)
			}
			fmt.Printf("wrote %s\n", c.String("output"))
			return nil
		},
	}
}

func initSDKCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-sdk",
		Usage: "scaffold a new benchmark project from the bundled template",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Value: "both"},
			&cli.StringFlag{Name: "project-name", Required: true},
			&cli.StringFlag{Name: "output-dir", Value: "."},
			&cli.BoolFlag{Name: "examples", Usage: "include the sample benchmark functions"},
		},
		Action: func(c *cli.Context) error {
			templateDir := scaffoldTemplateDir("sdk")
			dest := c.String("output-dir") + "/" + c.String("project-name")
			if c.Bool("dry-run") {
				fmt.Printf("[dry-run] would render %s -> %s\n", templateDir, dest)
				return nil
			}
			data := map[string]string{
				"ProjectName": c.String("project-name"),
				"Target":      c.String("target"),
			}
			if err := scaffold.Render(templateDir, dest, data); err != nil {
				return fatal("scaffolding project: %v", err)
			}
			fmt.Printf("scaffolded %s\n", dest)
			return nil
		},
	}
}

func ciCommand() *cli.Command {
	return &cli.Command{
		Name:  "ci",
		Usage: "CI integration helpers",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write a starter CI workflow",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workflow", Value: "mobench.yml"},
					&cli.StringFlag{Name: "action-dir", Value: ".github/workflows"},
				},
				Action: func(c *cli.Context) error {
					templateDir := scaffoldTemplateDir("ci")
					dest := c.String("action-dir")
					workflowPath := dest + "/" + c.String("workflow")
					if c.Bool("dry-run") {
						fmt.Printf("[dry-run] would render %s -> %s\n", templateDir, workflowPath)
						return nil
					}
					if err := scaffold.Render(templateDir, dest, nil); err != nil {
						return fatal("scaffolding CI workflow: %v", err)
					}
					if err := os.Rename(dest+"/workflow.yml", workflowPath); err != nil {
						return fatal("naming CI workflow file: %v", err)
					}
					fmt.Printf("wrote %s\n", workflowPath)
					return nil
				},
			},
		},
	}
}

// scaffoldTemplateDir resolves the bundled template tree shipped next to
// the binary's source; kept as its own function so tests can point it
// elsewhere via the MOBENCH_TEMPLATE_ROOT override.
func scaffoldTemplateDir(name string) string {
	root := os.Getenv("MOBENCH_TEMPLATE_ROOT")
	if root == "" {
		root = "templates"
	}
	return root + "/" + name
}
