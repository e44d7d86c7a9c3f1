package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v2"
)

// newCommandContext builds a *cli.Context for cmd, with GlobalFlags plus
// the command's own flags registered and args parsed, mirroring how
// app.Run assembles a subcommand's context.
func newCommandContext(t *testing.T, cmd *cli.Command, args []string) *cli.Context {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	for _, f := range GlobalFlags {
		require.NoError(t, f.Apply(fs))
	}
	for _, f := range cmd.Flags {
		require.NoError(t, f.Apply(fs))
	}
	require.NoError(t, fs.Parse(args))
	return cli.NewContext(cli.NewApp(), fs, nil)
}

func TestInitCommand_DryRunDoesNotWriteFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "mobench.yaml")
	cmd := initCommand()
	c := newCommandContext(t, cmd, []string{"--dry-run", "--output=" + out})

	require.NoError(t, cmd.Action(c))
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "dry-run must not write the config file")
}

func TestInitCommand_WritesStarterConfig(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "mobench.yaml")
	cmd := initCommand()
	c := newCommandContext(t, cmd, []string{"--output=" + out, "--target=ios"})

	require.NoError(t, cmd.Action(c))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "target: ios")
}

func TestPlanCommand_WritesStarterDeviceMatrix(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "devices.yaml")
	cmd := planCommand()
	c := newCommandContext(t, cmd, []string{"--output=" + out})

	require.NoError(t, cmd.Action(c))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "spec:")
}

func TestScaffoldTemplateDir_DefaultsToTemplatesRoot(t *testing.T) {
	assert.Equal(t, "templates/sdk", scaffoldTemplateDir("sdk"))
}

func TestScaffoldTemplateDir_HonorsOverrideEnvVar(t *testing.T) {
	t.Setenv("MOBENCH_TEMPLATE_ROOT", "/custom/root")
	assert.Equal(t, "/custom/root/ci", scaffoldTemplateDir("ci"))
}

func TestInitSDKCommand_RendersBundledTemplate(t *testing.T) {
	t.Setenv("MOBENCH_TEMPLATE_ROOT", "../../../templates")
	dir := t.TempDir()
	cmd := initSDKCommand()
	c := newCommandContext(t, cmd, []string{"--project-name=demo", "--output-dir=" + dir})

	require.NoError(t, cmd.Action(c))
	data, err := os.ReadFile(filepath.Join(dir, "demo", "crate", "Cargo.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `name = "demo"`)
}

func TestCIInitCommand_RendersAndRenamesWorkflow(t *testing.T) {
	t.Setenv("MOBENCH_TEMPLATE_ROOT", "../../../templates")
	dir := t.TempDir()
	cmd := ciCommand()
	require.Len(t, cmd.Subcommands, 1)
	initSub := cmd.Subcommands[0]
	c := newCommandContext(t, initSub, []string{"--workflow=custom.yml", "--action-dir=" + dir})

	require.NoError(t, initSub.Action(c))
	_, err := os.Stat(filepath.Join(dir, "custom.yml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "workflow.yml"))
	assert.True(t, os.IsNotExist(err), "the template's original name should not survive the rename")
}
