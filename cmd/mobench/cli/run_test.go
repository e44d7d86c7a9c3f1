package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v2"

	"github.com/worldcoin/mobench/internal/types"
)

// newRunContext builds a *cli.Context wired with runFlags, parsing args the
// way app.Run would before invoking the command's Action.
func newRunContext(t *testing.T, args []string) *cli.Context {
	t.Helper()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	for _, f := range runFlags {
		require.NoError(t, f.Apply(fs))
	}
	require.NoError(t, fs.Parse(args))
	return cli.NewContext(cli.NewApp(), fs, nil)
}

func TestResolveOptions_FlagsOnlyNoConfig(t *testing.T) {
	c := newRunContext(t, []string{"--target=android", "--function=decode", "--iterations=50"})
	opts, err := resolveOptions(c)
	require.NoError(t, err)
	assert.Equal(t, types.TargetAndroid, opts.Target)
	assert.Equal(t, "decode", opts.Function)
	assert.EqualValues(t, 50, opts.Iterations)
}

func TestResolveOptions_ConfigFillsUnsetFlags(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "mobench.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
target: ios
function: encode
iterations: 200
warmup: 20
`), 0o644))

	c := newRunContext(t, []string{"--config=" + cfgPath})
	opts, err := resolveOptions(c)
	require.NoError(t, err)
	assert.Equal(t, types.TargetIOS, opts.Target)
	assert.Equal(t, "encode", opts.Function)
	assert.EqualValues(t, 200, opts.Iterations)
	assert.EqualValues(t, 20, opts.Warmup)
}

func TestResolveOptions_ExplicitFlagsWinOverConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "mobench.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
target: ios
function: encode
iterations: 200
`), 0o644))

	c := newRunContext(t, []string{"--config=" + cfgPath, "--target=android", "--iterations=7"})
	opts, err := resolveOptions(c)
	require.NoError(t, err)
	assert.Equal(t, types.TargetAndroid, opts.Target, "explicit --target must win over the config file")
	assert.Equal(t, "encode", opts.Function, "unset flag falls back to the config value")
	assert.EqualValues(t, 7, opts.Iterations)
}

func TestResolveOptions_DeviceMatrixFilteredByTags(t *testing.T) {
	matrixPath := filepath.Join(t.TempDir(), "matrix.yaml")
	require.NoError(t, os.WriteFile(matrixPath, []byte(`
devices:
  - spec: Pixel7-13
    tags: [android, fast]
  - spec: iPhone14-16
    tags: [ios]
`), 0o644))

	c := newRunContext(t, []string{"--device-matrix=" + matrixPath, "--tags=android"})
	opts, err := resolveOptions(c)
	require.NoError(t, err)
	require.Len(t, opts.Devices, 1)
	assert.Equal(t, "Pixel7-13", opts.Devices[0])
}

func TestResolveOptions_MissingConfigFileErrors(t *testing.T) {
	c := newRunContext(t, []string{"--config=/does/not/exist.yaml"})
	_, err := resolveOptions(c)
	require.Error(t, err)
}
