package embed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcoin/mobench/internal/types"
)

func TestWriteEmbedsIntoExistingPlatformDirsOnly(t *testing.T) {
	root := t.TempDir()
	androidDir := filepath.Join(root, "android", androidAssetsRel)
	require.NoError(t, os.MkdirAll(androidDir, 0o755))
	// iOS directory intentionally absent.

	spec := types.BenchSpec{Name: "samplebench::fibonacci", Iterations: 100, Warmup: 10}
	err := Write(context.Background(), Options{
		OutputDir:   root,
		Spec:        spec,
		Target:      types.TargetAndroid,
		Profile:     types.ProfileRelease,
		ToolVersion: "test",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(androidDir, "bench_spec.json"))
	require.NoError(t, err)
	var gotSpec types.BenchSpec
	require.NoError(t, json.Unmarshal(data, &gotSpec))
	assert.Equal(t, spec, gotSpec)

	_, err = os.Stat(filepath.Join(androidDir, "bench_meta.json"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "ios"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	androidDir := filepath.Join(root, "android", androidAssetsRel)
	require.NoError(t, os.MkdirAll(androidDir, 0o755))

	spec := types.BenchSpec{Name: "a", Iterations: 1, Warmup: 0}
	opts := Options{OutputDir: root, Spec: spec, Target: types.TargetAndroid, Profile: types.ProfileDebug}
	require.NoError(t, Write(context.Background(), opts))
	require.NoError(t, Write(context.Background(), opts))

	_, err := os.Stat(filepath.Join(androidDir, "bench_spec.json"))
	assert.NoError(t, err)
}
