package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/worldcoin/mobench/internal/types"
)

func TestRunSmokeTest_RegisteredFunctionSucceeds(t *testing.T) {
	d := runSmokeTest("fibonacci")
	assert.True(t, d.OK, d.Detail)
	assert.Contains(t, d.Detail, "ran once in")
}

func TestRunSmokeTest_UnregisteredFunctionFails(t *testing.T) {
	d := runSmokeTest("not-a-real-benchmark")
	assert.False(t, d.OK)
	assert.Contains(t, d.Detail, "not registered")
}

func TestVerifyArtifacts_WarnsWhenMissing(t *testing.T) {
	wd, err := os.Getwd()
	assert.NoError(t, err)
	defer func() { assert.NoError(t, os.Chdir(wd)) }()
	assert.NoError(t, os.Chdir(t.TempDir()))

	diags := verifyArtifacts(types.TargetAndroid)
	assert.Len(t, diags, 1)
	assert.True(t, diags[0].Warn)
}

func TestVerifyArtifacts_OKWhenPresent(t *testing.T) {
	wd, err := os.Getwd()
	assert.NoError(t, err)
	defer func() { assert.NoError(t, os.Chdir(wd)) }()

	dir := t.TempDir()
	assert.NoError(t, os.Chdir(dir))
	assetPath := filepath.Join(dir, "target/mobench/android/app/src/main/assets/bench_spec.json")
	assert.NoError(t, os.MkdirAll(filepath.Dir(assetPath), 0o755))
	assert.NoError(t, os.WriteFile(assetPath, []byte("{}"), 0o644))

	diags := verifyArtifacts(types.TargetAndroid)
	assert.Len(t, diags, 1)
	assert.True(t, diags[0].OK)
}
