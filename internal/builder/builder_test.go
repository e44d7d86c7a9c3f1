package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcoin/mobench/internal/types"
)

func TestAndroidBuildValidatesCrateRoot(t *testing.T) {
	b := &AndroidBuilder{CratePath: "/tmp/definitely-missing-crate", LibName: "bench"}
	_, err := b.Build(context.Background(), types.BuildConfig{Profile: types.ProfileDebug})
	assert.Error(t, err)
}

func TestAndroidDryRunSkipsSubprocesses(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\n"), 0o644))
	t.Setenv("ANDROID_NDK_HOME", "/fake/ndk")

	b := &AndroidBuilder{CratePath: dir, LibName: "bench", ProjectRoot: filepath.Join(dir, "android")}
	result, err := b.Build(context.Background(), types.BuildConfig{Profile: types.ProfileDebug, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, types.TargetAndroid, result.Platform)
}

func TestIOSBuildValidatesCrateRoot(t *testing.T) {
	b := &IOSBuilder{CratePath: "/tmp/definitely-missing-crate", LibName: "bench"}
	_, err := b.Build(context.Background(), types.BuildConfig{Profile: types.ProfileDebug})
	assert.Error(t, err)
}

func TestPackageIPARejectsMissingProject(t *testing.T) {
	_, err := PackageIPA(context.Background(), "/tmp/definitely-missing.xcodeproj", "BenchRunner", t.TempDir(), SigningAdHoc)
	assert.Error(t, err)
}

func TestPackageXCUITestRejectsMissingProject(t *testing.T) {
	_, err := PackageXCUITest(context.Background(), "/tmp/definitely-missing.xcodeproj", "BenchRunner", t.TempDir())
	assert.Error(t, err)
}

func TestParseSigningMethod(t *testing.T) {
	m, err := ParseSigningMethod("adhoc")
	require.NoError(t, err)
	assert.Equal(t, SigningAdHoc, m)

	m, err = ParseSigningMethod("development")
	require.NoError(t, err)
	assert.Equal(t, SigningDevelopment, m)

	_, err = ParseSigningMethod("bogus")
	assert.Error(t, err)
}

func TestEnsureProjectScaffoldSkipsWhenPresent(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "android")
	require.NoError(t, os.MkdirAll(project, 0o755))
	// No MOBENCH_TEMPLATE_ROOT needed: the project already exists, so
	// ensureProjectScaffold must never touch the template tree.
	err := ensureProjectScaffold(project, "android", nil)
	assert.NoError(t, err)
}

func TestEnsureProjectScaffoldRendersBundledTemplate(t *testing.T) {
	t.Setenv("MOBENCH_TEMPLATE_ROOT", "../../templates")
	dir := t.TempDir()
	project := filepath.Join(dir, "android")

	require.NoError(t, ensureProjectScaffold(project, "android", map[string]string{"ProjectName": "bench"}))
	_, err := os.Stat(filepath.Join(project, "settings.gradle"))
	assert.NoError(t, err)
}
