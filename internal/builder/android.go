package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/sklog"
	"github.com/worldcoin/mobench/internal/types"
)

// androidABIs maps Android ABI directory names to their Rust cross-compile
// target triples.
var androidABIs = map[string]string{
	"arm64-v8a":   "aarch64-linux-android",
	"armeabi-v7a": "armv7-linux-androideabi",
	"x86_64":      "x86_64-linux-android",
}

// AndroidBuilder cross-compiles the benchmark library for every Android
// ABI and drives Gradle to produce the app and androidTest APKs.
type AndroidBuilder struct {
	CratePath   string
	LibName     string
	ProjectRoot string // the generated Android app project, typically {OutputDir}/android
}

func (b *AndroidBuilder) Build(ctx context.Context, cfg types.BuildConfig) (*types.BuildResult, error) {
	if err := validateCrateRoot(b.CratePath); err != nil {
		return nil, err
	}
	if err := requireTool("cargo", "https://rustup.rs"); err != nil {
		return nil, err
	}
	for _, target := range androidABIs {
		if err := requireNDKTarget(target); err != nil {
			return nil, err
		}
	}

	if cfg.DryRun {
		sklog.Infof("[dry-run] android build: scaffold project if missing, generate uniffi bindings, cross-compile %d ABIs, copy into %s/app/src/main/jniLibs, run gradle", len(androidABIs), b.ProjectRoot)
		return &types.BuildResult{Platform: types.TargetAndroid}, nil
	}

	if err := ensureProjectScaffold(b.ProjectRoot, "android", map[string]string{"ProjectName": b.LibName}); err != nil {
		return nil, err
	}

	if err := b.generateUniffiBindings(ctx); err != nil {
		return nil, err
	}

	for abi, target := range androidABIs {
		if err := b.buildABI(ctx, cfg, abi, target); err != nil {
			return nil, err
		}
	}

	if err := b.runGradle(ctx); err != nil {
		return nil, err
	}

	profile := profileDirName(cfg.Profile)
	appAPK := filepath.Join(b.ProjectRoot, "app/build/outputs/apk", profile, "app-"+profile+".apk")
	testAPK := filepath.Join(b.ProjectRoot, "app/build/outputs/apk/androidTest", profile, "app-"+profile+"-androidTest.apk")

	if err := validateOutputs([]string{appAPK}, []string{testAPK}); err != nil {
		return nil, err
	}

	return &types.BuildResult{Platform: types.TargetAndroid, AppPath: appAPK, TestSuitePath: testAPK}, nil
}

// generateUniffiBindings produces the Kotlin FFI bindings uniffi-bindgen
// derives from a host-built copy of the library. If bindings were already
// committed at the expected path (e.g. vendored for a repo that pins them),
// they're reused verbatim and nothing is regenerated.
func (b *AndroidBuilder) generateUniffiBindings(ctx context.Context) error {
	crateName := strings.ReplaceAll(b.LibName, "-", "_")
	bindingsPath := filepath.Join(b.ProjectRoot, "app/src/main/java/uniffi", crateName, crateName+".kt")
	if _, err := os.Stat(bindingsPath); err == nil {
		sklog.Infof("reusing pre-generated kotlin bindings at %s", bindingsPath)
		return nil
	}

	if _, err := runCommand(ctx, b.CratePath, "cargo", "build"); err != nil {
		return skerr.Wrapf(err, "building host library for uniffi-bindgen")
	}
	libPath, err := hostLibPath(b.CratePath, b.LibName)
	if err != nil {
		return err
	}
	outDir := filepath.Join(b.ProjectRoot, "app/src/main/java")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return skerr.Wrap(err)
	}

	_, cargoRunErr := runCommand(ctx, b.CratePath, "cargo", "run", "-p", b.LibName, "--bin", "uniffi-bindgen", "--",
		"generate", "--library", libPath, "--language", "kotlin", "--out-dir", outDir)
	if cargoRunErr == nil {
		sklog.Infof("generated kotlin bindings via cargo run uniffi-bindgen into %s", outDir)
		return nil
	}

	if err := requireTool("uniffi-bindgen", uniffiBindgenInstallHint); err != nil {
		return err
	}
	if _, err := runCommand(ctx, "", "uniffi-bindgen", "generate", "--library", libPath, "--language", "kotlin", "--out-dir", outDir); err != nil {
		return skerr.Wrapf(err, "generating kotlin bindings with uniffi-bindgen")
	}
	sklog.Infof("generated kotlin bindings via global uniffi-bindgen into %s", outDir)
	return nil
}

func (b *AndroidBuilder) buildABI(ctx context.Context, cfg types.BuildConfig, abi, target string) error {
	args := append([]string{"build", "--target", target, "--lib"}, profileFlag(cfg.Profile)...)
	if _, err := runCommand(ctx, b.CratePath, "cargo", args...); err != nil {
		return skerr.Wrapf(err, "cross-compiling for android ABI %s", abi)
	}

	jniDir := filepath.Join(b.ProjectRoot, "app/src/main/jniLibs", abi)
	if err := os.MkdirAll(jniDir, 0o755); err != nil {
		return skerr.Wrap(err)
	}

	profile := profileDirName(cfg.Profile)
	src := filepath.Join(cfg.CratePath, "..", "target", target, profile, "lib"+b.LibName+".so")
	dst := filepath.Join(jniDir, "lib"+b.LibName+".so")
	return copyFile(src, dst)
}

func (b *AndroidBuilder) runGradle(ctx context.Context) error {
	if err := requireTool("gradlew", "see https://gradle.org; run `gradle wrapper` in the android project"); err != nil {
		// fall back to a bare gradle install if no wrapper is vendored
		if err2 := requireTool("gradle", "https://gradle.org/install"); err2 != nil {
			return err
		}
	}
	gradleCmd := filepath.Join(b.ProjectRoot, "gradlew")
	if _, err := os.Stat(gradleCmd); err != nil {
		gradleCmd = "gradle"
	}
	_, err := runCommand(ctx, b.ProjectRoot, gradleCmd, "assembleDebug", "assembleAndroidTest")
	if err != nil {
		return skerr.Wrapf(err, "gradle build failed")
	}
	return nil
}

func requireNDKTarget(target string) error {
	if os.Getenv("ANDROID_NDK_HOME") == "" {
		return skerr.Fmt("ANDROID_NDK_HOME is not set; install the Android NDK and set ANDROID_NDK_HOME, then run: rustup target add %s", target)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return skerr.Wrapf(err, "reading cross-compiled artifact %s", src)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return skerr.Wrapf(err, "writing artifact to %s", dst)
	}
	return nil
}
