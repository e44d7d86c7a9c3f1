// Package builder cross-compiles the benchmark library for each mobile
// platform and composes it into that platform's expected app-bundle
// layout. android.go and ios.go share the subprocess-running and
// validation helpers defined here.
package builder

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/worldcoin/mobench/internal/scaffold"
	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/sklog"
	"github.com/worldcoin/mobench/internal/types"
)

// Builder is the contract every platform builder satisfies.
type Builder interface {
	Build(ctx context.Context, cfg types.BuildConfig) (*types.BuildResult, error)
}

// runCommand runs name with args in dir, capturing stdout+stderr, and
// wraps a nonzero exit with the full captured output so the caller's
// error message shows exactly what the subprocess printed.
func runCommand(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	sklog.Infof("running %s %v in %s", name, args, dir)
	if err := cmd.Run(); err != nil {
		return out.String(), skerr.Wrapf(err, "%s %v failed: %s", name, args, out.String())
	}
	return out.String(), nil
}

// requireTool checks that name is on PATH, returning an actionable error
// naming the install hint when it isn't.
func requireTool(name, installHint string) error {
	if _, err := exec.LookPath(name); err != nil {
		return skerr.Fmt("required tool %q not found on PATH; install it with: %s", name, installHint)
	}
	return nil
}

// validateCrateRoot checks that cratePath exists and looks like a crate
// root (carries a Cargo.toml), the boundary of what this builder will
// cross-compile.
func validateCrateRoot(cratePath string) error {
	info, err := os.Stat(cratePath)
	if err != nil {
		return skerr.Wrapf(err, "project root %s does not exist", cratePath)
	}
	if !info.IsDir() {
		return skerr.Fmt("project root %s is not a directory", cratePath)
	}
	if _, err := os.Stat(filepath.Join(cratePath, "Cargo.toml")); err != nil {
		return skerr.Fmt("no Cargo.toml found under %s; is this the benchmark crate root?", cratePath)
	}
	return nil
}

// validateOutputs checks that every required path in required exists,
// failing the build; paths in optional are only warned about when
// missing.
func validateOutputs(required, optional []string) error {
	for _, p := range required {
		if _, err := os.Stat(p); err != nil {
			return skerr.Wrapf(err, "expected build output missing: %s", p)
		}
	}
	for _, p := range optional {
		if _, err := os.Stat(p); err != nil {
			sklog.Warningf("optional build output missing: %s", p)
		}
	}
	return nil
}

func profileFlag(profile types.Profile) []string {
	if profile == types.ProfileRelease {
		return []string{"--release"}
	}
	return nil
}

func profileDirName(profile types.Profile) string {
	if profile == types.ProfileRelease {
		return "release"
	}
	return "debug"
}

// templateRoot resolves the bundled scaffold template tree, honoring the
// same MOBENCH_TEMPLATE_ROOT override cmd/mobench/cli uses for init-sdk/ci
// init, so a build run from a non-standard working directory (or a test)
// can point it elsewhere.
func templateRoot() string {
	if root := os.Getenv("MOBENCH_TEMPLATE_ROOT"); root != "" {
		return root
	}
	return "templates"
}

// ensureProjectScaffold renders the bundled platform-project template into
// projectRoot when it's missing, so a fresh crate can cross-compile into a
// real Gradle/Xcode project without the caller hand-authoring one first.
func ensureProjectScaffold(projectRoot, templateName string, data map[string]string) error {
	if _, err := os.Stat(projectRoot); err == nil {
		return nil
	}
	srcDir := filepath.Join(templateRoot(), "sdk", templateName)
	sklog.Infof("project scaffolding missing at %s, rendering from %s", projectRoot, srcDir)
	if err := scaffold.Render(srcDir, projectRoot, data); err != nil {
		return skerr.Wrapf(err, "scaffolding %s project at %s", templateName, projectRoot)
	}
	return nil
}

// hostLibPath returns the path to the dynamic library cargo produces for
// the host platform (no --target), which uniffi-bindgen reads to derive
// the FFI metadata it generates bindings from.
func hostLibPath(cratePath, libName string) (string, error) {
	var ext string
	switch runtime.GOOS {
	case "darwin":
		ext = "dylib"
	case "linux":
		ext = "so"
	default:
		return "", skerr.Fmt("unsupported host OS %q for uniffi binding generation; generate bindings on macOS or Linux, or pre-generate and commit them", runtime.GOOS)
	}
	return filepath.Join(cratePath, "..", "target", "debug", "lib"+libName+"."+ext), nil
}

const uniffiBindgenInstallHint = "cargo install uniffi-bindgen (or add a [[bin]] named uniffi-bindgen to the crate, or pre-generate bindings and commit them)"
