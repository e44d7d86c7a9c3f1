// Package provenance resolves build-time git metadata for BenchMeta by
// shelling out to git, in the same subprocess-capture style used for
// talking to on-device tools elsewhere in mobench: run the command,
// capture stdout/stderr, and treat a nonzero exit as "unavailable" rather
// than fatal, since every git field on BenchMeta is optional.
package provenance

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Info is the best-effort git state of the working tree mobench was built
// from. Any field may be empty if it couldn't be resolved (not a git
// checkout, git not installed, detached HEAD with no symbolic ref, etc).
type Info struct {
	Commit string
	Branch string
	Dirty  *bool
}

// Resolve gathers Info from the given directory, independently resolving
// each field; failure on one never prevents resolving the others.
func Resolve(ctx context.Context, dir string) Info {
	var info Info
	if commit, err := gitOutput(ctx, dir, "rev-parse", "HEAD"); err == nil {
		info.Commit = commit
	}
	if branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		info.Branch = branch
	}
	if dirty, err := resolveDirty(ctx, dir); err == nil {
		info.Dirty = &dirty
	}
	return info
}

func resolveDirty(ctx context.Context, dir string) (bool, error) {
	out, err := gitOutput(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}
