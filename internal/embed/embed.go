// Package embed writes bench_spec.json and bench_meta.json into the
// platform-specific asset directories inside a generated app bundle, so
// the on-device runner can read back what it's supposed to execute.
package embed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/worldcoin/mobench/internal/provenance"
	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/types"
)

const (
	androidAssetsRel = "app/src/main/assets"
	iosResourcesRel  = "BenchRunner/BenchRunner/Resources"
)

// Options configures one embedding pass.
type Options struct {
	OutputDir   string
	Spec        types.BenchSpec
	Target      types.Target
	Profile     types.Profile
	ToolVersion string
}

// Write embeds bench_spec.json and bench_meta.json into whichever of the Android and
// iOS directories exist under OutputDir. Writing into a platform's
// directory is skipped silently if that directory doesn't exist — a
// single-platform build never has the other platform's tree on disk.
func Write(ctx context.Context, opts Options) error {
	meta := buildMeta(ctx, opts)

	androidDir := filepath.Join(opts.OutputDir, "android", androidAssetsRel)
	if err := writeIfDirExists(androidDir, opts.Spec, meta); err != nil {
		return skerr.Wrapf(err, "embedding spec/meta into android assets")
	}

	iosDir := filepath.Join(opts.OutputDir, "ios", iosResourcesRel)
	if err := writeIfDirExists(iosDir, opts.Spec, meta); err != nil {
		return skerr.Wrapf(err, "embedding spec/meta into ios resources")
	}
	return nil
}

func buildMeta(ctx context.Context, opts Options) types.BenchMeta {
	info := provenance.Resolve(ctx, opts.OutputDir)
	now := types.Now()
	return types.BenchMeta{
		Spec:          opts.Spec,
		GitCommit:     info.Commit,
		GitBranch:     info.Branch,
		GitDirty:      info.Dirty,
		BuildTime:     now.UTC().Format("2006-01-02T15:04:05Z"),
		BuildTimeUnix: now.Unix(),
		Target:        opts.Target,
		Profile:       opts.Profile,
		ToolVersion:   opts.ToolVersion,
		HostOS:        hostOS(),
	}
}

func writeIfDirExists(dir string, spec types.BenchSpec, meta types.BenchMeta) error {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return skerr.Wrapf(err, "checking directory %s", dir)
	}

	if err := writeJSON(filepath.Join(dir, "bench_spec.json"), spec); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "bench_meta.json"), meta)
}

func hostOS() string { return runtime.GOOS }

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return skerr.Wrapf(err, "marshaling %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return skerr.Wrapf(err, "writing %s", path)
	}
	return nil
}
