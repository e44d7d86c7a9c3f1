package builder

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"

	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/sklog"
	"github.com/worldcoin/mobench/internal/types"
)

const iosAdHocIdentity = "-"

// defaultSchemeName is the scheme/project name scaffolding generates when
// the caller doesn't set IOSBuilder.SchemeName.
const defaultSchemeName = "BenchRunner"

// SigningMethod selects how PackageIPA signs the host app it builds.
type SigningMethod int

const (
	// SigningAdHoc disables signing during the xcodebuild invocation and
	// ad-hoc codesigns the resulting .app afterward; works for device-farm
	// upload without an Apple Developer account.
	SigningAdHoc SigningMethod = iota
	// SigningDevelopment lets xcodebuild sign with an installed
	// "iPhone Developer" identity during the build itself.
	SigningDevelopment
)

// ParseSigningMethod parses the --method CLI flag value.
func ParseSigningMethod(s string) (SigningMethod, error) {
	switch strings.ToLower(s) {
	case "", "adhoc", "ad-hoc":
		return SigningAdHoc, nil
	case "development", "dev":
		return SigningDevelopment, nil
	default:
		return SigningAdHoc, skerr.Fmt("unknown signing method %q; expected adhoc or development", s)
	}
}

// iosTargets lists the Rust cross-compile triples built for the
// XCFramework: one device triple and two simulator triples. The two
// simulator triples are combined into one universal slice via lipo.
var iosTargets = []string{
	"aarch64-apple-ios",
	"aarch64-apple-ios-sim",
	"x86_64-apple-ios",
}

// IOSBuilder cross-compiles the benchmark library for device and
// simulator and composes an XCFramework. Build does not package an .ipa
// or a UI-test runner; PackageIPA and PackageXCUITest do that.
type IOSBuilder struct {
	CratePath   string
	LibName     string
	OutputDir   string // {OutputDir}/ios
	SchemeName  string
}

func (b *IOSBuilder) Build(ctx context.Context, cfg types.BuildConfig) (*types.BuildResult, error) {
	if err := validateCrateRoot(b.CratePath); err != nil {
		return nil, err
	}
	if err := requireTool("cargo", "https://rustup.rs"); err != nil {
		return nil, err
	}
	if err := requireTool("lipo", "install Xcode command line tools: xcode-select --install"); err != nil {
		return nil, err
	}
	if err := requireTool("codesign", "install Xcode command line tools: xcode-select --install"); err != nil {
		return nil, err
	}

	frameworkName := b.LibName
	scheme := b.SchemeName
	if scheme == "" {
		scheme = defaultSchemeName
	}
	iosDir := filepath.Join(b.OutputDir, "ios")
	xcframeworkPath := filepath.Join(iosDir, frameworkName+".xcframework")
	projectDir := filepath.Join(iosDir, scheme)

	if cfg.DryRun {
		sklog.Infof("[dry-run] ios build: scaffold %s if missing, generate swift bindings, cross-compile %d targets, lipo simulator slices, compose %s, codesign with identity %q", projectDir, len(iosTargets), xcframeworkPath, iosAdHocIdentity)
		return &types.BuildResult{Platform: types.TargetIOS, AppPath: xcframeworkPath}, nil
	}

	if err := ensureProjectScaffold(projectDir, "ios", map[string]string{"ProjectName": scheme}); err != nil {
		return nil, err
	}

	if err := b.generateUniffiBindings(ctx, projectDir); err != nil {
		return nil, err
	}

	libs := map[string]string{}
	for _, target := range iosTargets {
		args := append([]string{"build", "--target", target, "--lib"}, profileFlag(cfg.Profile)...)
		if _, err := runCommand(ctx, b.CratePath, "cargo", args...); err != nil {
			return nil, skerr.Wrapf(err, "cross-compiling for ios target %s", target)
		}
		profile := profileDirName(cfg.Profile)
		libs[target] = filepath.Join(b.CratePath, "..", "target", target, profile, "lib"+b.LibName+".a")
	}

	simulatorLib := filepath.Join(iosDir, "lib"+b.LibName+"-simulator.a")
	if err := os.MkdirAll(iosDir, 0o755); err != nil {
		return nil, skerr.Wrap(err)
	}
	if _, err := runCommand(ctx, iosDir, "lipo", "-create",
		libs["aarch64-apple-ios-sim"], libs["x86_64-apple-ios"],
		"-output", simulatorLib); err != nil {
		return nil, skerr.Wrapf(err, "combining simulator slices with lipo")
	}

	if err := composeXCFramework(xcframeworkPath, frameworkName, libs["aarch64-apple-ios"], simulatorLib); err != nil {
		return nil, err
	}

	if _, err := runCommand(ctx, "", "codesign", "--force", "--deep", "--sign", iosAdHocIdentity, xcframeworkPath); err != nil {
		return nil, skerr.Wrapf(err, "code-signing xcframework")
	}

	if err := validateOutputs([]string{xcframeworkPath}, nil); err != nil {
		return nil, err
	}

	return &types.BuildResult{Platform: types.TargetIOS, AppPath: xcframeworkPath}, nil
}

// generateUniffiBindings produces the Swift FFI bindings uniffi-bindgen
// derives from a host-built copy of the library, reusing a pre-generated
// copy verbatim when one already exists at the expected path.
func (b *IOSBuilder) generateUniffiBindings(ctx context.Context, projectDir string) error {
	crateName := strings.ReplaceAll(b.LibName, "-", "_")
	outDir := filepath.Join(projectDir, "Generated")
	bindingsPath := filepath.Join(outDir, crateName+".swift")
	if _, err := os.Stat(bindingsPath); err == nil {
		sklog.Infof("reusing pre-generated swift bindings at %s", bindingsPath)
		return nil
	}

	if _, err := runCommand(ctx, b.CratePath, "cargo", "build"); err != nil {
		return skerr.Wrapf(err, "building host library for uniffi-bindgen")
	}
	libPath, err := hostLibPath(b.CratePath, b.LibName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return skerr.Wrap(err)
	}

	_, cargoRunErr := runCommand(ctx, b.CratePath, "cargo", "run", "-p", b.LibName, "--bin", "uniffi-bindgen", "--",
		"generate", "--library", libPath, "--language", "swift", "--out-dir", outDir)
	if cargoRunErr == nil {
		sklog.Infof("generated swift bindings via cargo run uniffi-bindgen into %s", outDir)
		return nil
	}

	if err := requireTool("uniffi-bindgen", uniffiBindgenInstallHint); err != nil {
		return err
	}
	if _, err := runCommand(ctx, "", "uniffi-bindgen", "generate", "--library", libPath, "--language", "swift", "--out-dir", outDir); err != nil {
		return skerr.Wrapf(err, "generating swift bindings with uniffi-bindgen")
	}
	sklog.Infof("generated swift bindings via global uniffi-bindgen into %s", outDir)
	return nil
}

// composeXCFramework lays out an XCFramework directory with a device
// slice and a combined simulator slice, each wrapped in a .framework with
// its own Info.plist, module.modulemap, and umbrella header, plus the
// top-level Info.plist enumerating AvailableLibraries.
func composeXCFramework(xcframeworkPath, name, deviceLib, simulatorLib string) error {
	slices := []struct {
		identifier string
		lib        string
	}{
		{"ios-arm64", deviceLib},
		{"ios-arm64_x86_64-simulator", simulatorLib},
	}

	for _, s := range slices {
		frameworkDir := filepath.Join(xcframeworkPath, s.identifier, name+".framework")
		if err := os.MkdirAll(filepath.Join(frameworkDir, "Headers"), 0o755); err != nil {
			return skerr.Wrap(err)
		}
		if err := copyFile(s.lib, filepath.Join(frameworkDir, name)); err != nil {
			return err
		}
		if err := writeUmbrellaHeader(filepath.Join(frameworkDir, "Headers", name+".h"), name); err != nil {
			return err
		}
		if err := writeModuleMap(filepath.Join(frameworkDir, "Modules"), name); err != nil {
			return err
		}
		if err := writeFrameworkInfoPlist(filepath.Join(frameworkDir, "Info.plist"), name); err != nil {
			return err
		}
	}

	return writeXCFrameworkInfoPlist(filepath.Join(xcframeworkPath, "Info.plist"), name, slices[0].identifier, slices[1].identifier)
}

func writeUmbrellaHeader(path, name string) error {
	content := "#import <Foundation/Foundation.h>\n\n// Umbrella header for " + name + ".\n"
	return os.WriteFile(path, []byte(content), 0o644)
}

func writeModuleMap(modulesDir, name string) error {
	if err := os.MkdirAll(modulesDir, 0o755); err != nil {
		return skerr.Wrap(err)
	}
	content := "framework module " + name + " {\n  umbrella header \"" + name + ".h\"\n  export *\n  module * { export * }\n}\n"
	return os.WriteFile(filepath.Join(modulesDir, "module.modulemap"), []byte(content), 0o644)
}

type frameworkPlist struct {
	CFBundleIdentifier         string `plist:"CFBundleIdentifier"`
	CFBundleName               string `plist:"CFBundleName"`
	CFBundlePackageType        string `plist:"CFBundlePackageType"`
	CFBundleShortVersionString string `plist:"CFBundleShortVersionString"`
}

func writeFrameworkInfoPlist(path, name string) error {
	p := frameworkPlist{
		CFBundleIdentifier:         "dev.mobench." + name,
		CFBundleName:               name,
		CFBundlePackageType:        "FMWK",
		CFBundleShortVersionString: "1.0",
	}
	return writePlist(path, p)
}

type xcframeworkAvailableLibrary struct {
	LibraryIdentifier       string `plist:"LibraryIdentifier"`
	LibraryPath             string `plist:"LibraryPath"`
	SupportedArchitectures  []string `plist:"SupportedArchitectures"`
	SupportedPlatform       string `plist:"SupportedPlatform"`
	SupportedPlatformVariant string `plist:"SupportedPlatformVariant,omitempty"`
}

type xcframeworkPlist struct {
	CFBundlePackageType string                        `plist:"CFBundlePackageType"`
	XCFrameworkFormatVersion string                   `plist:"XCFrameworkFormatVersion"`
	AvailableLibraries  []xcframeworkAvailableLibrary `plist:"AvailableLibraries"`
}

func writeXCFrameworkInfoPlist(path, name, deviceSlice, simSlice string) error {
	p := xcframeworkPlist{
		CFBundlePackageType:      "XFWK",
		XCFrameworkFormatVersion: "1.0",
		AvailableLibraries: []xcframeworkAvailableLibrary{
			{
				LibraryIdentifier:      deviceSlice,
				LibraryPath:            name + ".framework",
				SupportedArchitectures: []string{"arm64"},
				SupportedPlatform:      "ios",
			},
			{
				LibraryIdentifier:        simSlice,
				LibraryPath:              name + ".framework",
				SupportedArchitectures:   []string{"arm64", "x86_64"},
				SupportedPlatform:        "ios",
				SupportedPlatformVariant: "simulator",
			},
		},
	}
	return writePlist(path, p)
}

func writePlist(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return skerr.Wrapf(err, "creating plist %s", path)
	}
	defer f.Close()
	encoder := plist.NewEncoder(f)
	encoder.Indent("\t")
	if err := encoder.Encode(v); err != nil {
		return skerr.Wrapf(err, "encoding plist %s", path)
	}
	return nil
}

// PackageIPA builds projectPath's scheme for a real device with xcodebuild,
// signs the resulting .app per method, and zips it into Payload/{scheme}.app
// as a {scheme}.ipa under outputDir. xcodebuild's own validation step often
// fails even when it has already produced a usable .app, so a nonzero exit
// is only treated as fatal when the .app genuinely isn't there afterward.
func PackageIPA(ctx context.Context, projectPath, scheme, outputDir string, method SigningMethod) (string, error) {
	if _, err := os.Stat(projectPath); err != nil {
		return "", skerr.Wrapf(err, "xcode project not found at %s; run `mobench build --target ios` first", projectPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", skerr.Wrap(err)
	}

	buildDir := filepath.Join(outputDir, "build")
	appPath, err := buildHostApp(ctx, projectPath, scheme, buildDir, method)
	if err != nil {
		return "", err
	}

	destIPA := filepath.Join(outputDir, scheme+".ipa")
	if err := zipDirectoryAs(appPath, filepath.Join("Payload", scheme+".app"), destIPA); err != nil {
		return "", err
	}
	return destIPA, nil
}

// buildHostApp runs xcodebuild against an on-disk Xcode project to produce
// a real device .app bundle, the input PackageIPA zips into an .ipa.
func buildHostApp(ctx context.Context, projectPath, scheme, buildDir string, method SigningMethod) (string, error) {
	args := []string{
		"-project", projectPath,
		"-scheme", scheme,
		"-destination", "generic/platform=iOS",
		"-configuration", "Debug",
		"-derivedDataPath", buildDir,
		"build",
	}
	switch method {
	case SigningDevelopment:
		args = append(args, "CODE_SIGN_STYLE=Automatic", "CODE_SIGN_IDENTITY=iPhone Developer")
	default:
		args = append(args, "CODE_SIGNING_REQUIRED=NO", "CODE_SIGNING_ALLOWED=NO")
	}

	_, buildErr := runCommand(ctx, "", "xcodebuild", args...)
	appPath := filepath.Join(buildDir, "Build/Products/Debug-iphoneos", scheme+".app")
	if _, statErr := os.Stat(appPath); statErr != nil {
		if buildErr != nil {
			return "", skerr.Wrapf(buildErr, "xcodebuild did not produce %s", appPath)
		}
		return "", skerr.Fmt("xcodebuild exited cleanly but %s was not created", appPath)
	}
	if buildErr != nil {
		sklog.Warningf("xcodebuild build exited non-zero but %s was produced anyway: %v", appPath, buildErr)
	}

	if method == SigningAdHoc {
		if _, err := runCommand(ctx, "", "codesign", "--force", "--deep", "--sign", iosAdHocIdentity, appPath); err != nil {
			sklog.Warningf("ad-hoc codesign of %s failed; device-farm install may reject it: %v", appPath, err)
		}
	}
	return appPath, nil
}

// PackageXCUITest runs `xcodebuild build-for-testing` against projectPath's
// scheme with signing disabled (BrowserStack/device-farm runs provide their
// own provisioning) and zips the resulting UI-test runner app into a
// {scheme}UITests.zip under outputDir.
func PackageXCUITest(ctx context.Context, projectPath, scheme, outputDir string) (string, error) {
	if _, err := os.Stat(projectPath); err != nil {
		return "", skerr.Wrapf(err, "xcode project not found at %s; run `mobench build --target ios` first", projectPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", skerr.Wrap(err)
	}

	buildDir := filepath.Join(outputDir, "build")
	args := []string{
		"build-for-testing",
		"-project", projectPath,
		"-scheme", scheme,
		"-destination", "generic/platform=iOS",
		"-sdk", "iphoneos",
		"-configuration", "Release",
		"-derivedDataPath", buildDir,
		"VALIDATE_PRODUCT=NO",
		"CODE_SIGN_STYLE=Manual",
		"CODE_SIGN_IDENTITY=",
		"CODE_SIGNING_ALLOWED=NO",
		"CODE_SIGNING_REQUIRED=NO",
		"DEVELOPMENT_TEAM=",
		"PROVISIONING_PROFILE_SPECIFIER=",
		"ENABLE_BITCODE=NO",
		"BITCODE_GENERATION_MODE=none",
		"STRIP_BITCODE_FROM_COPIED_FILES=NO",
	}

	runnerName := scheme + "UITests-Runner.app"
	runnerPath := filepath.Join(buildDir, "Build/Products/Release-iphoneos", runnerName)

	out, buildErr := runCommand(ctx, "", "xcodebuild", args...)
	if buildErr != nil {
		logPath := filepath.Join(outputDir, "xcuitest-build.log")
		_ = os.WriteFile(logPath, []byte(out), 0o644)
		sklog.Warningf("xcodebuild build-for-testing log written to %s", logPath)
	}
	if _, statErr := os.Stat(runnerPath); statErr != nil {
		if buildErr != nil {
			return "", skerr.Wrapf(buildErr, "xcodebuild build-for-testing did not produce %s", runnerPath)
		}
		return "", skerr.Fmt("xcodebuild build-for-testing exited cleanly but %s was not created", runnerPath)
	}
	if buildErr != nil {
		sklog.Warningf("xcodebuild build-for-testing exited non-zero but %s was produced anyway: %v", runnerPath, buildErr)
	}

	destZip := filepath.Join(outputDir, scheme+"UITests.zip")
	if err := zipDirectoryAs(runnerPath, runnerName, destZip); err != nil {
		return "", err
	}
	return destZip, nil
}

func zipDirectoryAs(srcDir, archiveRoot, destZip string) error {
	out, err := os.Create(destZip)
	if err != nil {
		return skerr.Wrapf(err, "creating archive %s", destZip)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	defer w.Close()

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		entryName := filepath.Join(archiveRoot, rel)
		if info.IsDir() {
			return nil
		}
		writer, err := w.Create(entryName)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(writer, f)
		return err
	})
}
