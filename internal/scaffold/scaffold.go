// Package scaffold renders template directories into a destination path:
// text files pass through Go templates (with sprig helpers) for
// `{{.Var}}`-style substitution; everything else is copied verbatim. Used
// by `init-sdk` (new benchmark project) and `ci init` (starter workflow).
package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/Masterminds/sprig"
	cp "github.com/otiai10/copy"

	"github.com/worldcoin/mobench/internal/skerr"
)

// templatedExtensions lists the file extensions rendered through
// text/template; every other file is copied byte-for-byte (binary assets,
// image fixtures, prebuilt archives).
var templatedExtensions = map[string]bool{
	".toml": true, ".yml": true, ".yaml": true, ".swift": true,
	".kt": true, ".gradle": true, ".md": true, ".json": true,
	".xml": true, ".plist": true, "": true,
}

// Render copies srcDir to destDir, substituting `{{.Key}}` tokens in
// text files from data. After rendering, it scans every templated file
// for unreplaced `{{` tokens and fails loudly rather than ship a broken
// template.
func Render(srcDir, destDir string, data map[string]string) error {
	if err := cp.Copy(srcDir, destDir); err != nil {
		return skerr.Wrapf(err, "copying scaffold from %s to %s", srcDir, destDir)
	}

	tmpl, err := template.New("scaffold").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse("")
	if err != nil {
		return skerr.Wrap(err)
	}

	return filepath.Walk(destDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !templatedExtensions[filepath.Ext(path)] {
			return nil
		}
		return renderFile(tmpl, path, info.Mode(), data)
	})
}

func renderFile(base *template.Template, path string, mode os.FileMode, data map[string]string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return skerr.Wrapf(err, "reading scaffold file %s", path)
	}

	t, err := base.Clone()
	if err != nil {
		return skerr.Wrap(err)
	}
	t, err = t.Parse(string(raw))
	if err != nil {
		return skerr.Wrapf(err, "parsing scaffold template %s", path)
	}

	var out bytes.Buffer
	if err := t.Execute(&out, data); err != nil {
		return skerr.Wrapf(err, "rendering scaffold template %s", path)
	}

	if m := unreplacedTokenPattern.FindString(out.String()); m != "" {
		return skerr.Fmt("unreplaced template token %q left in %s after rendering", m, path)
	}

	return os.WriteFile(path, out.Bytes(), mode.Perm())
}

var unreplacedTokenPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)
