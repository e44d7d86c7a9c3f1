package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesTokensInTextFiles(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "Cargo.toml"), []byte(`name = "{{.ProjectName}}"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "logo.png"), []byte{0xff, 0xd8, 0xff}, 0o644))

	dest := filepath.Join(t.TempDir(), "out")
	err := Render(src, dest, map[string]string{"ProjectName": "widget-bench"})
	require.NoError(t, err)

	rendered, err := os.ReadFile(filepath.Join(dest, "Cargo.toml"))
	require.NoError(t, err)
	assert.Equal(t, `name = "widget-bench"`, string(rendered))

	binary, err := os.ReadFile(filepath.Join(dest, "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, binary)
}

func TestRenderFailsOnUnreplacedToken(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "config.yaml"), []byte("name: {{.Missing}}\nother: {{.ProjectName}}"), 0o644))

	dest := filepath.Join(t.TempDir(), "out")
	err := Render(src, dest, map[string]string{"ProjectName": "x"})
	assert.Error(t, err)
}
