package provenance

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAgainstTempRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	run("commit", "--allow-empty", "-q", "-m", "initial")

	info := Resolve(context.Background(), dir)
	assert.NotEmpty(t, info.Commit)
	require.NotNil(t, info.Dirty)
	assert.False(t, *info.Dirty)
}

func TestResolveNonGitDirectoryLeavesFieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	info := Resolve(context.Background(), dir)
	assert.Empty(t, info.Commit)
	assert.Empty(t, info.Branch)
	assert.Nil(t, info.Dirty)
}
