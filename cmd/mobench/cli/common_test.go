package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_RegistersEverySubcommand(t *testing.T) {
	app := NewApp("test-version")
	require.Equal(t, "mobench", app.Name)
	require.Equal(t, "test-version", app.Version)

	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	for _, want := range []string{
		"init", "init-sdk", "plan", "doctor", "check", "devices", "list",
		"verify", "build", "package-ipa", "package-xcuitest", "run",
		"fetch", "compare", "summary", "ci",
	} {
		assert.Contains(t, names, want)
	}
}

func TestCorrelationID_EmptyWithoutValue(t *testing.T) {
	assert.Equal(t, "", correlationID(context.Background()))
}

func TestCorrelationID_RoundTrips(t *testing.T) {
	ctx := context.WithValue(context.Background(), correlationIDKey{}, "abc-123")
	assert.Equal(t, "abc-123", correlationID(ctx))
}
