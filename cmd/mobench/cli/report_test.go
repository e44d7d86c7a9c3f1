package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v2"

	"github.com/worldcoin/mobench/internal/report"
)

func TestCompareCommand_DefaultThresholdMatchesReportDefault(t *testing.T) {
	cmd := compareCommand()
	require.Equal(t, "compare", cmd.Name)

	var found bool
	for _, f := range cmd.Flags {
		if ff, ok := f.(*cli.Float64Flag); ok && ff.Name == "threshold" {
			assert.Equal(t, report.DefaultThresholdPercent, ff.Value)
			found = true
		}
	}
	assert.True(t, found, "compare command must expose a --threshold flag")
}

func TestSummaryCommand_DefaultsToTextFormat(t *testing.T) {
	cmd := summaryCommand()
	require.Equal(t, "summary", cmd.Name)

	for _, f := range cmd.Flags {
		if ff, ok := f.(*cli.StringFlag); ok && ff.Name == "format" {
			assert.Equal(t, "text", ff.Value)
			return
		}
	}
	t.Fatal("summary command must expose a --format flag")
}
