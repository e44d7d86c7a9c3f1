package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcoin/mobench/internal/report"
	"github.com/worldcoin/mobench/internal/types"
)

func writeSummaryFile(t *testing.T, path string, s types.SummaryReport) {
	t.Helper()
	require.NoError(t, report.WriteJSON(path, types.RunSummary{Summary: s}))
}

func sampleSummaryReport() types.SummaryReport {
	return types.SummaryReport{
		Target:   types.TargetAndroid,
		Function: "decode",
		Devices:  []string{"Pixel7"},
		DeviceSummaries: []types.DeviceSummary{
			{Device: "Pixel7", Stats: []types.DeviceBenchStats{
				{Function: "decode", Stats: types.Stats{Count: 10, MeanNs: 1000, MedianNs: 1000, P95Ns: 1200, MinNs: 900, MaxNs: 1300}},
			}},
		},
	}
}

func TestCompareSummariesDetectsRegression(t *testing.T) {
	dir := t.TempDir()
	baselinePath := filepath.Join(dir, "baseline.json")
	candidatePath := filepath.Join(dir, "candidate.json")

	writeSummaryFile(t, baselinePath, sampleSummaryReport())

	candidate := sampleSummaryReport()
	candidate.DeviceSummaries[0].Stats[0].Stats.MedianNs = 1300
	writeSummaryFile(t, candidatePath, candidate)

	regressions, err := CompareSummaries(baselinePath, candidatePath, 5.0)
	require.NoError(t, err)
	require.Len(t, regressions, 1)
	assert.Equal(t, "median", regressions[0].Metric)
}

func TestCompareSummariesNoRegressionWhenStable(t *testing.T) {
	dir := t.TempDir()
	baselinePath := filepath.Join(dir, "baseline.json")
	candidatePath := filepath.Join(dir, "candidate.json")

	writeSummaryFile(t, baselinePath, sampleSummaryReport())
	writeSummaryFile(t, candidatePath, sampleSummaryReport())

	regressions, err := CompareSummaries(baselinePath, candidatePath, 5.0)
	require.NoError(t, err)
	assert.Empty(t, regressions)
}

func TestCompareSummariesFailsOnMissingFile(t *testing.T) {
	_, err := CompareSummaries("/tmp/does-not-exist-baseline.json", "/tmp/does-not-exist-candidate.json", 5.0)
	assert.Error(t, err)
}

func TestRunLocalOnlySkipsBuildAndDeviceFarm(t *testing.T) {
	outputDir := t.TempDir()
	result, err := Run(context.Background(), Options{
		Target:     types.TargetAndroid,
		Function:   "samplebench::fibonacci",
		Iterations: 5,
		Warmup:     1,
		Profile:    types.ProfileDebug,
		OutputDir:  outputDir,
		LocalOnly:  true,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Summary.Build)

	_, err = os.Stat(filepath.Join(outputDir, "summary.json"))
	assert.NoError(t, err)
}
