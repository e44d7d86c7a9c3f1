package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/worldcoin/mobench/internal/types"
)

func TestPrintDiagnostics_AllOKReturnsTrue(t *testing.T) {
	ok := printDiagnostics([]diagnostic{
		{Name: "cargo", OK: true, Detail: "found on PATH"},
	}, "text")
	assert.True(t, ok)
}

func TestPrintDiagnostics_WarnDoesNotFailTheRun(t *testing.T) {
	ok := printDiagnostics([]diagnostic{
		{Name: "ios-resources", Warn: true, Detail: "not present"},
	}, "text")
	assert.True(t, ok, "a warning-only diagnostic should not fail the overall check")
}

func TestPrintDiagnostics_FailureReturnsFalse(t *testing.T) {
	ok := printDiagnostics([]diagnostic{
		{Name: "gradle", Detail: "not found on PATH"},
	}, "json")
	assert.False(t, ok)
}

func TestCheckTool_NotFoundOnPath(t *testing.T) {
	d := checkTool("definitely-not-a-real-binary-xyz", "https://example.com")
	assert.False(t, d.OK)
	assert.Contains(t, d.Detail, "not found on PATH")
}

func TestCheckHostTools_AndroidOnlyOmitsIOSTools(t *testing.T) {
	diags := checkHostTools(types.TargetAndroid)
	var names []string
	for _, d := range diags {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "cargo")
	assert.Contains(t, names, "gradle")
	assert.NotContains(t, names, "lipo")
}

func TestCheckHostTools_BothIncludesEveryTool(t *testing.T) {
	diags := checkHostTools(types.TargetBoth)
	var names []string
	for _, d := range diags {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "gradle")
	assert.Contains(t, names, "lipo")
	assert.Contains(t, names, "codesign")
}
