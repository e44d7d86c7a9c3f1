// Package results extracts BenchReports and performance snapshots from
// raw device-log text captured off a scheduled run.
package results

import (
	"encoding/json"
	"strings"

	"github.com/worldcoin/mobench/internal/types"
)

const (
	androidMarker  = "BENCH_JSON "
	iosStartMarker = "BENCH_REPORT_JSON_START"
	iosEndMarker   = "BENCH_REPORT_JSON_END"
)

// ExtractBenchReport scans log for the last Android single-line report
// and returns it if it parses; only otherwise does it fall back to the
// last iOS multi-line marker region. Returns ok=false when no marker is
// present — that's an expected shape for a log that predates the
// benchmark completing.
func ExtractBenchReport(log string) (report types.BenchReport, ok bool) {
	if r, found := extractAndroid(log); found {
		return r, true
	}
	if r, found := extractIOS(log); found {
		return r, true
	}
	return types.BenchReport{}, false
}

func extractAndroid(log string) (types.BenchReport, bool) {
	var lastPayload string
	for _, line := range strings.Split(log, "\n") {
		idx := strings.Index(line, androidMarker)
		if idx == -1 {
			continue
		}
		lastPayload = strings.TrimSpace(line[idx+len(androidMarker):])
	}
	if lastPayload == "" {
		return types.BenchReport{}, false
	}
	var report types.BenchReport
	if err := json.Unmarshal([]byte(lastPayload), &report); err != nil {
		return types.BenchReport{}, false
	}
	return report, true
}

func extractIOS(log string) (types.BenchReport, bool) {
	region, found := lastRegion(log, iosStartMarker, iosEndMarker)
	if !found {
		return types.BenchReport{}, false
	}

	if report, ok := tryParse(strings.TrimSpace(region)); ok {
		return report, true
	}

	for _, line := range strings.Split(region, "\n") {
		trimmed := strings.TrimSpace(line)
		start := strings.Index(trimmed, "{")
		if start == -1 {
			continue
		}
		if extracted, ok := BraceBalanced(trimmed[start:]); ok {
			if report, ok := tryParse(extracted); ok {
				return report, true
			}
		}
	}

	var stripped strings.Builder
	for _, line := range strings.Split(region, "\n") {
		stripped.WriteString(stripLogPrefix(line))
	}
	joined := strings.TrimSpace(stripped.String())
	start := strings.Index(joined, "{")
	if start == -1 {
		return types.BenchReport{}, false
	}
	if extracted, ok := BraceBalanced(joined[start:]); ok {
		if report, ok := tryParse(extracted); ok {
			return report, true
		}
	}

	return types.BenchReport{}, false
}

// tryParse parses s as a BenchReport, rejecting both invalid JSON and a
// JSON object that happens to unmarshal without error but carries none of
// a real report's fields — which is what a brace-balanced fragment of a
// *nested* object (e.g. one sample's "{"duration_ns":7}") decodes to.
// Without this check that nested-fragment match looks like success and
// short-circuits extractIOS's later, correct fallbacks.
func tryParse(s string) (types.BenchReport, bool) {
	var report types.BenchReport
	if err := json.Unmarshal([]byte(s), &report); err != nil {
		return types.BenchReport{}, false
	}
	if report.Spec.Name == "" && len(report.Samples) == 0 {
		return types.BenchReport{}, false
	}
	return report, true
}

// lastRegion returns the text between the last occurrence of start and
// the end marker following it.
func lastRegion(log, start, end string) (string, bool) {
	lastStart := strings.LastIndex(log, start)
	if lastStart == -1 {
		return "", false
	}
	afterStart := log[lastStart+len(start):]
	endIdx := strings.Index(afterStart, end)
	if endIdx == -1 {
		return "", false
	}
	return afterStart[:endIdx], true
}

// stripLogPrefix removes everything up to and including the first `"] "`
// in a line, which is how OS loggers prefix application log output with a
// timestamp and process/thread tag.
func stripLogPrefix(line string) string {
	if idx := strings.Index(line, "] "); idx != -1 {
		return line[idx+2:]
	}
	return line
}

// BraceBalanced reads s starting from its first '{' and returns the
// substring up to and including the matching closing '}', tracking string
// and escape state so braces inside string literals don't confuse the
// count. Returns ok=false if s doesn't start with '{' or the braces never
// balance.
func BraceBalanced(s string) (string, bool) {
	if len(s) == 0 || s[0] != '{' {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
