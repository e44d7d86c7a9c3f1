// Package report renders a RunSummary into mobench's output formats
// (JSON, Markdown, CSV, JUnit) and computes regression deltas between a
// baseline and candidate summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/stats"
	"github.com/worldcoin/mobench/internal/types"
)

// WriteJSON writes the full RunSummary as summary.json.
func WriteJSON(path string, summary types.RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return skerr.Wrap(err)
	}
	return writeFile(path, data)
}

// WriteMarkdown writes one section per device with a tabular stats
// block, mirroring the layout `summary --format=text` prints to the
// terminal via tablewriter.
func WriteMarkdown(path string, summary types.SummaryReport) error {
	md := RenderMarkdown(summary)
	if err := writeFile(path, []byte(md)); err != nil {
		return err
	}
	if stepSummary := os.Getenv("GITHUB_STEP_SUMMARY"); stepSummary != "" {
		f, err := os.OpenFile(stepSummary, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return skerr.Wrapf(err, "appending to GITHUB_STEP_SUMMARY at %s", stepSummary)
		}
		defer f.Close()
		if _, err := f.WriteString(md); err != nil {
			return skerr.Wrapf(err, "writing to GITHUB_STEP_SUMMARY at %s", stepSummary)
		}
	}
	return nil
}

// RenderMarkdown builds the Markdown report text.
func RenderMarkdown(summary types.SummaryReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# mobench summary\n\n")
	fmt.Fprintf(&b, "Target: %s · Function: %s · Iterations: %d · Warmup: %d\n\n", summary.Target, summary.Function, summary.Iterations, summary.Warmup)

	for _, ds := range summary.DeviceSummaries {
		fmt.Fprintf(&b, "## %s\n\n", ds.Device)
		fmt.Fprintf(&b, "| function | count | mean | median | p95 | min | max |\n")
		fmt.Fprintf(&b, "|---|---|---|---|---|---|---|\n")
		for _, s := range ds.Stats {
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s |\n",
				s.Function, s.Stats.Count,
				stats.HumanDuration(float64(s.Stats.MeanNs)),
				stats.HumanDuration(s.Stats.MedianNs),
				stats.HumanDuration(float64(s.Stats.P95Ns)),
				stats.HumanDuration(float64(s.Stats.MinNs)),
				stats.HumanDuration(float64(s.Stats.MaxNs)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderText renders the summary as a terminal table via tablewriter,
// for `summary --format=text`.
func RenderText(summary types.SummaryReport) string {
	var b strings.Builder
	for _, ds := range summary.DeviceSummaries {
		fmt.Fprintf(&b, "%s\n", ds.Device)
		table := tablewriter.NewWriter(&b)
		table.SetHeader([]string{"function", "count", "mean", "median", "p95", "min", "max"})
		for _, s := range ds.Stats {
			table.Append([]string{
				s.Function, fmt.Sprint(s.Stats.Count),
				stats.HumanDuration(float64(s.Stats.MeanNs)),
				stats.HumanDuration(s.Stats.MedianNs),
				stats.HumanDuration(float64(s.Stats.P95Ns)),
				stats.HumanDuration(float64(s.Stats.MinNs)),
				stats.HumanDuration(float64(s.Stats.MaxNs)),
			})
		}
		table.Render()
		b.WriteString("\n")
	}
	return b.String()
}

// WriteCSV writes one row per (device, function).
func WriteCSV(path string, summary types.SummaryReport) error {
	data, err := RenderCSV(summary)
	if err != nil {
		return err
	}
	return writeFile(path, []byte(data))
}

// RenderCSV builds the CSV text directly, for callers (like `summary
// --format=csv`) that want the content without going through a file.
func RenderCSV(summary types.SummaryReport) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"device", "function", "count", "mean_ns", "median_ns", "p95_ns", "min_ns", "max_ns"}); err != nil {
		return "", skerr.Wrap(err)
	}
	for _, ds := range summary.DeviceSummaries {
		for _, s := range ds.Stats {
			row := []string{
				ds.Device, s.Function,
				fmt.Sprint(s.Stats.Count), fmt.Sprint(s.Stats.MeanNs),
				fmt.Sprintf("%.1f", s.Stats.MedianNs), fmt.Sprint(s.Stats.P95Ns),
				fmt.Sprint(s.Stats.MinNs), fmt.Sprint(s.Stats.MaxNs),
			}
			if err := w.Write(row); err != nil {
				return "", skerr.Wrap(err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", skerr.Wrap(err)
	}
	return b.String(), nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return skerr.Wrapf(err, "writing %s", path)
	}
	return nil
}

// junitTestSuite and junitTestCase model the shape `encoding/xml` emits
// for a JUnit report: one <testcase> per (device, function), with a
// <failure> attached when that row is a reported regression.
type junitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	TestCases []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	ClassName string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	SystemOut string        `xml:"system-out,omitempty"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// WriteJUnit writes one <testcase> per (device, function), attaching a
// <failure> for any case named in regressions.
func WriteJUnit(path string, summary types.SummaryReport, regressions []Regression) error {
	regressed := map[string]Regression{}
	for _, r := range regressions {
		regressed[r.Device+"::"+r.Function] = r
	}

	suite := junitTestSuite{Name: "mobench"}
	for _, ds := range summary.DeviceSummaries {
		for _, s := range ds.Stats {
			tc := junitTestCase{
				ClassName: ds.Device,
				Name:      s.Function,
				SystemOut: fmt.Sprintf("mean=%s median=%s p95=%s",
					stats.HumanDuration(float64(s.Stats.MeanNs)),
					stats.HumanDuration(s.Stats.MedianNs),
					stats.HumanDuration(float64(s.Stats.P95Ns))),
			}
			if r, regressed := regressed[ds.Device+"::"+s.Function]; regressed {
				tc.Failure = &junitFailure{
					Message: fmt.Sprintf("%s regressed by %.1f%%", r.Metric, r.DeltaPercent),
					Text:    fmt.Sprintf("baseline=%.0f candidate=%.0f", r.BaselineValue, r.CandidateValue),
				}
				suite.Failures++
			}
			suite.Tests++
			suite.TestCases = append(suite.TestCases, tc)
		}
	}

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return skerr.Wrap(err)
	}
	return writeFile(path, append([]byte(xml.Header), data...))
}
