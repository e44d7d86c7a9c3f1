package report

import (
	"github.com/worldcoin/mobench/internal/types"
)

// DefaultThresholdPercent is the regression threshold applied when the
// caller doesn't configure one explicitly.
const DefaultThresholdPercent = 5.0

// Regression describes one (device, function, metric) pair whose
// candidate value regressed past the configured threshold relative to
// its baseline.
type Regression struct {
	Device         string
	Function       string
	Metric         string // "median" or "p95"
	BaselineValue  float64
	CandidateValue float64
	DeltaPercent   float64
}

// Detect joins baseline and candidate on (device, function) and reports
// any row whose median or p95 grew by more than thresholdPercent. Rows
// present in only one of the two reports are skipped: there's nothing
// to compare them against. A baseline value of zero is skipped too,
// since delta-percent against zero is undefined.
func Detect(baseline, candidate types.SummaryReport, thresholdPercent float64) []Regression {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultThresholdPercent
	}

	baselineByKey := map[string]types.Stats{}
	for _, ds := range baseline.DeviceSummaries {
		for _, s := range ds.Stats {
			baselineByKey[ds.Device+"::"+s.Function] = s.Stats
		}
	}

	var regressions []Regression
	for _, ds := range candidate.DeviceSummaries {
		for _, s := range ds.Stats {
			key := ds.Device + "::" + s.Function
			base, ok := baselineByKey[key]
			if !ok {
				continue
			}
			if base.MedianNs > 0 {
				if r, regressed := checkDelta(ds.Device, s.Function, "median", base.MedianNs, s.Stats.MedianNs, thresholdPercent); regressed {
					regressions = append(regressions, r)
				}
			}
			if base.P95Ns > 0 {
				if r, regressed := checkDelta(ds.Device, s.Function, "p95", float64(base.P95Ns), float64(s.Stats.P95Ns), thresholdPercent); regressed {
					regressions = append(regressions, r)
				}
			}
		}
	}
	return regressions
}

func checkDelta(device, function, metric string, baselineValue, candidateValue, thresholdPercent float64) (Regression, bool) {
	deltaPercent := (candidateValue - baselineValue) / baselineValue * 100
	if deltaPercent <= thresholdPercent {
		return Regression{}, false
	}
	return Regression{
		Device:         device,
		Function:       function,
		Metric:         metric,
		BaselineValue:  baselineValue,
		CandidateValue: candidateValue,
		DeltaPercent:   deltaPercent,
	}, true
}
