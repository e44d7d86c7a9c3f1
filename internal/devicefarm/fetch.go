package devicefarm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/worldcoin/mobench/internal/results"
	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/sklog"
	"github.com/worldcoin/mobench/internal/types"
)

// DeviceResult is one device's fetched and parsed results.
type DeviceResult struct {
	Device      string
	Report      types.BenchReport
	Performance types.PerformanceMetrics
	FetchErr    error
}

// WaitAndFetchAllResults polls buildID to completion, then fetches and
// parses every device's log in parallel (the one place in mobench
// permitted to run concurrently, since the client holds no per-call
// state). A per-device fetch or parse failure is a warning, not fatal;
// the call only fails once zero devices across the whole run yielded a
// parsed BenchReport.
func (c *Client) WaitAndFetchAllResults(ctx context.Context, platform types.Target, buildID string, timeout, pollInterval time.Duration) ([]DeviceResult, error) {
	status, err := c.PollBuild(ctx, platform, buildID, timeout, pollInterval)
	if err != nil {
		return nil, err
	}

	resultsByDevice := make([]DeviceResult, len(status.Devices))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, session := range status.Devices {
		i, session := i, session
		g.Go(func() error {
			dr := DeviceResult{Device: session.Device}
			logs, err := c.GetDeviceLogs(gctx, platform, buildID, session.SessionID)
			if err != nil {
				sklog.Warningf("fetching logs for %s: %v", session.Device, err)
				dr.FetchErr = err
				mu.Lock()
				resultsByDevice[i] = dr
				mu.Unlock()
				return nil
			}

			if report, ok := results.ExtractBenchReport(logs); ok {
				dr.Report = report
			} else {
				sklog.Warningf("no parsed benchmark report in logs for %s", session.Device)
			}
			dr.Performance = results.AggregatePerformance(results.ExtractPerformanceSnapshots(logs))

			mu.Lock()
			resultsByDevice[i] = dr
			mu.Unlock()
			return nil
		})
	}
	// errgroup's Go never returns a real error here (each goroutine
	// swallows its own failure into DeviceResult), so Wait can't fail.
	_ = g.Wait()

	anyReport := false
	for _, dr := range resultsByDevice {
		if dr.Report.Samples != nil || dr.Report.Spec.Name != "" {
			anyReport = true
			break
		}
	}
	if !anyReport {
		return resultsByDevice, skerr.Fmt("no device yielded a parsed benchmark report for build %s", buildID)
	}
	return resultsByDevice, nil
}
