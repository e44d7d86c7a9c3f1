// Package httputils supplies the one piece of HTTP plumbing mobench needs
// beyond net/http itself: a retrying RoundTripper for idempotent GET
// calls (status polling, log fetch, device catalog fetch). It's
// deliberately never applied to mutating POST calls (upload, schedule),
// which fail fast on the caller's first attempt.
package httputils

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackOffConfig tunes the retry transport's exponential backoff.
type BackOffConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	MaxElapsedTime      time.Duration
	RandomizationFactor float64
	Multiplier          float64
}

// DefaultBackOffConfig is used by every GET client unless a caller
// overrides it; tuned to retry a handful of times within at most 30
// seconds, not to survive a prolonged outage.
var DefaultBackOffConfig = BackOffConfig{
	InitialInterval:     200 * time.Millisecond,
	MaxInterval:         5 * time.Second,
	MaxElapsedTime:      30 * time.Second,
	RandomizationFactor: 0.5,
	Multiplier:          1.5,
}

type backOffTransport struct {
	config BackOffConfig
	wrap   http.RoundTripper
}

// NewConfiguredBackOffTransport wraps wrap in a RoundTripper that retries
// on transport errors and 5xx responses, using an exponential backoff
// policy derived from config. A 4xx response is never retried — the
// caller made a bad request and retrying it would just repeat the
// mistake.
func NewConfiguredBackOffTransport(config BackOffConfig, wrap http.RoundTripper) http.RoundTripper {
	if wrap == nil {
		wrap = http.DefaultTransport
	}
	return &backOffTransport{config: config, wrap: wrap}
}

func (t *backOffTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	eb := &backoff.ExponentialBackOff{
		InitialInterval:     t.config.InitialInterval,
		MaxInterval:         t.config.MaxInterval,
		MaxElapsedTime:      t.config.MaxElapsedTime,
		RandomizationFactor: t.config.RandomizationFactor,
		Multiplier:          t.config.Multiplier,
		Clock:               backoff.SystemClock,
	}
	eb.Reset()

	var resp *http.Response
	var err error
	op := func() error {
		resp, err = t.wrap.RoundTrip(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return retriableStatus{resp.StatusCode}
		}
		return nil
	}

	ctx := req.Context()
	retryErr := backoff.Retry(op, backoff.WithContext(eb, ctx))
	if retryErr != nil && resp == nil {
		return nil, retryErr
	}
	return resp, nil
}

type retriableStatus struct{ code int }

func (r retriableStatus) Error() string { return http.StatusText(r.code) }
