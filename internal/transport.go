package internal

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

// NewUpstream creates an http.Client tuned for many concurrent API fetches
// across a handful of hosts. An rpm of zero leaves the client unthrottled.
func NewUpstream(cfg SearchConfig, rpm int) (*http.Client, error) {
	tr := &http.Transport{
		MaxIdleConns:        1000,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     90 * time.Second,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	var rt http.RoundTripper = headerTransport{
		userAgent:    cfg.UserAgent,
		RoundTripper: tr,
	}
	if rpm > 0 {
		rt = throttledTransport{
			Limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
			RoundTripper: rt,
		}
	}

	return &http.Client{Transport: rt, Timeout: cfg.RequestTimeout}, nil
}

// throttledTransport rate limits requests.
type throttledTransport struct {
	http.RoundTripper
	*rate.Limiter
}

func (t throttledTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(r.Context()); err != nil {
		return nil, err
	}
	resp, err := t.RoundTripper.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	// Back off for a minute if the upstream starts rate limiting us.
	if resp.StatusCode == http.StatusTooManyRequests {
		slog.Default().Warn("backing off after 429", "limit", t.Limiter.Limit(), "tokens", t.Limiter.Tokens())
		orig := t.Limiter.Limit()
		t.Limiter.SetLimit(rate.Every(time.Hour / 60))          // 1RPM
		t.Limiter.SetLimitAt(time.Now().Add(time.Minute), orig) // Restore
	}

	return resp, nil
}

// headerTransport identifies us to upstreams on every request.
type headerTransport struct {
	userAgent string
	http.RoundTripper
}

func (t headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r.Header.Set("User-Agent", t.userAgent)
	return t.RoundTripper.RoundTrip(r)
}
