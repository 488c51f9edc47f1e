package enrich

import (
	"errors"
	"net/http"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// ErrQuotaExhausted is returned by a worker's transport once its request budget is spent.
var ErrQuotaExhausted = errors.New("outbound request quota exhausted")

// quotaTransport enforces a per-worker outbound request budget and pacing.
type quotaTransport struct {
	base      http.RoundTripper
	limiter   *rate.Limiter
	remaining atomic.Int64
	unlimited bool
}

// newQuotaTransport wraps base. requests <= 0 means no budget; perSecond <= 0 means no pacing.
func newQuotaTransport(base http.RoundTripper, requests int, perSecond float64) *quotaTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &quotaTransport{base: base, unlimited: requests <= 0}
	t.remaining.Store(int64(requests))
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return t
}

func (t *quotaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.unlimited && t.remaining.Add(-1) < 0 {
		return nil, ErrQuotaExhausted
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return t.base.RoundTrip(req)
}

// Remaining reports how many requests the budget still allows.
func (t *quotaTransport) Remaining() int {
	if t.unlimited {
		return -1
	}
	return int(max(t.remaining.Load(), 0))
}

// newWorkerClient returns a client that shares base's settings but owns its own budget.
func newWorkerClient(base *http.Client, requests int, perSecond float64) (*http.Client, *quotaTransport) {
	if base == nil {
		base = http.DefaultClient
	}
	c := *base
	qt := newQuotaTransport(base.Transport, requests, perSecond)
	c.Transport = qt
	return &c, qt
}
