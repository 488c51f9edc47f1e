// Package resolve follows email tracking redirects to the real destination URL.
package resolve

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aktagon/newsletter-wrapper/internal/logger"
)

// DefaultMaxHops bounds how many redirects a single URL may follow.
const DefaultMaxHops = 5

// TrackingChecker reports whether a URL belongs to a redirecting tracking host.
type TrackingChecker interface {
	IsTracking(url string) bool
}

// Resolver follows HEAD redirects while the current URL is a tracking URL.
type Resolver struct {
	tracking TrackingChecker
	maxHops  int
	log      logger.Logger
}

// New creates a Resolver. maxHops <= 0 selects DefaultMaxHops.
func New(tracking TrackingChecker, maxHops int, log logger.Logger) *Resolver {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{tracking: tracking, maxHops: maxHops, log: log}
}

// Resolve returns the destination of rawURL. Non-tracking URLs are returned without any
// request. Any failure returns the last URL reached; Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context, client *http.Client, rawURL string) string {
	client = WithoutRedirects(client)
	current := rawURL
	visited := map[string]bool{current: true}

	for hop := 0; hop < r.maxHops; hop++ {
		if !r.tracking.IsTracking(current) {
			return current
		}

		next, ok := r.step(ctx, client, current)
		if !ok {
			return current
		}
		if visited[next] {
			r.log.Debug("Redirect cycle detected", logger.URL(current), logger.String("location", next))
			return current
		}
		visited[next] = true
		current = next
	}
	return current
}

// step issues one HEAD request and returns the absolute Location target.
func (r *Resolver) step(ctx context.Context, client *http.Client, current string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, current, http.NoBody)
	if err != nil {
		return "", false
	}

	resp, err := client.Do(req)
	if err != nil {
		r.log.Warn("Redirect lookup failed", logger.URL(current), logger.Err(err))
		return "", false
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", false
	}

	base, err := url.Parse(current)
	if err != nil {
		return "", false
	}
	target, err := base.Parse(location)
	if err != nil {
		r.log.Debug("Invalid redirect location", logger.URL(current), logger.String("location", location))
		return "", false
	}
	return target.String(), true
}

// WithoutRedirects returns a shallow copy of client that stops at the first response
// instead of following redirects. A nil client copies http.DefaultClient.
func WithoutRedirects(client *http.Client) *http.Client {
	if client == nil {
		client = http.DefaultClient
	}
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}
