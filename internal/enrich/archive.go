package enrich

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/aktagon/newsletter-wrapper/internal/resolve"
)

// DefaultArchiveEndpoint is the archive mirror's "newest snapshot" lookup prefix.
const DefaultArchiveEndpoint = "https://archive.today/newest/"

var archiveURLRe = regexp.MustCompile(`archive\.(?:is|today|ph|md)/\w+`)

// ArchiveFinder looks up the newest archived snapshot of a page.
type ArchiveFinder struct {
	Endpoint string
}

// NewArchiveFinder returns a finder using DefaultArchiveEndpoint.
func NewArchiveFinder() *ArchiveFinder {
	return &ArchiveFinder{Endpoint: DefaultArchiveEndpoint}
}

// Find returns the snapshot URL for pageURL. It reports false when no snapshot is known
// or the lookup fails.
func (a *ArchiveFinder) Find(ctx context.Context, client *http.Client, pageURL string) (string, bool) {
	lookup := a.Endpoint + url.QueryEscape(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, lookup, http.NoBody)
	if err != nil {
		return "", false
	}

	resp, err := resolve.WithoutRedirects(client).Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if location := resp.Header.Get("Location"); location != "" && archiveURLRe.MatchString(location) {
		return location, true
	}

	if resp.StatusCode == http.StatusOK {
		final := resp.Request.URL.String()
		if archiveURLRe.MatchString(final) && !strings.Contains(final, "/newest/") {
			return final, true
		}
	}
	return "", false
}
