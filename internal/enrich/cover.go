package enrich

import (
	"context"
	"strings"

	"github.com/aktagon/newsletter-wrapper/internal/logger"
	"github.com/aktagon/newsletter-wrapper/internal/page"
)

// newsletterPagePath marks the publisher's own newsletter pages, which carry a generic image.
const newsletterPagePath = "bloomberg.com/opinion/newsletters"

// CoverImage samples the first resolved article URLs of res and returns the first
// open-graph image found, also recording it on the link it came from. Pages are fetched
// one at a time and the search stops at the first hit.
func (e *Enricher) CoverImage(ctx context.Context, res *Results) string {
	client, _ := newWorkerClient(e.client, e.opts.RequestsPerWorker, e.opts.RequestsPerSecond)
	fetcher := page.NewFetcher(client)

	sampled := 0
	for i, link := range res.Ordered {
		if sampled >= e.opts.CoverImageSamples {
			break
		}
		if link.ResolvedURL == "" ||
			strings.Contains(link.ResolvedURL, newsletterPagePath) ||
			e.classifier.ShouldSkip(link.ResolvedURL) {
			continue
		}
		sampled++

		img, err := fetcher.FetchOGImage(ctx, link.ResolvedURL)
		if err != nil {
			e.log.Debug("Cover image lookup failed", logger.URL(link.ResolvedURL), logger.Err(err))
			continue
		}
		if img != "" {
			e.log.Info("Found cover image", logger.URL(link.ResolvedURL))
			res.Ordered[i].OGImage = img
			if res.Links != nil {
				link.OGImage = img
				res.Links[link.OriginalURL] = link
			}
			return img
		}
	}
	return ""
}
