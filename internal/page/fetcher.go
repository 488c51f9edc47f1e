// Package page fetches web pages and extracts what the pipeline needs from them:
// readable article text for summarization and cover-image meta tags.
package page

import (
	"context"
	"fmt"
	"net/http"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// BrowserUserAgent is sent with page requests; several publishers reject unknown agents.
const BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Result represents the result of fetching a page
type Result struct {
	URL   string // final URL after redirects
	Title string
	Text  string // Markdown text content
	HTML  string // raw markup as received
}

// Fetcher handles fetching and processing pages from URLs
type Fetcher struct {
	handlers []ContentHandler
	client   *http.Client
}

// NewFetcher creates a fetcher with the default handler chain. A nil client uses
// http.DefaultClient.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{client: client}

	converter := md.NewConverter("", true, nil)

	// Register handlers (most specific first)
	f.AddHandler(&ArticleHandler{converter: converter})
	f.AddHandler(&TextHandler{})
	f.AddHandler(&HTMLHandler{converter: converter}) // fallback

	return f
}

// AddHandler adds a content handler to the chain
func (f *Fetcher) AddHandler(handler ContentHandler) {
	f.handlers = append(f.handlers, handler)
}

// Fetch fetches a page and processes it using the handler chain
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	for _, handler := range f.handlers {
		if handler.CanHandle(final, resp) {
			result, err := handler.Handle(final, resp)
			if err != nil {
				return nil, err
			}
			result.URL = final
			return result, nil
		}
	}

	return nil, fmt.Errorf("no handler found for %s", url)
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}
	return resp, nil
}
