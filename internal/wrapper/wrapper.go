// Package wrapper turns a forwarded newsletter into the enhanced page: cleaned markup,
// resolved and annotated links, inlined footnotes, a text preview and a cover image.
package wrapper

import (
	"context"
	"net/http"
	"time"

	"github.com/aktagon/newsletter-wrapper/internal/clean"
	"github.com/aktagon/newsletter-wrapper/internal/enrich"
	"github.com/aktagon/newsletter-wrapper/internal/links"
	"github.com/aktagon/newsletter-wrapper/internal/logger"
	"github.com/aktagon/newsletter-wrapper/internal/rewrite"
)

// Summarizer names accepted in Options.Summarizer.
const (
	SummarizerPerplexity = "perplexity"
	SummarizerClaude     = "claude"
)

// Credentials unlock the paid lookups. With neither key set no summary or archive
// requests are made.
type Credentials struct {
	PerplexityAPIKey string
	AnthropicAPIKey  string
}

// Options configures a Wrapper. The zero value is usable.
type Options struct {
	Enrich     enrich.Options
	Classifier *links.Classifier
	Client     *http.Client
	Logger     logger.Logger

	// Summarizer picks the preferred backend when both keys are present.
	Summarizer      string
	PerplexityModel string
	ClaudeModel     string
}

// Result is the output of one Wrap call.
type Result struct {
	HTML    string
	Preview string
	OGImage string
	Links   []enrich.EnrichedLink
}

// Wrapper runs the newsletter pipeline.
type Wrapper struct {
	opts Options
	log  logger.Logger
}

// New creates a Wrapper.
func New(opts Options) *Wrapper {
	if opts.Classifier == nil {
		opts.Classifier = links.DefaultClassifier()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Enrich == (enrich.Options{}) {
		opts.Enrich = enrich.DefaultOptions()
	}
	return &Wrapper{opts: opts, log: opts.Logger}
}

// WrapNewsletter wraps html with default options.
func WrapNewsletter(ctx context.Context, html string, creds Credentials, limit int) Result {
	return New(Options{}).Wrap(ctx, html, creds, limit)
}

// Wrap runs the full pipeline. Only the first limit candidates receive summary and
// archive lookups; limit <= 0 means all. Enrichment failures never surface here: the
// worst case is the cleaned newsletter with its links unchanged.
func (w *Wrapper) Wrap(ctx context.Context, html string, creds Credentials, limit int) Result {
	start := time.Now()

	doc := clean.Clean(html)

	var raw []links.RawLink
	for _, l := range links.Extract(doc) {
		if w.opts.Classifier.ShouldSkip(l.URL) {
			continue
		}
		raw = append(raw, l)
	}

	candidates := candidatesFor(raw)

	opts := w.opts.Enrich
	opts.SummaryLimit = limit
	enricher := enrich.New(enrich.Config{
		Classifier: w.opts.Classifier,
		Summarizer: w.summarizer(creds),
		Client:     w.opts.Client,
		Options:    opts,
		Logger:     w.log,
	})

	res := enricher.Enrich(ctx, candidates)

	doc = rewrite.Apply(doc, raw, res.Links)
	doc = rewrite.RelabelViewInBrowser(doc)
	doc = rewrite.InlineFootnotes(doc)

	result := Result{
		HTML:    doc,
		Preview: rewrite.Preview(doc),
	}
	result.OGImage = enricher.CoverImage(ctx, &res)
	result.Links = res.Ordered

	summaries, archives := res.Count()
	w.log.Info("Newsletter wrapped",
		logger.Int("anchors", len(raw)),
		logger.Int("unique_links", len(candidates)),
		logger.Int("summaries", summaries),
		logger.Int("archives", archives),
		logger.Bool("cover_image", result.OGImage != ""),
		logger.Duration("elapsed", time.Since(start)),
	)
	return result
}

// summarizer picks the backend for the given credentials, or nil when none is usable.
func (w *Wrapper) summarizer(creds Credentials) enrich.Summarizer {
	perplexity := func() enrich.Summarizer {
		p := enrich.NewPerplexity(creds.PerplexityAPIKey)
		if w.opts.PerplexityModel != "" {
			p.Model = w.opts.PerplexityModel
		}
		return p
	}
	claude := func() enrich.Summarizer {
		c := enrich.NewClaude(creds.AnthropicAPIKey)
		if w.opts.ClaudeModel != "" {
			c.Model = w.opts.ClaudeModel
		}
		return c
	}

	switch {
	case w.opts.Summarizer == SummarizerClaude && creds.AnthropicAPIKey != "":
		return claude()
	case creds.PerplexityAPIKey != "":
		return perplexity()
	case creds.AnthropicAPIKey != "":
		return claude()
	}
	return nil
}

// candidatesFor deduplicates anchors by URL, keeping the first anchor's text and context,
// and returns the unique URLs in reverse order of first appearance.
func candidatesFor(raw []links.RawLink) []enrich.Candidate {
	first := make(map[string]links.RawLink, len(raw))
	for _, l := range raw {
		if _, ok := first[l.URL]; !ok {
			first[l.URL] = l
		}
	}
	urls := links.UniqueURLs(raw)
	unique := make([]enrich.Candidate, 0, len(urls))
	for _, u := range urls {
		l := first[u]
		unique = append(unique, enrich.Candidate{URL: u, Text: l.Text, Context: l.Context})
	}
	for i, j := 0, len(unique)-1; i < j; i, j = i+1, j-1 {
		unique[i], unique[j] = unique[j], unique[i]
	}
	return unique
}
