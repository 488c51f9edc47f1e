// Package enrich resolves, classifies and annotates newsletter links.
//
// Candidates are partitioned into contiguous groups that run concurrently. Each group
// is sequential and owns its own HTTP client, request budget and favicon cache, so
// groups share no mutable state and their results merge without coordination.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aktagon/newsletter-wrapper/internal/links"
	"github.com/aktagon/newsletter-wrapper/internal/logger"
	"github.com/aktagon/newsletter-wrapper/internal/resolve"
)

// Defaults for Options.
const (
	DefaultWorkers           = 3
	DefaultRequestsPerWorker = 50
	DefaultCoverImageSamples = 5
	DefaultHTTPTimeout       = 15 * time.Second
)

// Candidate is one unique URL queued for enrichment, with its first anchor's text.
type Candidate struct {
	URL     string
	Text    string
	Context string
}

// EnrichedLink is everything learned about one unique URL.
type EnrichedLink struct {
	OriginalURL string `json:"originalUrl"`
	ResolvedURL string `json:"resolvedUrl"`
	Favicon     string `json:"favicon,omitempty"`
	IsPaywalled bool   `json:"isPaywalled"`
	Summary     string `json:"summary,omitempty"`
	ArchiveURL  string `json:"archiveUrl,omitempty"`
	OGImage     string `json:"ogImage,omitempty"`
}

// Results holds the merged output of one Enrich call.
type Results struct {
	Links   map[string]EnrichedLink // keyed by original URL
	Ordered []EnrichedLink          // candidate order; links lost to a failed group are absent
}

// Count returns how many links carry a summary and how many carry an archive URL.
func (r Results) Count() (summaries, archives int) {
	for _, l := range r.Ordered {
		if l.Summary != "" {
			summaries++
		}
		if l.ArchiveURL != "" {
			archives++
		}
	}
	return summaries, archives
}

// Options tunes the fan-out.
type Options struct {
	Workers           int           // number of concurrent groups; 1 runs everything in one group
	SummaryLimit      int           // only the first N candidates get summary/archive lookups; <= 0 means all
	RequestsPerWorker int           // outbound request budget per group; < 0 means unlimited
	RequestsPerSecond float64       // per-group pacing; <= 0 disables pacing
	CoverImageSamples int           // resolved URLs sampled for a cover image
	HTTPTimeout       time.Duration // per-request timeout
	MaxHops           int           // redirect hops per URL
}

// DefaultOptions returns the default fan-out settings.
func DefaultOptions() Options {
	return Options{
		Workers:           DefaultWorkers,
		RequestsPerWorker: DefaultRequestsPerWorker,
		CoverImageSamples: DefaultCoverImageSamples,
		HTTPTimeout:       DefaultHTTPTimeout,
		MaxHops:           resolve.DefaultMaxHops,
	}
}

// Config wires an Enricher's collaborators.
type Config struct {
	Classifier *links.Classifier
	Summarizer Summarizer     // nil disables summary and archive lookups
	Archive    *ArchiveFinder // nil uses the default archive mirror
	Client     *http.Client   // base client copied into each group; nil uses a client with Options.HTTPTimeout
	Options    Options
	Logger     logger.Logger
}

// Enricher runs the enrichment fan-out.
type Enricher struct {
	classifier *links.Classifier
	resolver   *resolve.Resolver
	summarizer Summarizer
	archive    *ArchiveFinder
	client     *http.Client
	opts       Options
	log        logger.Logger
}

// New creates an Enricher, filling unset options with defaults.
func New(cfg Config) *Enricher {
	opts := cfg.Options
	def := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.RequestsPerWorker == 0 {
		opts.RequestsPerWorker = def.RequestsPerWorker
	}
	if opts.CoverImageSamples <= 0 {
		opts.CoverImageSamples = def.CoverImageSamples
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = def.HTTPTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = links.DefaultClassifier()
	}
	archive := cfg.Archive
	if archive == nil {
		archive = NewArchiveFinder()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: opts.HTTPTimeout}
	}

	return &Enricher{
		classifier: classifier,
		resolver:   resolve.New(classifier, opts.MaxHops, log),
		summarizer: cfg.Summarizer,
		archive:    archive,
		client:     client,
		opts:       opts,
		log:        log,
	}
}

// item is a candidate with its priority index in the full candidate list.
type item struct {
	index int
	Candidate
}

// worker is the state owned by one group.
type worker struct {
	id       int
	client   *http.Client
	quota    *quotaTransport
	favicons *FaviconCache
}

// Enrich processes candidates and returns the merged results. It never fails; lookups that
// fail leave their fields empty.
func (e *Enricher) Enrich(ctx context.Context, candidates []Candidate) Results {
	groups := partition(candidates, e.opts.Workers)
	e.log.Info("Enriching links",
		logger.Int("links", len(candidates)),
		logger.Int("workers", len(groups)),
	)

	parts := make([]map[string]EnrichedLink, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			parts[i] = e.runGroup(gctx, i, group)
			return nil
		})
	}
	_ = g.Wait()

	res := Results{Links: make(map[string]EnrichedLink, len(candidates))}
	for _, part := range parts {
		for url, link := range part {
			res.Links[url] = link
		}
	}
	for _, c := range candidates {
		if link, ok := res.Links[c.URL]; ok {
			res.Ordered = append(res.Ordered, link)
		}
	}
	return res
}

// runGroup processes one partition sequentially. A panic discards the group's results.
func (e *Enricher) runGroup(ctx context.Context, id int, items []item) (out map[string]EnrichedLink) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Enrichment worker failed",
				logger.Int("worker", id),
				logger.String("panic", fmt.Sprint(r)),
			)
			out = map[string]EnrichedLink{}
		}
	}()

	client, quota := newWorkerClient(e.client, e.opts.RequestsPerWorker, e.opts.RequestsPerSecond)
	w := &worker{id: id, client: client, quota: quota, favicons: NewFaviconCache()}

	out = make(map[string]EnrichedLink, len(items))
	for _, it := range items {
		out[it.URL] = e.enrichOne(ctx, w, it)
	}

	e.log.Debug("Worker finished",
		logger.Int("worker", id),
		logger.Int("links", len(items)),
		logger.Int("requests_left", quota.Remaining()),
	)
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, w *worker, it item) EnrichedLink {
	link := EnrichedLink{OriginalURL: it.URL, ResolvedURL: it.URL}
	if resolved := e.resolver.Resolve(ctx, w.client, it.URL); resolved != "" {
		link.ResolvedURL = resolved
	}
	link.Favicon = w.favicons.URL(link.ResolvedURL)
	link.IsPaywalled = e.classifier.IsPaywalled(link.ResolvedURL)

	if !link.IsPaywalled || e.summarizer == nil || !e.withinSummaryLimit(it.index) {
		return link
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer e.recoverLookup("summary", link.ResolvedURL)
		summary, err := e.summarizer.Summarize(ctx, w.client, SummaryRequest{
			URL:     link.ResolvedURL,
			Text:    it.Text,
			Context: it.Context,
		})
		if err != nil {
			e.log.Warn("Summary lookup failed",
				logger.URL(link.ResolvedURL),
				logger.String("summarizer", e.summarizer.Name()),
				logger.Err(err),
			)
			return
		}
		link.Summary = summary
	}()
	go func() {
		defer wg.Done()
		defer e.recoverLookup("archive", link.ResolvedURL)
		if archiveURL, ok := e.archive.Find(ctx, w.client, link.ResolvedURL); ok {
			link.ArchiveURL = archiveURL
		} else {
			e.log.Debug("No archive snapshot", logger.URL(link.ResolvedURL))
		}
	}()
	wg.Wait()

	return link
}

func (e *Enricher) withinSummaryLimit(index int) bool {
	return e.opts.SummaryLimit <= 0 || index < e.opts.SummaryLimit
}

func (e *Enricher) recoverLookup(kind, url string) {
	if r := recover(); r != nil {
		e.log.Error("Lookup failed", logger.String("lookup", kind), logger.URL(url), logger.String("panic", fmt.Sprint(r)))
	}
}

// partition splits candidates into contiguous chunks of ceil(n/workers), keeping each
// candidate's priority index.
func partition(candidates []Candidate, workers int) [][]item {
	if len(candidates) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	size := (len(candidates) + workers - 1) / workers

	var groups [][]item
	for start := 0; start < len(candidates); start += size {
		end := min(start+size, len(candidates))
		group := make([]item, 0, end-start)
		for i := start; i < end; i++ {
			group = append(group, item{index: i, Candidate: candidates[i]})
		}
		groups = append(groups, group)
	}
	return groups
}
