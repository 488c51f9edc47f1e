package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aktagon/newsletter-wrapper/internal/clean"
	"github.com/aktagon/newsletter-wrapper/internal/logger"
	"github.com/aktagon/newsletter-wrapper/internal/mail"
	"github.com/aktagon/newsletter-wrapper/internal/store"
	"github.com/aktagon/newsletter-wrapper/internal/wrapper"
)

// NewsletterProcessor handles the main workflow: parse, wrap, store
type NewsletterProcessor struct {
	wrapper   *wrapper.Wrapper
	files     *store.FileStore
	index     *store.Index
	policy    mail.SenderPolicy
	creds     wrapper.Credentials
	settings  *Settings
	limit     int
	anySender bool
	log       logger.Logger
}

// ProcessorOptions are the per-run knobs set from the command line
type ProcessorOptions struct {
	OutputDirectory string // overrides settings.output_directory when set
	Limit           int    // summary limit; 0 uses settings.enrichment.summary_limit
	Workers         int    // 0 uses settings.enrichment.workers
	AnySender       bool   // process mail from senders outside the policy
	Client          *http.Client
}

// NewNewsletterProcessor creates a processor from settings and credentials
func NewNewsletterProcessor(settings *Settings, creds wrapper.Credentials, tmpl string, opts ProcessorOptions, log logger.Logger) (*NewsletterProcessor, error) {
	if log == nil {
		log = logger.NewNop()
	}

	outDir := settings.OutputDirectory
	if opts.OutputDirectory != "" {
		outDir = opts.OutputDirectory
	}
	files, err := store.NewFileStore(outDir, tmpl)
	if err != nil {
		return nil, fmt.Errorf("creating file store: %w", err)
	}

	var index *store.Index
	if settings.IndexPath != "" {
		index, err = store.OpenIndex(settings.IndexPath)
		if err != nil {
			return nil, fmt.Errorf("opening index: %w", err)
		}
	}

	enrichOpts := settings.EnrichOptions()
	if opts.Workers > 0 {
		enrichOpts.Workers = opts.Workers
	}
	limit := settings.Enrichment.SummaryLimit
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	w := wrapper.New(wrapper.Options{
		Enrich:          enrichOpts,
		Classifier:      settings.LinkClassifier(),
		Client:          opts.Client,
		Logger:          log,
		Summarizer:      settings.Summarizer,
		PerplexityModel: settings.Perplexity.Model,
		ClaudeModel:     settings.Claude.Model,
	})

	return &NewsletterProcessor{
		wrapper:   w,
		files:     files,
		index:     index,
		policy:    mail.NewSenderPolicy(settings.SeedSender, settings.AllowedSenders...),
		creds:     creds,
		settings:  settings,
		limit:     limit,
		anySender: opts.AnySender,
		log:       log,
	}, nil
}

// Close releases the index database
func (np *NewsletterProcessor) Close() error {
	if np.index == nil {
		return nil
	}
	return np.index.Close()
}

// ProcessMessage parses a raw email and wraps the newsletter it carries
func (np *NewsletterProcessor) ProcessMessage(ctx context.Context, source string, r io.Reader) ProcessingResult {
	msg, err := mail.Parse(r)
	if err != nil {
		return ProcessingResult{Source: source, Status: StatusError, Error: err}
	}

	kind := np.policy.Classify(msg.From)
	np.log.Info("Received newsletter",
		logger.String("from", msg.From),
		logger.String("sender", kind.String()),
		logger.String("subject", msg.Subject),
	)

	if kind == mail.SenderIgnored && !np.anySender {
		return ProcessingResult{
			Source:  source,
			Subject: msg.Subject,
			Status:  StatusSkipped,
			Reason:  fmt.Sprintf("sender %q is not allowed", msg.From),
		}
	}
	if mail.IsPodcast(msg.Subject) {
		return ProcessingResult{
			Source:  source,
			Subject: msg.Subject,
			Status:  StatusSkipped,
			Reason:  "podcast issue",
		}
	}

	date := mail.NewsletterDate(msg.Body, msg.Sent)
	result := np.ProcessHTML(ctx, source, msg.Body, msg.Subject, date)
	result.Deliver = result.Status == StatusSuccess && kind == mail.SenderPublisher
	return result
}

// ProcessHTML wraps a newsletter body and stores it under date
func (np *NewsletterProcessor) ProcessHTML(ctx context.Context, source, html, subject, date string) ProcessingResult {
	start := time.Now()
	subject = mail.CleanSubject(subject)
	if date == "" {
		date = mail.NewsletterDate(html, time.Time{})
	}

	log := np.log.With(logger.String("source", source), logger.String("date", date))
	log.Info("Processing newsletter", logger.String("subject", subject))
	res := np.wrapper.Wrap(ctx, html, np.creds, np.limit)

	summaries, archives := 0, 0
	for _, l := range res.Links {
		if l.Summary != "" {
			summaries++
		}
		if l.ArchiveURL != "" {
			archives++
		}
	}

	meta := store.Meta{
		Date:         date,
		Subject:      subject,
		Preview:      res.Preview,
		OGImage:      res.OGImage,
		ProcessedAt:  time.Now().UTC(),
		LinkCount:    len(res.Links),
		SummaryCount: summaries,
		ArchiveCount: archives,
	}
	if err := np.save(meta, res.HTML); err != nil {
		return ProcessingResult{Source: source, Date: date, Subject: subject, Status: StatusError, Error: err}
	}

	log.Info("Saved newsletter",
		logger.String("file", np.files.HTMLPath(date)),
		logger.Int("links", len(res.Links)),
		logger.Int("summaries", summaries),
		logger.Int("archives", archives),
		logger.Duration("elapsed", time.Since(start)),
	)
	return ProcessingResult{
		Source:   source,
		Date:     date,
		Subject:  subject,
		Status:   StatusSuccess,
		Filename: np.files.HTMLPath(date),
		Links:    len(res.Links),
	}
}

// Fix re-strips forwarding wrappers from an issue that is already stored
func (np *NewsletterProcessor) Fix(date string) ProcessingResult {
	meta, err := np.files.Meta(date)
	if err != nil {
		return ProcessingResult{Date: date, Status: StatusError, Error: fmt.Errorf("loading metadata: %w", err)}
	}
	body, err := np.files.Body(date)
	if err != nil {
		return ProcessingResult{Date: date, Status: StatusError, Error: fmt.Errorf("loading page: %w", err)}
	}

	fixed := clean.Repair(body)
	np.log.Info("Repaired newsletter",
		logger.String("date", date),
		logger.Int("bytes_before", len(body)),
		logger.Int("bytes_after", len(fixed)),
	)
	if fixed == body {
		return ProcessingResult{Date: date, Subject: meta.Subject, Status: StatusSkipped, Reason: "nothing to repair", Filename: np.files.HTMLPath(date)}
	}

	if err := np.save(meta, fixed); err != nil {
		return ProcessingResult{Date: date, Subject: meta.Subject, Status: StatusError, Error: err}
	}
	return ProcessingResult{Date: date, Subject: meta.Subject, Status: StatusSuccess, Filename: np.files.HTMLPath(date)}
}

func (np *NewsletterProcessor) save(meta store.Meta, body string) error {
	if err := np.files.Save(meta, body); err != nil {
		return fmt.Errorf("saving issue: %w", err)
	}
	if np.index != nil {
		if err := np.index.Upsert(meta); err != nil {
			return fmt.Errorf("indexing issue: %w", err)
		}
	}
	return nil
}

// ProcessFile processes a raw email file, or an HTML file when asHTML is set
func (np *NewsletterProcessor) ProcessFile(ctx context.Context, path string, asHTML bool, subject, date string) ProcessingResult {
	f, err := os.Open(path)
	if err != nil {
		return ProcessingResult{Source: path, Status: StatusError, Error: fmt.Errorf("opening %s: %w", path, err)}
	}
	defer f.Close()

	if !asHTML {
		return np.ProcessMessage(ctx, path, f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return ProcessingResult{Source: path, Status: StatusError, Error: fmt.Errorf("reading %s: %w", path, err)}
	}
	return np.ProcessHTML(ctx, path, string(data), subject, date)
}
