// Package rewrite applies enrichment results to newsletter HTML.
//
// Substitution is textual: each anchor's exact original markup is replaced once.
// Identical markup occurring several times is rewritten identically, one occurrence
// per extracted anchor.
package rewrite

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aktagon/newsletter-wrapper/internal/enrich"
	"github.com/aktagon/newsletter-wrapper/internal/links"
)

// minAnnotatedText is the shortest anchor text that receives a favicon or annotations.
const minAnnotatedText = 3

const (
	faviconStyle = "width:20px;height:20px;vertical-align:middle;margin-right:6px;border:0;"
	detailsStyle = "display:inline-block;vertical-align:baseline;margin:0;padding:0;"
	summaryStyle = "cursor:pointer;list-style:none;display:inline;margin:0;padding:0;"
	moreStyle    = "cursor:pointer;color:#1976d2;font-size:11px;list-style:none;display:inline;margin:0;padding:0;"
	readStyle    = "color:#1976d2;font-size:11px;text-decoration:none;"
	archiveStyle = "color:#2e7d32;font-size:11px;text-decoration:none;"
	iconStyle    = "text-decoration:none;font-size:13px;"
	archiveTitle = "Read archived (no paywall)"
)

var (
	hrefAttrRe   = regexp.MustCompile(`(?i)\bhref\s*=\s*(?:"[^"]*"|'[^']*')`)
	targetRelRe  = regexp.MustCompile(`(?i)\s+(?:target|rel)\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	viewBrowseRe = regexp.MustCompile(`(?i)>\s*View in browser\s*</a>`)
	sentenceRe   = regexp.MustCompile(`[^.!?]+[.!?]+`)
	spacesRe     = regexp.MustCompile(`\s+`)
)

// Apply replaces every extracted anchor that has an enrichment entry with its enriched
// form. Anchors whose markup can no longer be found are left alone.
func Apply(doc string, raw []links.RawLink, enriched map[string]enrich.EnrichedLink) string {
	for _, r := range raw {
		link, ok := enriched[r.URL]
		if !ok || !strings.Contains(doc, r.Markup) {
			continue
		}
		doc = strings.Replace(doc, r.Markup, EnrichedAnchor(r.Markup, r.Text, link), 1)
	}
	return doc
}

// RelabelViewInBrowser renames the "View in browser" link.
func RelabelViewInBrowser(doc string) string {
	return viewBrowseRe.ReplaceAllLiteralString(doc, ">View enhanced version</a>")
}

// EnrichedAnchor rewrites one anchor: the href points at the resolved URL, the link opens
// in a new tab, and paywalled links gain a favicon, summary and archive links.
func EnrichedAnchor(markup, text string, link enrich.EnrichedLink) string {
	end := strings.IndexByte(markup, '>')
	if end < 0 || len(markup) < 2 {
		return markup
	}
	open, rest := markup[:end+1], markup[end+1:]

	target := link.ResolvedURL
	if target == "" {
		target = link.OriginalURL
	}
	if loc := hrefAttrRe.FindStringIndex(open); loc != nil {
		open = open[:loc[0]] + `href="` + html.EscapeString(target) + `"` + open[loc[1]:]
	}
	open = targetRelRe.ReplaceAllLiteralString(open, "")
	open = `<a target="_blank" rel="noopener"` + open[2:]

	hasText := utf8.RuneCountInString(text) >= minAnnotatedText

	var b strings.Builder
	b.WriteString(open)
	if hasText && link.Favicon != "" {
		b.WriteString(`<img src="` + html.EscapeString(link.Favicon) + `" style="` + faviconStyle + `" alt="">`)
	}
	b.WriteString(rest)

	if !hasText {
		return b.String()
	}

	switch {
	case link.Summary != "":
		writeSummary(&b, target, link)
	case link.ArchiveURL != "":
		b.WriteString(` <a href="` + html.EscapeString(link.ArchiveURL) + `" target="_blank" rel="noopener" style="` + iconStyle + `" title="` + archiveTitle + `">📰</a>`)
	}
	return b.String()
}

func writeSummary(b *strings.Builder, target string, link enrich.EnrichedLink) {
	head, tail := splitSentences(link.Summary, 2)

	if link.ArchiveURL != "" {
		b.WriteString(`<a href="` + html.EscapeString(link.ArchiveURL) + `" target="_blank" rel="noopener" style="` + iconStyle + `vertical-align:middle;margin-right:4px;" title="` + archiveTitle + `">📰</a>`)
	}
	b.WriteString(`<details style="` + detailsStyle + `"><summary style="` + summaryStyle + `">💡</summary>`)
	b.WriteString(`<span style="font-size:13px;color:#444;margin-left:4px;">` + html.EscapeString(head))
	if tail != "" {
		b.WriteString(` <details style="display:inline;margin:0;padding:0;"><summary style="` + moreStyle + `">[more]</summary><span>` + html.EscapeString(tail) + `</span></details>`)
	}
	b.WriteString(` <a href="` + html.EscapeString(target) + `" target="_blank" rel="noopener" style="` + readStyle + `">[read]</a>`)
	if link.ArchiveURL != "" {
		b.WriteString(` <a href="` + html.EscapeString(link.ArchiveURL) + `" target="_blank" rel="noopener" style="` + archiveStyle + `">[archive]</a>`)
	}
	b.WriteString(`</span></details>`)
}

// splitSentences returns the first n sentences of text and the remainder.
func splitSentences(text string, n int) (head, tail string) {
	text = strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))
	locs := sentenceRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, ""
	}
	sentences := make([]string, 0, len(locs)+1)
	for _, loc := range locs {
		sentences = append(sentences, text[loc[0]:loc[1]])
	}
	if last := locs[len(locs)-1][1]; last < len(text) {
		sentences = append(sentences, text[last:])
	}
	if len(sentences) <= n {
		return joinTrimmed(sentences), ""
	}
	return joinTrimmed(sentences[:n]), joinTrimmed(sentences[n:])
}

func joinTrimmed(parts []string) string {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return strings.Join(trimmed, " ")
}
