// Package links finds anchors in newsletter HTML and classifies their targets.
package links

import (
	"html"
	"regexp"
	"strings"
)

// RawLink is one anchor occurrence found in the document.
type RawLink struct {
	Markup  string // full anchor markup, replaced verbatim by the rewriter
	URL     string
	Text    string // anchor text with tags removed
	Context string // surrounding plain text, used as a summarization hint
}

var (
	anchorRe  = regexp.MustCompile(`(?is)<a\s+[^>]*?href\s*=\s*(?:"([^"]*)"|'([^']*)')[^>]*>(.*?)</a\s*>`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe   = regexp.MustCompile(`\s+`)
	contextSz = 100
)

// Extract returns every anchor with a followable href, in document order.
// Empty, mailto: and fragment-only hrefs are ignored.
func Extract(doc string) []RawLink {
	matches := anchorRe.FindAllStringSubmatchIndex(doc, -1)
	links := make([]RawLink, 0, len(matches))

	for _, m := range matches {
		href := submatch(doc, m, 1)
		if m[2] < 0 {
			href = submatch(doc, m, 2)
		}
		href = strings.TrimSpace(html.UnescapeString(href))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "mailto:") {
			continue
		}

		links = append(links, RawLink{
			Markup:  doc[m[0]:m[1]],
			URL:     href,
			Text:    stripTags(submatch(doc, m, 3)),
			Context: surrounding(doc, m[0], m[1]),
		})
	}
	return links
}

// UniqueURLs returns the distinct URLs of links in first-seen order.
func UniqueURLs(links []RawLink) []string {
	seen := make(map[string]bool, len(links))
	urls := make([]string, 0, len(links))
	for _, l := range links {
		if seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		urls = append(urls, l.URL)
	}
	return urls
}

func submatch(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return s[m[2*group]:m[2*group+1]]
}

func stripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}

// surrounding returns plain text around the anchor at doc[start:end].
func surrounding(doc string, start, end int) string {
	before := plain(doc[max(0, start-4*contextSz):start])
	after := plain(doc[end:min(len(doc), end+4*contextSz)])
	before = lastRunes(before, contextSz)
	after = firstRunes(after, contextSz)
	anchor := plain(doc[start:end])
	return strings.TrimSpace(strings.Join([]string{before, anchor, after}, " "))
}

func plain(s string) string {
	// A window cut mid-tag leaves a dangling fragment; drop it.
	if i := strings.LastIndex(s, "<"); i > strings.LastIndex(s, ">") {
		s = s[:i]
	}
	if i := strings.Index(s, ">"); i >= 0 && (strings.Index(s, "<") < 0 || i < strings.Index(s, "<")) {
		s = s[i+1:]
	}
	s = tagRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(html.UnescapeString(s), " "))
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
