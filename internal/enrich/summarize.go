package enrich

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrRejected marks a summary that was returned but is not usable.
var ErrRejected = errors.New("summary rejected")

// minSummaryLength is the shortest response accepted as a summary.
const minSummaryLength = 30

// SummaryRequest describes the article to summarize.
type SummaryRequest struct {
	URL     string
	Text    string // anchor text in the newsletter
	Context string // newsletter text around the anchor
}

// Summarizer produces a short natural-language summary of an article.
// Implementations send their requests through client so they count against the
// calling worker's request budget.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, client *http.Client, req SummaryRequest) (string, error)
}

const (
	summarySystemPrompt = "You search the web to find and summarize news articles. Provide a 2-3 sentence summary of the key points. Be factual and concise."
	summaryUserPrompt   = "Search for and summarize the news article at this URL: "
)

var refusalPhrases = []string{
	"unable to",
	"cannot access",
	"i don't have",
	"no news article available",
	"i cannot",
	"i'm unable",
	"not available",
	"page not found",
	"access denied",
}

var (
	articleLeadInRe = regexp.MustCompile(`(?i)^The (?:article|piece|report|story|post|blog)(?: from [^.]+)? (?:discusses|explains|covers|details|examines|explores|highlights|reports|describes|analyzes)`)
	thisLeadInRe    = regexp.MustCompile(`(?i)^This (?:article|piece|report|story|post|blog) (?:discusses|explains|covers|details|examines|explores|highlights|reports|describes|analyzes)`)
	citationRe      = regexp.MustCompile(`\[\d+\]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// CleanSummary validates and normalizes a raw summarizer response. Short responses and
// responses that read as a refusal return ErrRejected.
func CleanSummary(raw string) (string, error) {
	if len(raw) < minSummaryLength {
		return "", ErrRejected
	}

	lower := strings.ToLower(raw)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return "", ErrRejected
		}
	}

	s := articleLeadInRe.ReplaceAllLiteralString(raw, "")
	s = thisLeadInRe.ReplaceAllLiteralString(s, "")
	s = citationRe.ReplaceAllLiteralString(s, "")
	s = strings.TrimSpace(whitespaceRe.ReplaceAllLiteralString(s, " "))
	if s == "" {
		return "", ErrRejected
	}

	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:], nil
}
