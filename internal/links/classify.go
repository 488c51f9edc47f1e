package links

import (
	"net/url"
	"regexp"
	"strings"
)

// Default classification lists.
var (
	DefaultSkipDomains = []string{
		"twitter.com",
		"x.com",
		"youtube.com",
		"youtu.be",
		"bloomberg.com/account",
		"bloomberg.com/email-settings",
		"bloomberg.com/help",
		"bloomberg.com/subscriptions",
		"bloomberg.com/privacy",
		"bloomberg.com/tos",
		"bloombergmedia.com",
		"unsubscribe",
		"bloom.bg",
		"mail.bloombergbusiness.com",
		"link.mail.bloombergbusiness.com",
		"liveintent.com",
		"assets.bwbx.io",
		"spmailtechnolo.com",
	}

	DefaultSkipExactURLs = []string{
		"http://bloomberg.com/",
		"https://bloomberg.com/",
		"http://www.bloomberg.com/",
		"https://www.bloomberg.com/",
	}

	DefaultTrackingDomains = []string{
		"links.message.bloomberg.com",
		"bloom.bg",
		"sli.bloomberg.com",
	}

	DefaultPaywalledDomains = []string{
		"wsj.com",
		"nytimes.com",
		"ft.com",
		"washingtonpost.com",
		"theathletic.com",
		"theinformation.com",
		"theatlantic.com",
		"economist.com",
		"barrons.com",
		"fortune.com",
		"businessinsider.com",
		"seekingalpha.com",
		"bloomberg.com",
		"newyorker.com",
		"hbr.org",
		"reuters.com",
		"stratechery.com",
	}

	DefaultSkipPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^mailto:`),
		regexp.MustCompile(`^#`),
		regexp.MustCompile(`(?i)\.(?:jpe?g|png|gif|webp|svg|pdf)$`),
		regexp.MustCompile(`bloomberg\.com/.*/newsletters/\d{4}-\d{2}-\d{2}`),
	}
)

// Classifier answers skip, tracking and paywall questions about URLs.
// The zero value classifies nothing; use DefaultClassifier for the built-in lists.
type Classifier struct {
	SkipDomains      []string
	SkipExactURLs    []string
	SkipPatterns     []*regexp.Regexp
	TrackingDomains  []string
	PaywalledDomains []string
}

// DefaultClassifier returns a classifier populated with the default lists.
func DefaultClassifier() *Classifier {
	return &Classifier{
		SkipDomains:      append([]string(nil), DefaultSkipDomains...),
		SkipExactURLs:    append([]string(nil), DefaultSkipExactURLs...),
		SkipPatterns:     append([]*regexp.Regexp(nil), DefaultSkipPatterns...),
		TrackingDomains:  append([]string(nil), DefaultTrackingDomains...),
		PaywalledDomains: append([]string(nil), DefaultPaywalledDomains...),
	}
}

// ShouldSkip reports whether a link must be left out of enrichment entirely.
// Unparseable URLs are always skipped.
func (c *Classifier) ShouldSkip(raw string) bool {
	u, ok := parse(raw)
	if !ok {
		return true
	}

	lower := strings.ToLower(raw)
	for _, exact := range c.SkipExactURLs {
		if lower == strings.ToLower(exact) {
			return true
		}
	}
	for _, re := range c.SkipPatterns {
		if re.MatchString(raw) {
			return true
		}
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range c.SkipDomains {
		d = strings.ToLower(d)
		if strings.Contains(host, d) || strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// IsTracking reports whether the URL's host contains a known redirect/tracking domain.
func (c *Classifier) IsTracking(raw string) bool {
	u, ok := parse(raw)
	if !ok {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range c.TrackingDomains {
		if d != "" && strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// IsPaywalled reports whether the URL's host belongs to a paywalled publisher.
func (c *Classifier) IsPaywalled(raw string) bool {
	u, ok := parse(raw)
	if !ok {
		return false
	}
	return hostMatches(u.Hostname(), c.PaywalledDomains)
}

func parse(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

// hostMatches reports whether host equals one of domains or is a subdomain of one.
func hostMatches(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
