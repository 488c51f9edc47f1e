// Package mail reads forwarded newsletter messages.
package mail

import (
	"fmt"
	"io"
	netmail "net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

// DefaultSubject is used when a message carries no subject.
const DefaultSubject = "Money Stuff"

// DateLayout is the layout of newsletter dates, which key every stored artifact.
const DateLayout = "2006-01-02"

// Message is a parsed newsletter message.
type Message struct {
	From    string
	Subject string // forwarding prefixes removed
	Body    string // HTML body, else text body, else empty
	Sent    time.Time
}

var (
	fwdPrefixRe = regexp.MustCompile(`(?i)^(?:Fwd?:\s*)+`)
	shortDateRe = regexp.MustCompile(`(?i)Date:\s*(?:\w+,\s*)?(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{1,2}),?\s+(\d{4})`)
	longDateRe  = regexp.MustCompile(`(?i)Date:\s*(?:\w+,\s*)?(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})`)
	urlDateRe   = regexp.MustCompile(`/(\d{4}-\d{2}-\d{2})/`)
	nlDateRe    = regexp.MustCompile(`newsletters/(\d{4}-\d{2}-\d{2})`)
)

// Parse reads a raw RFC 5322 message.
func Parse(r io.Reader) (*Message, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	body := env.HTML
	if body == "" {
		body = env.Text
	}

	msg := &Message{
		Subject: CleanSubject(env.GetHeader("Subject")),
		Body:    body,
	}
	if from, err := env.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	} else {
		msg.From = strings.TrimSpace(env.GetHeader("From"))
	}
	if sent, err := netmail.ParseDate(env.GetHeader("Date")); err == nil {
		msg.Sent = sent
	}
	return msg, nil
}

// CleanSubject removes leading Fwd:/Fw: prefixes.
func CleanSubject(subject string) string {
	subject = strings.TrimSpace(fwdPrefixRe.ReplaceAllString(strings.TrimSpace(subject), ""))
	if subject == "" {
		return DefaultSubject
	}
	return subject
}

// IsPodcast reports whether the subject announces a podcast episode rather than an issue.
func IsPodcast(subject string) bool {
	return strings.Contains(strings.ToLower(subject), "the podcast")
}

// NewsletterDate finds the original publication date of a forwarded issue. It looks for a
// forwarded Date: header line, then a dated newsletter URL, and falls back to sent
// (or today when sent is zero).
func NewsletterDate(body string, sent time.Time) string {
	if m := shortDateRe.FindStringSubmatch(body); m != nil {
		if d, err := time.Parse("Jan 2 2006", titleCase(m[1])+" "+m[2]+" "+m[3]); err == nil {
			return d.Format(DateLayout)
		}
	}
	if m := longDateRe.FindStringSubmatch(body); m != nil {
		if d, err := time.Parse("January 2 2006", titleCase(m[1])+" "+m[2]+" "+m[3]); err == nil {
			return d.Format(DateLayout)
		}
	}
	for _, re := range []*regexp.Regexp{urlDateRe, nlDateRe} {
		if m := re.FindStringSubmatch(body); m != nil {
			if _, err := time.Parse(DateLayout, m[1]); err == nil {
				return m[1]
			}
		}
	}
	if sent.IsZero() {
		sent = time.Now()
	}
	return sent.UTC().Format(DateLayout)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
