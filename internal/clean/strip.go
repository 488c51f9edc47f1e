// Package clean removes mail-client forwarding wrappers, mis-decoded characters and
// publisher boilerplate from newsletter HTML.
//
// Everything here works on the markup as text. Each rule is a heuristic tuned to the
// forwarding formats seen in practice; input that matches no rule passes through unchanged.
package clean

import (
	"regexp"
	"strings"
)

var (
	gmailAttrRe  = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*\bgmail_attr\b[^"]*"[^>]*>.*?</div>`)
	gmailQuoteRe = regexp.MustCompile(`(?i)<div[^>]*class="[^"]*\bgmail_quote\b[^"]*"[^>]*>`)
	gmailMsgRe   = regexp.MustCompile(`(?i)<div[^>]*class="(?:[^"]*\s)?(?:gmail_msg|msg[\w:-]*)(?:\s[^"]*)?"[^>]*>`)
	divOpenRe    = regexp.MustCompile(`(?i)<div\b`)
	divCloseRe   = regexp.MustCompile(`(?i)</div\s*>`)
	trailCloseRe = regexp.MustCompile(`(?i)(?:\s|<br\s*/?>)*</div\s*>\s*$`)

	citeOpenRe = regexp.MustCompile(`(?i)<blockquote[^>]*\btype=["']?cite["']?[^>]*>`)
	brRe       = regexp.MustCompile(`(?i)<br[^>]*>`)
	fromLineRe = regexp.MustCompile(`(?i)\bFrom\s*:`)
	metaLineRe = regexp.MustCompile(`(?i)\b(?:Subject|Date|To)\s*:`)

	forwardMarkerRe = regexp.MustCompile(`(?i)-{5,}\s*Forwarded message\s*-{5,}`)
	blockBoundaryRe = regexp.MustCompile(`(?i)</?(?:table|div|p|h[1-6]|blockquote|center|ul|ol)\b`)

	beginForwardRe  = regexp.MustCompile(`(?i)Begin forwarded message:`)
	replyToDivEndRe = regexp.MustCompile(`(?is)Reply-To:.*?</div\s*>`)
	beginLeadInRe   = regexp.MustCompile(`(?is)>\s*Begin forwarded message:\s*</\w+>.*?<blockquote[^>]*>`)
	blockquoteRe    = regexp.MustCompile(`(?is)<blockquote[^>]*>(.*?)</blockquote>`)
	boldFromRe      = regexp.MustCompile(`(?i)<b>\s*From:\s*</b>`)
	boldToRe        = regexp.MustCompile(`(?i)<b>\s*To:\s*</b>`)
	freestandingRe  = regexp.MustCompile(`(?i)Begin forwarded message:\s*(?:(?:<br\s*/?>|\s)*(?:<b>)?\s*(?:From|Subject|Date|To|Reply-To|Cc)\s*:\s*(?:</b>)?[^<\n]*){1,10}(?:<br\s*/?>|\s)*`)

	leadingEmptyRe  = regexp.MustCompile(`(?i)^(?:\s|<br[^>]*>|<div[^>]*>\s*</div\s*>)+`)
	trailingEmptyRe = regexp.MustCompile(`(?i)(?:\s|<br[^>]*>|<div[^>]*>\s*</div\s*>)+$`)
)

// headerBlockquoteMax bounds how large a blockquote may be and still be treated as a
// header-only block. Larger blockquotes hold the forwarded body itself.
const headerBlockquoteMax = 1500

// StripForwarding removes forwarding wrappers and quoting artifacts, returning the
// original newsletter body. All rules are applied; none are exclusive.
func StripForwarding(html string) string {
	out := stripGmailQuote(html)
	out = stripCiteHeader(out)
	out = stripForwardMarker(out)
	out = stripBeginForwarded(out)
	return TrimEdges(out)
}

// stripGmailQuote unwraps Gmail's gmail_quote container, keeping only the inner message body.
func stripGmailQuote(html string) string {
	html = gmailAttrRe.ReplaceAllString(html, "")

	quote := gmailQuoteRe.FindStringIndex(html)
	if quote == nil {
		return html
	}
	msg := gmailMsgRe.FindStringIndex(html[quote[1]:])
	if msg == nil {
		return html
	}

	start := quote[1] + msg[1]
	depth := len(divOpenRe.FindAllStringIndex(html[:start], -1)) - len(divCloseRe.FindAllStringIndex(html[:start], -1))
	body := html[start:]
	for i := 0; i < depth; i++ {
		loc := trailCloseRe.FindStringIndex(body)
		if loc == nil {
			break
		}
		body = body[:loc[0]]
	}
	return body
}

// stripCiteHeader drops the header segment that precedes the first line break inside a
// mail-client <blockquote type="cite">.
func stripCiteHeader(html string) string {
	opens := citeOpenRe.FindAllStringIndex(html, -1)
	if len(opens) == 0 {
		return html
	}

	var b strings.Builder
	last := 0
	for _, open := range opens {
		if open[0] < last {
			continue
		}
		rest := html[open[1]:]
		br := brRe.FindStringIndex(rest)
		if br == nil {
			continue
		}
		segment := rest[:br[0]]
		if !isHeaderSegment(segment) {
			continue
		}
		b.WriteString(html[last:open[1]])
		last = open[1] + br[1]
	}
	b.WriteString(html[last:])
	return b.String()
}

// isHeaderSegment requires header labels whatever the markup, so a quoted body that opens
// with a table survives repeated passes.
func isHeaderSegment(segment string) bool {
	return fromLineRe.MatchString(segment) && metaLineRe.MatchString(segment)
}

// stripForwardMarker deletes a "----- Forwarded message -----" line and the header
// lines after it, up to the first block-level element.
func stripForwardMarker(html string) string {
	for {
		marker := forwardMarkerRe.FindStringIndex(html)
		if marker == nil {
			return html
		}
		boundary := blockBoundaryRe.FindStringIndex(html[marker[1]:])
		if boundary == nil {
			return html
		}
		html = html[:marker[0]] + html[marker[1]+boundary[0]:]
	}
}

// stripBeginForwarded removes Apple-Mail style "Begin forwarded message:" header blocks.
func stripBeginForwarded(html string) string {
	html = stripBeginForwardedDiv(html)
	html = beginLeadInRe.ReplaceAllString(html, ">")
	html = blockquoteRe.ReplaceAllStringFunc(html, func(m string) string {
		inner := blockquoteRe.FindStringSubmatch(m)[1]
		if len(inner) > headerBlockquoteMax {
			return m
		}
		if boldFromRe.MatchString(inner) && boldToRe.MatchString(inner) {
			return ""
		}
		return m
	})
	return freestandingRe.ReplaceAllString(html, "")
}

// stripBeginForwardedDiv removes the div that opens right before the marker through the
// end of the div holding the Reply-To line.
func stripBeginForwardedDiv(html string) string {
	for {
		marker := beginForwardRe.FindStringIndex(html)
		if marker == nil {
			return html
		}
		divStart := strings.LastIndex(strings.ToLower(html[:marker[0]]), "<div")
		if divStart < 0 {
			return html
		}
		end := replyToDivEndRe.FindStringIndex(html[marker[1]:])
		if end == nil {
			return html
		}
		html = html[:divStart] + html[marker[1]+end[1]:]
	}
}

// TrimEdges removes whitespace, line breaks and empty divs from both ends of the markup.
func TrimEdges(html string) string {
	for {
		trimmed := leadingEmptyRe.ReplaceAllString(html, "")
		trimmed = trailingEmptyRe.ReplaceAllString(trimmed, "")
		if trimmed == html {
			return html
		}
		html = trimmed
	}
}
