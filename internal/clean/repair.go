package clean

import (
	"regexp"
	"strings"
)

const newsletterContainer = `<div style="width:100%;font-family:Helvetica,Arial,sans-serif;font-size:16px;line-height:150%;margin:0;padding:0">`

var (
	newsletterStartRe = regexp.MustCompile(`(?is)<div[^>]*style="[^"]*width:\s*100%[^"]*font-family:[^"]*Helvetica[^"]*"[^>]*>(.*)`)
	wrapperTableRe    = regexp.MustCompile(`(?is)<table[^>]*id="[^"]*wrapper[^"]*"[^>]*>.*`)
	gmailTailRe       = regexp.MustCompile(`(?i)</div>\s*</div>\s*</div>\s*$`)
)

// Repair re-strips a page stored before the forwarding rules caught its wrapper. When
// Gmail markup is still present it cuts straight to the publisher's outer container
// (or its wrapper table) before applying StripForwarding.
func Repair(html string) string {
	if strings.Contains(html, "gmail_quote") || strings.Contains(html, "gmail_attr") {
		if m := newsletterStartRe.FindStringSubmatch(html); m != nil {
			html = newsletterContainer + m[1]
			html = gmailTailRe.ReplaceAllLiteralString(html, "</div>")
		} else if m := wrapperTableRe.FindString(html); m != "" {
			html = m
		}
	}
	return strings.TrimSpace(StripForwarding(html))
}
