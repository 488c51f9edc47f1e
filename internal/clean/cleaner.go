package clean

import (
	"regexp"
	"strings"
)

// mojibake maps UTF-8 punctuation that was decoded as Windows-1252 back to the intended
// characters. Arguments are ordered so longer sequences win over their prefixes.
var mojibake = strings.NewReplacer(
	"\u00e2\u20ac\u0153", "\u201c", // left double quote
	"\u00e2\u20ac\u009d", "\u201d", // right double quote
	"\u00e2\u20ac\u2122", "\u2019", // right single quote
	"\u00e2\u20ac\u02dc", "\u2018", // left single quote
	"\u00e2\u20ac\u201d", "\u2014", // em dash
	"\u00e2\u20ac\u201c", "\u2013", // en dash
	"\u00e2\u20ac\u00a6", "\u2026", // ellipsis
	"\u00e2\u20ac", "\u201d", // right double quote whose last byte was dropped
	"\u00c2\u00a0", "\u00a0",
	"\u00c2 ", " ",
	"\u00c2", "",
)

var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?i)You received this message because you are subscribed to Bloomberg[^<]*</\w+>`),
	regexp.MustCompile(`(?i)Ads Powered By Liveintent[^<]*Ad Choices`),
	regexp.MustCompile(`(?is)<a[^>]*href="[^"]*liveintent[^"]*"[^>]*>.*?</a>`),
	regexp.MustCompile(`(?is)<img[^>]*src="[^"]*liveintent[^"]*"[^>]*>`),
	regexp.MustCompile(`(?i)Bloomberg L\.P\.\s*731 Lexington[^<]*10022`),
	regexp.MustCompile(`(?is)<a[^>]*>\s*Unsubscribe\s*</a>`),
	regexp.MustCompile(`(?is)<a[^>]*>\s*Contact Us\s*</a>`),
	regexp.MustCompile(`(?i)<img[^>]*alt=["']Listen to the money stuff podcast["'][^>]*>`),
}

var (
	greyBackgroundRe = regexp.MustCompile(`(?i)background-color:\s*rgb\(\s*204,\s*204,\s*204\s*\);?`)
	msgSchemeRe      = regexp.MustCompile(`x-msg://\d+/`)
	convertedSpaceRe = regexp.MustCompile(`(?i)<span class="Apple-converted-space">[^<]*</span>`)
)

// FixMojibake repairs Windows-1252 mis-decoding of common punctuation.
func FixMojibake(html string) string {
	return mojibake.Replace(html)
}

// RemoveBoilerplate deletes publisher footers, ad tracking blocks and mail-client residue.
func RemoveBoilerplate(html string) string {
	for _, re := range boilerplate {
		html = re.ReplaceAllString(html, "")
	}
	html = greyBackgroundRe.ReplaceAllString(html, "")
	html = msgSchemeRe.ReplaceAllString(html, "")
	return convertedSpaceRe.ReplaceAllLiteralString(html, " ")
}

// Clean runs the full cleaning stage: forwarding removal, character repair and boilerplate
// removal. Applying it twice yields the same result as applying it once.
func Clean(html string) string {
	out := StripForwarding(html)
	out = FixMojibake(out)
	out = RemoveBoilerplate(out)
	return TrimEdges(out)
}
