package rewrite

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// PreviewLength is the maximum preview length in characters.
const PreviewLength = 200

// textPolicy strips all markup, dropping script and style contents and comments.
var textPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// PlainText returns the visible text of a markup fragment with whitespace collapsed.
func PlainText(markup string) string {
	text := html.UnescapeString(textPolicy.Sanitize(markup))
	return strings.Join(strings.Fields(text), " ")
}

// Preview returns the first PreviewLength characters of the document's visible text.
func Preview(doc string) string {
	runes := []rune(PlainText(doc))
	if len(runes) > PreviewLength {
		runes = runes[:PreviewLength]
	}
	return strings.TrimSpace(string(runes))
}
