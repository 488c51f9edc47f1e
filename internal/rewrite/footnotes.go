package rewrite

import (
	"html"
	"regexp"
	"strings"
)

// Footnote is one footnote definition found in the document.
type Footnote struct {
	Number  string
	Content string // plain text
}

var (
	footnoteDefRe    = regexp.MustCompile(`(?is)<div\s+id="footnote-(\d+)"[^>]*>.*?<p[^>]*>\[?\d+\]?\s*(.*?)</p>.*?</div>`)
	footnoteBlockRe  = regexp.MustCompile(`(?is)<div\s+id="footnote-\d+"[^>]*>.*?</div>`)
	footnoteRefStyle = `<sup><details style="display:inline-block;vertical-align:baseline;margin:0;padding:0;">` +
		`<summary style="cursor:pointer;color:#1976d2;list-style:none;display:inline;font-size:11px;margin:0;padding:0;">[%N%]</summary>` +
		`<span style="font-size:12px;color:#555;background:#f5f5f5;padding:2px 6px;border-radius:3px;margin-left:2px;">%C%</span></details></sup>`
)

// ExtractFootnotes returns the footnote definitions in document order. A number defined
// twice keeps its last definition.
func ExtractFootnotes(doc string) []Footnote {
	var notes []Footnote
	index := map[string]int{}
	for _, m := range footnoteDefRe.FindAllStringSubmatch(doc, -1) {
		note := Footnote{Number: m[1], Content: PlainText(m[2])}
		if i, ok := index[note.Number]; ok {
			notes[i] = note
			continue
		}
		index[note.Number] = len(notes)
		notes = append(notes, note)
	}
	return notes
}

// InlineFootnotes replaces each footnote reference with an expandable inline note and
// removes the definition blocks.
func InlineFootnotes(doc string) string {
	for _, note := range ExtractFootnotes(doc) {
		ref := regexp.MustCompile(`(?is)<a\s+href="#footnote-` + note.Number + `"[^>]*>\s*<span>\[` + note.Number + `\]</span>\s*</a>`)
		inline := strings.NewReplacer("%N%", note.Number, "%C%", html.EscapeString(note.Content)).Replace(footnoteRefStyle)
		doc = ref.ReplaceAllLiteralString(doc, inline)
	}
	return footnoteBlockRe.ReplaceAllLiteralString(doc, "")
}
