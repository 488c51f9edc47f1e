package clean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const gmailForward = `<div dir="ltr"><br><br><div class="gmail_quote gmail_quote_container">` +
	`<div dir="ltr" class="gmail_attr">---------- Forwarded message ---------<br>From: <strong>Money Stuff</strong><br>Date: Tue, Nov 25, 2025<br></div><br><br>` +
	`<div class="msg-f:1849"><div><p>Hello readers.</p></div></div></div></div>`

const citeTableForward = `<blockquote type="cite"><table><tr><td>From: Matt Levine</td></tr>` +
	`<tr><td>Subject: Money Stuff</td></tr></table><br>` +
	`<table><tr><td>Banks are weird today.</td></tr></table><br><p>More text</p></blockquote>`

func TestStripForwarding(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "gmail wrapper keeps inner body",
			input:    gmailForward,
			expected: `<div><p>Hello readers.</p></div>`,
		},
		{
			name:     "plain html untouched",
			input:    `<p>Just a note.</p>`,
			expected: `<p>Just a note.</p>`,
		},
		{
			name:     "cite blockquote header dropped",
			input:    `<blockquote type="cite"><b>From:</b> Money Stuff <b>Subject:</b> Hi<br><p>Body</p></blockquote>`,
			expected: `<blockquote type="cite"><p>Body</p></blockquote>`,
		},
		{
			name:     "cite blockquote without header kept",
			input:    `<blockquote type="cite">Quoted text<br>more</blockquote>`,
			expected: `<blockquote type="cite">Quoted text<br>more</blockquote>`,
		},
		{
			name:     "cite blockquote header table dropped",
			input:    citeTableForward,
			expected: `<blockquote type="cite"><table><tr><td>Banks are weird today.</td></tr></table><br><p>More text</p></blockquote>`,
		},
		{
			name:     "cite blockquote body table kept",
			input:    `<blockquote type="cite"><table><tr><td>Banks</td></tr></table><br><p>More</p></blockquote>`,
			expected: `<blockquote type="cite"><table><tr><td>Banks</td></tr></table><br><p>More</p></blockquote>`,
		},
		{
			name:     "dashes marker removed up to block",
			input:    `---------- Forwarded message ---------<br>From: X<br>Subject: Y<br><table><tr><td>Body</td></tr></table>`,
			expected: `<table><tr><td>Body</td></tr></table>`,
		},
		{
			name: "begin forwarded div removed through reply-to",
			input: `<div>Begin forwarded message:</div><div><b>From: </b>Money Stuff</div>` +
				`<div><b>Reply-To: </b>noreply</div><div><p>Body</p></div>`,
			expected: `<div><p>Body</p></div>`,
		},
		{
			name:     "freestanding begin forwarded header removed",
			input:    `Begin forwarded message:<br><br><b>From:</b> Money Stuff<br><b>Subject:</b> Hi<br><br><p>Body</p>`,
			expected: `<p>Body</p>`,
		},
		{
			name:     "edges trimmed",
			input:    "  <br><div></div>\n<p>Body</p><br> <div> </div>",
			expected: `<p>Body</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripForwarding(tt.input))
		})
	}
}

func TestFixMojibake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"double quotes", "â€œhiâ€\u009d", "“hi”"},
		{"apostrophe", "itâ€™s", "it’s"},
		{"em dash", "a\u00e2\u20ac\u201db", "a\u2014b"},
		{"en dash", "1â€\u201c2", "1–2"},
		{"ellipsis", "waitâ€¦", "wait…"},
		{"bare right quote", "endâ€", "end”"},
		{"nbsp artifact", "aÂ b", "a b"},
		{"clean text", "plain — text", "plain — text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FixMojibake(tt.input))
		})
	}
}

func TestRemoveBoilerplate(t *testing.T) {
	input := `<p>Story</p>` +
		`<p>You received this message because you are subscribed to Bloomberg's Money Stuff newsletter.</p>` +
		`<a href="https://li.example.com/liveintent/click"><img src="https://x.liveintent.com/a.png"></a>` +
		`<span>Bloomberg L.P. 731 Lexington Avenue, New York, NY 10022</span><p>Ads Powered By Liveintent | Ad Choices</p>` +
		`<a href="https://bloomberg.com/u">Unsubscribe</a> <a href="https://bloomberg.com/c"> Contact Us </a>` +
		`<img src="p.png" alt="Listen to the Money Stuff podcast">` +
		`<td style="background-color: rgb(204, 204, 204);">x</td>` +
		`<a href="x-msg://12/#footnote-1">1</a>a<span class="Apple-converted-space">&nbsp;</span>b`

	out := RemoveBoilerplate(input)

	assert.Contains(t, out, "<p>Story</p>")
	assert.NotContains(t, out, "subscribed to Bloomberg")
	assert.NotContains(t, out, "liveintent")
	assert.NotContains(t, out, "Liveintent")
	assert.NotContains(t, out, "731 Lexington")
	assert.NotContains(t, out, "Unsubscribe")
	assert.NotContains(t, out, "Contact Us")
	assert.NotContains(t, out, "podcast")
	assert.NotContains(t, out, "rgb(204")
	assert.Contains(t, out, `href="#footnote-1"`)
	assert.Contains(t, out, "a b")
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		gmailForward,
		`<p>itâ€™s</p><div><a href="u">Unsubscribe</a></div>`,
		`---------- Forwarded message ---------<br>From: X<br><div><p>Body</p></div><br>`,
		`<p>plain</p>`,
		citeTableForward,
		`<blockquote type="cite"><b>From:</b> Money Stuff <b>Subject:</b> Hi<br><table><tr><td>Body</td></tr></table></blockquote>`,
		`<div>Begin forwarded message:</div><div><b>From: </b>Money Stuff</div>` +
			`<div><b>Reply-To: </b>noreply</div><div><table><tr><td>Body</td></tr></table></div>`,
	}

	for _, input := range inputs {
		once := Clean(input)
		assert.Equal(t, once, Clean(once), "input: %s", input)
	}
}

func TestCleanFullPipeline(t *testing.T) {
	input := gmailForward[:len(gmailForward)-len(`<p>Hello readers.</p></div></div></div></div>`)] +
		"<p>Levineâ€™s column</p><p><a href=\"https://bloomberg.com/u\">Unsubscribe</a></p></div></div></div></div>"

	out := Clean(input)

	assert.True(t, strings.HasPrefix(out, "<div><p>Levine’s column</p>"), out)
	assert.NotContains(t, out, "gmail_quote")
	assert.NotContains(t, out, "Unsubscribe")
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "gmail container",
			input: `<div class="gmail_quote"><div class="gmail_attr">From: X</div>` +
				`<div style="width:100%;font-family:Helvetica,Arial,sans-serif"><p>Body</p></div></div></div>`,
			want: newsletterContainer + `<p>Body</p></div>`,
		},
		{
			name:  "wrapper table",
			input: `<div class="gmail_quote">junk<table id="outer-wrapper"><tr><td>Body</td></tr></table>`,
			want:  `<table id="outer-wrapper"><tr><td>Body</td></tr></table>`,
		},
		{
			name:  "no gmail markup",
			input: "<br><p>Body</p>\n",
			want:  "<p>Body</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Repair(tt.input))
		})
	}
}
