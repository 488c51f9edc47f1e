package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	doc := `<p>Intro text about markets.</p>` +
		`<a href="https://links.message.bloomberg.com/x?a=1&amp;b=2" target="_blank">Read <b>more</b></a>` +
		`<a href='https://www.wsj.com/articles/foo'>WSJ</a>` +
		`<a href="mailto:a@b.com">mail</a>` +
		`<a href="#footnote-1"><span>[1]</span></a>` +
		`<a href="">empty</a>` +
		`<a name="anchor">no href</a>` +
		`<a href="https://example.com/img"><img src="x.png"></a>`

	got := Extract(doc)
	require.Len(t, got, 3)

	assert.Equal(t, "https://links.message.bloomberg.com/x?a=1&b=2", got[0].URL)
	assert.Equal(t, "Read more", got[0].Text)
	assert.Equal(t, `<a href="https://links.message.bloomberg.com/x?a=1&amp;b=2" target="_blank">Read <b>more</b></a>`, got[0].Markup)
	assert.Contains(t, got[0].Context, "Intro text about markets.")

	assert.Equal(t, "https://www.wsj.com/articles/foo", got[1].URL)
	assert.Equal(t, "WSJ", got[1].Text)

	assert.Equal(t, "https://example.com/img", got[2].URL)
	assert.Empty(t, got[2].Text)
}

func TestExtractNonGreedy(t *testing.T) {
	doc := `<a href="https://a.com/1">one</a> and <a href="https://a.com/2">two</a>`

	got := Extract(doc)
	require.Len(t, got, 2)
	assert.Equal(t, `<a href="https://a.com/1">one</a>`, got[0].Markup)
	assert.Equal(t, `<a href="https://a.com/2">two</a>`, got[1].Markup)
}

func TestUniqueURLs(t *testing.T) {
	raw := []RawLink{
		{URL: "https://a.com"},
		{URL: "https://b.com"},
		{URL: "https://a.com"},
		{URL: "https://c.com"},
	}

	assert.Equal(t, []string{"https://a.com", "https://b.com", "https://c.com"}, UniqueURLs(raw))
}

func TestShouldSkip(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		url  string
		skip bool
	}{
		{"mailto:a@b.com", true},
		{"#footnote-2", true},
		{"https://example.com/chart.PNG", true},
		{"https://example.com/report.pdf", true},
		{"https://www.bloomberg.com/", true},
		{"HTTPS://WWW.BLOOMBERG.COM/", true},
		{"https://www.bloomberg.com/opinion/newsletters/2025-11-25/money-stuff", true},
		{"https://twitter.com/matt_levine", true},
		{"https://www.youtube.com/watch?v=1", true},
		{"https://www.bloomberg.com/account/settings", true},
		{"https://links.message.bloomberg.com/s/unsubscribe?id=1", true},
		{"https://x.liveintent.com/click", true},
		{"not a url", true},
		{"https://www.wsj.com/articles/foo", false},
		{"https://www.bloomberg.com/news/articles/2025-11-25/deal", false},
		{"https://links.message.bloomberg.com/x", false},
		{"https://www.netflix.com/title/1", true}, // host contains "x.com"
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.skip, c.ShouldSkip(tt.url))
		})
	}
}

func TestIsTracking(t *testing.T) {
	c := DefaultClassifier()

	assert.True(t, c.IsTracking("https://links.message.bloomberg.com/x"))
	assert.True(t, c.IsTracking("https://sli.bloomberg.com/click?u=1"))
	assert.True(t, c.IsTracking("https://bloom.bg/3abc"))
	assert.True(t, c.IsTracking("https://eu.links.message.bloomberg.com.mail-relay.net/x"))
	assert.False(t, c.IsTracking("https://www.bloomberg.com/news"))
	assert.False(t, c.IsTracking("%%%"))
}

func TestIsPaywalled(t *testing.T) {
	c := DefaultClassifier()

	assert.True(t, c.IsPaywalled("https://www.wsj.com/articles/foo"))
	assert.True(t, c.IsPaywalled("https://ft.com/content/1"))
	assert.True(t, c.IsPaywalled("https://www.bloomberg.com/news/articles/x"))
	assert.False(t, c.IsPaywalled("https://draft.com/x"))
	assert.False(t, c.IsPaywalled("https://example.com/wsj.com"))
	assert.False(t, c.IsPaywalled("::"))
}

func TestZeroClassifier(t *testing.T) {
	var c Classifier

	assert.False(t, c.ShouldSkip("https://twitter.com/x"))
	assert.False(t, c.IsTracking("https://bloom.bg/x"))
	assert.False(t, c.IsPaywalled("https://wsj.com/x"))
}
