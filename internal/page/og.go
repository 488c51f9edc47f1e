package page

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// OGImage returns the page's open-graph image, falling back to the Twitter card image.
// Attribute order inside the meta tag does not matter.
func OGImage(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	for _, key := range []string{"og:image", "twitter:image"} {
		if img := metaContent(doc, key); img != "" {
			return img
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, key string) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		prop, _ := s.Attr("property")
		name, _ := s.Attr("name")
		if !strings.EqualFold(prop, key) && !strings.EqualFold(name, key) {
			return true
		}
		content = strings.TrimSpace(s.AttrOr("content", ""))
		return content == ""
	})
	return content
}

// FetchOGImage downloads url and returns its cover image, if any.
func (f *Fetcher) FetchOGImage(ctx context.Context, url string) (string, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	return OGImage(string(body)), nil
}
