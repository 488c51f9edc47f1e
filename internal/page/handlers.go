package page

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"
)

// maxBodySize caps how much of a page is read.
const maxBodySize = 4 << 20

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// ContentHandler processes URLs based on response inspection
type ContentHandler interface {
	CanHandle(url string, resp *http.Response) bool
	Handle(url string, resp *http.Response) (*Result, error)
}

// ArticleHandler extracts the main article from HTML pages with readability and
// converts it to Markdown.
type ArticleHandler struct {
	converter *md.Converter
}

func (h *ArticleHandler) CanHandle(url string, resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	return contentType == "" || strings.Contains(contentType, "html")
}

func (h *ArticleHandler) Handle(rawURL string, resp *http.Response) (*Result, error) {
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}

	result := &Result{HTML: string(body)}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		// Not an article; convert the whole page instead.
		markdown, convErr := h.converter.ConvertString(string(body))
		if convErr != nil {
			return nil, fmt.Errorf("converting HTML to markdown: %w", convErr)
		}
		result.Text = markdown
		return result, nil
	}

	markdown, err := h.converter.ConvertString(article.Content)
	if err != nil {
		markdown = article.TextContent
	}
	result.Title = strings.TrimSpace(article.Title)
	result.Text = strings.TrimSpace(markdown)
	return result, nil
}

// TextHandler handles plain-text responses
type TextHandler struct{}

func (h *TextHandler) CanHandle(url string, resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain")
}

func (h *TextHandler) Handle(url string, resp *http.Response) (*Result, error) {
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	return &Result{Text: string(body)}, nil
}

// HTMLHandler converts any remaining response to Markdown (fallback)
type HTMLHandler struct {
	converter *md.Converter
}

func (h *HTMLHandler) CanHandle(url string, resp *http.Response) bool {
	return true // Always handles as fallback
}

func (h *HTMLHandler) Handle(url string, resp *http.Response) (*Result, error) {
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	markdown, err := h.converter.ConvertString(string(body))
	if err != nil {
		return nil, fmt.Errorf("converting HTML to markdown: %w", err)
	}

	return &Result{Text: markdown, HTML: string(body)}, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
