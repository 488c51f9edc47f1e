package page

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Mock handler for testing
type mockHandler struct {
	canHandleResult bool
	handleResult    *Result
	handleError     error
}

func (m *mockHandler) CanHandle(url string, resp *http.Response) bool {
	return m.canHandleResult
}

func (m *mockHandler) Handle(url string, resp *http.Response) (*Result, error) {
	return m.handleResult, m.handleError
}

func TestNewFetcher(t *testing.T) {
	fetcher := NewFetcher(nil)

	if fetcher.client == nil {
		t.Error("NewFetcher() did not initialize HTTP client")
	}

	expectedHandlerCount := 3 // article, text, HTML
	if len(fetcher.handlers) != expectedHandlerCount {
		t.Errorf("NewFetcher() registered %d handlers, want %d",
			len(fetcher.handlers), expectedHandlerCount)
	}
}

func TestAddHandler(t *testing.T) {
	fetcher := &Fetcher{}

	mockH := &mockHandler{canHandleResult: true}
	fetcher.AddHandler(mockH)

	if len(fetcher.handlers) != 1 || fetcher.handlers[0] != mockH {
		t.Error("AddHandler() did not add handler to the end of the chain")
	}
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client())

	result, err := fetcher.Fetch(context.Background(), server.URL)

	if result != nil {
		t.Error("Fetch() should return nil result on HTTP error")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Fetch() error = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusForbidden {
		t.Errorf("HTTPError.StatusCode = %d, want %d", httpErr.StatusCode, http.StatusForbidden)
	}
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	result, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotUA != BrowserUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, BrowserUserAgent)
	}
	if result.Text != "hello" {
		t.Errorf("Text = %q, want %q", result.Text, "hello")
	}
}

func TestFetchUsesFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/article", http.StatusFound)
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("body"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := &Fetcher{client: server.Client()}
	fetcher.AddHandler(&mockHandler{canHandleResult: true, handleResult: &Result{Text: "ok"}})

	result, err := fetcher.Fetch(context.Background(), server.URL+"/start")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if result.URL != server.URL+"/article" {
		t.Errorf("URL = %q, want %q", result.URL, server.URL+"/article")
	}
}

func TestFetchNoHandler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	fetcher := &Fetcher{client: server.Client()}
	fetcher.AddHandler(&mockHandler{canHandleResult: false})

	_, err := fetcher.Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "no handler found") {
		t.Errorf("Fetch() error = %v, want no handler error", err)
	}
}

func TestArticleHandlerExtractsText(t *testing.T) {
	page := `<html><head><title>Deal Talk</title></head><body>
<nav><a href="/">Home</a></nav>
<article><h1>Deal Talk</h1>
<p>The merger was announced on Monday after months of negotiations between the two companies and their advisers.</p>
<p>Shareholders will receive a mix of cash and stock, valuing the target at a significant premium to its recent price.</p>
<p>Regulators are expected to review the transaction closely given the combined market share of the firms.</p>
</article></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer server.Close()

	result, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if !strings.Contains(result.Text, "merger was announced") {
		t.Errorf("Text missing article body: %q", result.Text)
	}
	if result.HTML != page {
		t.Error("HTML should hold the raw page markup")
	}
}

func TestOGImage(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		expected string
	}{
		{
			name:     "property before content",
			markup:   `<head><meta property="og:image" content="https://img.example.com/a.jpg"></head>`,
			expected: "https://img.example.com/a.jpg",
		},
		{
			name:     "content before property",
			markup:   `<head><meta content="https://img.example.com/b.jpg" property="og:image"></head>`,
			expected: "https://img.example.com/b.jpg",
		},
		{
			name:     "twitter fallback",
			markup:   `<head><meta name="twitter:image" content="https://img.example.com/t.jpg"></head>`,
			expected: "https://img.example.com/t.jpg",
		},
		{
			name: "og preferred over twitter",
			markup: `<head><meta name="twitter:image" content="https://img.example.com/t.jpg">` +
				`<meta property="og:image" content="https://img.example.com/o.jpg"></head>`,
			expected: "https://img.example.com/o.jpg",
		},
		{
			name:     "no image",
			markup:   `<head><title>x</title></head>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OGImage(tt.markup); got != tt.expected {
				t.Errorf("OGImage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFetchOGImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta property="og:image" content="https://img.example.com/c.jpg"></head></html>`))
	}))
	defer server.Close()

	img, err := NewFetcher(server.Client()).FetchOGImage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchOGImage() error = %v", err)
	}
	if img != "https://img.example.com/c.jpg" {
		t.Errorf("FetchOGImage() = %q", img)
	}
}
