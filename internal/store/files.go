// Package store persists wrapped newsletters: a rendered page and a metadata file per
// issue, keyed by the issue date, plus a SQLite index of processed issues.
package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTemplate renders a stored issue when no template is configured.
//
//go:embed page.html
var DefaultTemplate string

// Markers around the newsletter body inside a rendered page, so the body can be
// recovered without knowing the template.
const (
	bodyBegin = "<!-- newsletter:begin -->"
	bodyEnd   = "<!-- newsletter:end -->"
)

// ErrNotFound is returned when no issue is stored for a date.
var ErrNotFound = errors.New("issue not found")

// Meta describes one stored issue.
type Meta struct {
	Date         string    `json:"date"`
	Subject      string    `json:"subject"`
	Preview      string    `json:"preview"`
	OGImage      string    `json:"ogImage"`
	ProcessedAt  time.Time `json:"processedAt"`
	LinkCount    int       `json:"linkCount,omitempty"`
	SummaryCount int       `json:"summaryCount,omitempty"`
	ArchiveCount int       `json:"archiveCount,omitempty"`
}

type pageData struct {
	Meta
	Body template.HTML
}

// FileStore keeps issues as <date>.html and <date>.json in one directory.
type FileStore struct {
	dir  string
	tmpl *template.Template
}

// NewFileStore creates a store rooted at dir that renders pages with tmpl. An empty tmpl
// uses DefaultTemplate.
func NewFileStore(dir, tmpl string) (*FileStore, error) {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	t, err := template.New("page").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	return &FileStore{dir: dir, tmpl: t}, nil
}

// HTMLPath returns the page path for date.
func (s *FileStore) HTMLPath(date string) string {
	return filepath.Join(s.dir, date+".html")
}

// MetaPath returns the metadata path for date.
func (s *FileStore) MetaPath(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Save renders body into a page and writes it along with meta. Existing files for the
// same date are replaced.
func (s *FileStore) Save(meta Meta, body string) error {
	if meta.Date == "" {
		return errors.New("saving issue: missing date")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	var buf bytes.Buffer
	data := pageData{
		Meta: meta,
		Body: template.HTML(bodyBegin + body + bodyEnd),
	}
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	if err := os.WriteFile(s.HTMLPath(meta.Date), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}

	js, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(s.MetaPath(meta.Date), js, 0644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// Meta reads the metadata stored for date.
func (s *FileStore) Meta(date string) (Meta, error) {
	return ReadMeta(s.MetaPath(date))
}

// ReadMeta decodes one metadata file.
func ReadMeta(path string) (Meta, error) {
	var meta Meta
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return meta, ErrNotFound
	}
	if err != nil {
		return meta, fmt.Errorf("reading metadata: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return meta, nil
}

// Body returns the newsletter body of the page stored for date. Pages written without
// body markers are returned whole.
func (s *FileStore) Body(date string) (string, error) {
	data, err := os.ReadFile(s.HTMLPath(date))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}

	page := string(data)
	start := strings.Index(page, bodyBegin)
	end := strings.LastIndex(page, bodyEnd)
	if start < 0 || end < start {
		return page, nil
	}
	return page[start+len(bodyBegin) : end], nil
}
