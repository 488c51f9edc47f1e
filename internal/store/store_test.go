package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "db", "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func sampleMeta() Meta {
	return Meta{
		Date:         "2025-11-25",
		Subject:      "Money Stuff: Banks & Bonds",
		Preview:      "Hello <readers>",
		OGImage:      "https://images.example.com/cover.jpg",
		ProcessedAt:  time.Date(2025, 11, 25, 14, 0, 0, 0, time.UTC),
		LinkCount:    12,
		SummaryCount: 3,
		ArchiveCount: 2,
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "issues"), "")
	require.NoError(t, err)

	meta := sampleMeta()
	body := `<p>Read <a href="https://www.wsj.com/a">this</a>.</p>`
	require.NoError(t, fs.Save(meta, body))

	got, err := fs.Meta(meta.Date)
	require.NoError(t, err)
	assert.Equal(t, meta, got)

	gotBody, err := fs.Body(meta.Date)
	require.NoError(t, err)
	assert.Equal(t, body, gotBody)

	page, err := os.ReadFile(fs.HTMLPath(meta.Date))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Money Stuff: Banks &amp; Bonds</title>")
	assert.Contains(t, string(page), `<meta property="og:image" content="https://images.example.com/cover.jpg">`)
	assert.Contains(t, string(page), body)
}

func TestFileStoreCustomTemplate(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), `<h1>{{.Subject}}</h1>{{.Body}}`)
	require.NoError(t, err)

	require.NoError(t, fs.Save(Meta{Date: "2025-01-02", Subject: "S"}, "<p>b</p>"))

	page, err := os.ReadFile(fs.HTMLPath("2025-01-02"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "<h1>S</h1>"))

	body, err := fs.Body("2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, "<p>b</p>", body)
}

func TestFileStoreBadTemplate(t *testing.T) {
	_, err := NewFileStore(t.TempDir(), "{{.Subject")
	assert.Error(t, err)
}

func TestFileStoreMissing(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = fs.Meta("2025-01-01")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fs.Body("2025-01-01")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, fs.Save(Meta{}, "x"))
}

func TestFileStoreBodyWithoutMarkers(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-03-04.html"), []byte("<p>legacy</p>"), 0644))

	body, err := fs.Body("2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, "<p>legacy</p>", body)
}

func TestIndexUpsertAndGet(t *testing.T) {
	idx := testIndex(t)
	meta := sampleMeta()

	require.NoError(t, idx.Upsert(meta))

	got, err := idx.Get(meta.Date)
	require.NoError(t, err)
	assert.Equal(t, meta.Subject, got.Subject)
	assert.Equal(t, 12, got.LinkCount)
	assert.Equal(t, 3, got.SummaryCount)
	assert.Equal(t, 2, got.ArchiveCount)
	assert.True(t, meta.ProcessedAt.Equal(got.ProcessedAt))
}

func TestIndexUpsertUpdatesExisting(t *testing.T) {
	idx := testIndex(t)
	meta := sampleMeta()
	require.NoError(t, idx.Upsert(meta))

	meta.Subject = "Money Stuff: Updated"
	meta.SummaryCount = 5
	require.NoError(t, idx.Upsert(meta))

	all, err := idx.Recent(0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Money Stuff: Updated", all[0].Subject)
	assert.Equal(t, 5, all[0].SummaryCount)
}

func TestIndexRecent(t *testing.T) {
	idx := testIndex(t)
	for _, d := range []string{"2025-11-20", "2025-11-25", "2025-11-21"} {
		require.NoError(t, idx.Upsert(Meta{Date: d, Subject: d}))
	}

	recent, err := idx.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-11-25", recent[0].Date)
	assert.Equal(t, "2025-11-21", recent[1].Date)
	assert.False(t, recent[0].ProcessedAt.IsZero())
}

func TestIndexGetMissing(t *testing.T) {
	idx := testIndex(t)

	_, err := idx.Get("1999-01-01")
	assert.ErrorIs(t, err, ErrNotFound)
}
