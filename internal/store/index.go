package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Index is a SQLite table of processed issues.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	idx := &Index{db: db}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) init() error {
	_, err := i.db.Exec(`
		CREATE TABLE IF NOT EXISTS newsletters (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			date          TEXT NOT NULL UNIQUE,
			subject       TEXT NOT NULL,
			link_count    INTEGER DEFAULT 0,
			summary_count INTEGER DEFAULT 0,
			archive_count INTEGER DEFAULT 0,
			processed_at  INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Upsert records an issue, replacing any earlier row for the same date.
func (i *Index) Upsert(m Meta) error {
	processed := m.ProcessedAt
	if processed.IsZero() {
		processed = time.Now()
	}
	_, err := i.db.Exec(`
		INSERT INTO newsletters (date, subject, link_count, summary_count, archive_count, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			subject = excluded.subject,
			link_count = excluded.link_count,
			summary_count = excluded.summary_count,
			archive_count = excluded.archive_count,
			processed_at = excluded.processed_at
	`, m.Date, m.Subject, m.LinkCount, m.SummaryCount, m.ArchiveCount, processed.Unix())
	if err != nil {
		return fmt.Errorf("upserting %s: %w", m.Date, err)
	}
	return nil
}

// Get returns the indexed row for date, or ErrNotFound.
func (i *Index) Get(date string) (Meta, error) {
	row := i.db.QueryRow(`
		SELECT date, subject, link_count, summary_count, archive_count, processed_at
		FROM newsletters WHERE date = ?`, date)
	m, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// Recent returns up to limit issues, newest first. limit <= 0 returns all.
func (i *Index) Recent(limit int) ([]Meta, error) {
	query := `
		SELECT date, subject, link_count, summary_count, archive_count, processed_at
		FROM newsletters ORDER BY date DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := i.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying newsletters: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(s scanner) (Meta, error) {
	var (
		m         Meta
		processed int64
	)
	if err := s.Scan(&m.Date, &m.Subject, &m.LinkCount, &m.SummaryCount, &m.ArchiveCount, &processed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("scanning newsletter: %w", err)
	}
	m.ProcessedAt = time.Unix(processed, 0).UTC()
	return m, nil
}
