// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus holds one search session's fetched records in an
// in-memory SQLite database and serves filtered and sorted views of
// them. Nothing survives Close: the database lives at :memory: so a
// session leaves no state behind.
package corpus

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ekjaisal/LitSift/internal/query"
	"github.com/ekjaisal/LitSift/pkg/types"
)

// Store is a session-scoped record corpus.
type Store struct {
	db *sql.DB
}

// Open creates an empty in-memory corpus.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening corpus database: %w", err)
	}

	schema := `CREATE TABLE records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		authors TEXT,
		year TEXT,
		citations TEXT,
		influential_citations TEXT,
		summary TEXT,
		abstract TEXT,
		publication TEXT,
		external_id TEXT,
		pdf_url TEXT,
		url TEXT,
		citation TEXT
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating corpus schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database; all records are discarded.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add appends records in order.
func (s *Store) Add(ctx context.Context, records []types.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (title, authors, year, citations, influential_citations,
			summary, abstract, publication, external_id, pdf_url, url, citation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.Title, r.Authors, r.Year, r.Citations, r.InfluentialCitations,
			r.Summary, r.Abstract, r.Publication, r.ExternalID, r.PDFURL, r.URL, r.Citation,
		)
		if err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}
	}
	return tx.Commit()
}

// Len reports the number of records in the corpus.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Reset discards every record, keeping the corpus usable.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clearing corpus: %w", err)
	}
	return nil
}

// All returns every record in insertion order.
func (s *Store) All(ctx context.Context) ([]types.Record, error) {
	return s.selectRecords(ctx, `SELECT title, authors, year, citations, influential_citations,
		summary, abstract, publication, external_id, pdf_url, url, citation
		FROM records ORDER BY seq`)
}

// numericColumns are sorted by integer value rather than as text.
var numericColumns = map[string]bool{
	"year":                  true,
	"citations":             true,
	"influential_citations": true,
}

// sortableColumns whitelists the ORDER BY targets.
var sortableColumns = map[string]bool{
	"title":                 true,
	"authors":               true,
	"year":                  true,
	"citations":             true,
	"influential_citations": true,
	"summary":               true,
	"abstract":              true,
	"publication":           true,
	"external_id":           true,
	"pdf_url":               true,
	"url":                   true,
}

// Sorted returns every record ordered by one column. Year and citation
// columns sort numerically; empty values always sort last.
func (s *Store) Sorted(ctx context.Context, column string, desc bool) ([]types.Record, error) {
	if !sortableColumns[column] {
		return nil, fmt.Errorf("unknown sort column %q", column)
	}

	key := fmt.Sprintf("lower(%s)", column)
	if numericColumns[column] {
		key = fmt.Sprintf("CAST(%s AS INTEGER)", column)
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	q := fmt.Sprintf(`SELECT title, authors, year, citations, influential_citations,
		summary, abstract, publication, external_id, pdf_url, url, citation
		FROM records ORDER BY (%s = '') ASC, %s %s, seq`, column, key, dir)
	return s.selectRecords(ctx, q)
}

// Filter evaluates a filter string against every record and returns the
// kept records in corpus order. An empty filter keeps everything.
func (s *Store) Filter(ctx context.Context, filter string) ([]types.Record, error) {
	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	expr := query.Compile(filter)
	var kept []types.Record
	for _, r := range records {
		if query.Evaluate(expr, r.FilterFields()) {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// View combines filtering and sorting: records are ordered by
// sortColumn (corpus order when empty), then narrowed by the filter
// string. This is the projection the CLI renders and exports.
func (s *Store) View(ctx context.Context, filter, sortColumn string, desc bool) ([]types.Record, error) {
	var records []types.Record
	var err error
	if sortColumn != "" {
		records, err = s.Sorted(ctx, sortColumn, desc)
	} else {
		records, err = s.All(ctx)
	}
	if err != nil {
		return nil, err
	}

	expr := query.Compile(filter)
	var kept []types.Record
	for _, r := range records {
		if query.Evaluate(expr, r.FilterFields()) {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

func (s *Store) selectRecords(ctx context.Context, q string) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var r types.Record
		err := rows.Scan(&r.Title, &r.Authors, &r.Year, &r.Citations, &r.InfluentialCitations,
			&r.Summary, &r.Abstract, &r.Publication, &r.ExternalID, &r.PDFURL, &r.URL, &r.Citation)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
