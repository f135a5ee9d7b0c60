// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export serializes session records for downstream use: CSV
// and BibTeX files, and YAML query files that capture a search and its
// results for later filtering without re-fetching.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ekjaisal/LitSift/pkg/types"
)

// csvColumns is the fixed CSV column order.
var csvColumns = []string{
	"Title",
	"Authors",
	"Year",
	"Citations",
	"Influential Citations",
	"S2 TLDR",
	"Abstract",
	"Publication Type",
	"DOI",
	"PDF URL",
	"S2 URL",
}

// csvRow projects a record onto the CSV column order.
func csvRow(r types.Record) []string {
	return []string{
		r.Title,
		r.Authors,
		r.Year,
		r.Citations,
		r.InfluentialCitations,
		r.Summary,
		r.Abstract,
		r.Publication,
		r.ExternalID,
		r.PDFURL,
		r.URL,
	}
}

// WriteCSV writes records as CSV with a header row. Rows are
// deduplicated by full-tuple equality and rows with every column empty
// are dropped.
func WriteCSV(w io.Writer, records []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	seen := make(map[[11]string]bool)
	for _, r := range records {
		row := csvRow(r)

		var key [11]string
		copy(key[:], row)
		if seen[key] {
			continue
		}

		empty := true
		for _, v := range row {
			if v != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		seen[key] = true
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
