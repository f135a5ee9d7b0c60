// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for litsift.
package types

import "strings"

// Record is one normalized search result. Every field is a string; data
// missing upstream is the empty string, never absent. Records are
// immutable once built by the fetch stage.
type Record struct {
	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names joined with ", " in source order.
	Authors string `json:"authors" yaml:"authors"`

	// Year is the publication year, or "" when unknown.
	Year string `json:"year" yaml:"year"`

	// Citations is the total citation count, or "" when unknown.
	Citations string `json:"citations" yaml:"citations"`

	// InfluentialCitations is the influential citation count, or "".
	InfluentialCitations string `json:"influential_citations" yaml:"influential_citations"`

	// Summary is the machine-generated TLDR summary.
	Summary string `json:"summary" yaml:"summary"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Publication lists publication-type labels joined with ", ".
	Publication string `json:"publication" yaml:"publication"`

	// ExternalID is the external identifier (DOI).
	ExternalID string `json:"external_id" yaml:"external_id"`

	// PDFURL is the open-access PDF link, when one exists.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// URL is the record's page on the source site.
	URL string `json:"url" yaml:"url"`

	// Citation is the preformatted citation text (BibTeX). Export-only;
	// it is not part of the filterable field set.
	Citation string `json:"citation" yaml:"citation"`
}

// FilterFieldNames lists the filterable field keys in display order.
// The special field name "any" is recognized by the filter language but
// is not a record field.
var FilterFieldNames = []string{
	"title",
	"authors",
	"year",
	"citations",
	"influential_citations",
	"summary",
	"abstract",
	"publication",
	"external_id",
	"pdf_url",
	"url",
}

// FilterFields returns the record's filterable fields as a map of
// lowercase field name to lowercase field text. Every name in
// FilterFieldNames is always present as a key.
func (r Record) FilterFields() map[string]string {
	return map[string]string{
		"title":                 strings.ToLower(r.Title),
		"authors":               strings.ToLower(r.Authors),
		"year":                  strings.ToLower(r.Year),
		"citations":             strings.ToLower(r.Citations),
		"influential_citations": strings.ToLower(r.InfluentialCitations),
		"summary":               strings.ToLower(r.Summary),
		"abstract":              strings.ToLower(r.Abstract),
		"publication":           strings.ToLower(r.Publication),
		"external_id":           strings.ToLower(r.ExternalID),
		"pdf_url":               strings.ToLower(r.PDFURL),
		"url":                   strings.ToLower(r.URL),
	}
}
