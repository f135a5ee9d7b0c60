// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"strconv"
	"strings"

	"github.com/ekjaisal/LitSift/pkg/types"
)

// Semantic Scholar API JSON structures. Optional nested objects and
// numerics are pointers so that JSON null and absence both decode to
// nil rather than a zero value.
type searchResponse struct {
	Total  int        `json:"total"`
	Offset int        `json:"offset"`
	Next   *int       `json:"next"`
	Data   []rawPaper `json:"data"`
}

type rawPaper struct {
	PaperID                  string             `json:"paperId"`
	Title                    string             `json:"title"`
	Authors                  []rawAuthor        `json:"authors"`
	Year                     *int               `json:"year"`
	CitationCount            *int               `json:"citationCount"`
	InfluentialCitationCount *int               `json:"influentialCitationCount"`
	TLDR                     *rawTLDR           `json:"tldr"`
	Abstract                 *string            `json:"abstract"`
	PublicationTypes         []*string          `json:"publicationTypes"`
	ExternalIDs              *rawExternalIDs    `json:"externalIds"`
	OpenAccessPDF            *rawOpenAccessPDF  `json:"openAccessPdf"`
	URL                      string             `json:"url"`
	CitationStyles           *rawCitationStyles `json:"citationStyles"`
}

type rawAuthor struct {
	AuthorID string  `json:"authorId"`
	Name     *string `json:"name"`
}

type rawTLDR struct {
	Text string `json:"text"`
}

type rawExternalIDs struct {
	DOI string `json:"DOI"`
}

type rawOpenAccessPDF struct {
	URL string `json:"url"`
}

type rawCitationStyles struct {
	BibTeX string `json:"bibtex"`
}

// Normalize maps one raw API item onto the flat Record shape. It is
// total: any combination of missing or null fields produces empty
// strings, never an error.
func Normalize(p rawPaper) types.Record {
	var names []string
	for _, a := range p.Authors {
		if a.Name != nil {
			names = append(names, *a.Name)
		}
	}

	var pubTypes []string
	for _, t := range p.PublicationTypes {
		if t != nil {
			pubTypes = append(pubTypes, *t)
		}
	}

	r := types.Record{
		Title:                p.Title,
		Authors:              strings.Join(names, ", "),
		Year:                 intString(p.Year),
		Citations:            intString(p.CitationCount),
		InfluentialCitations: intString(p.InfluentialCitationCount),
		Publication:          strings.Join(pubTypes, ", "),
		URL:                  p.URL,
	}

	if p.Abstract != nil {
		r.Abstract = *p.Abstract
	}
	if p.TLDR != nil {
		r.Summary = p.TLDR.Text
	}
	if p.ExternalIDs != nil {
		r.ExternalID = p.ExternalIDs.DOI
	}
	if p.OpenAccessPDF != nil {
		r.PDFURL = p.OpenAccessPDF.URL
	}
	if p.CitationStyles != nil {
		r.Citation = p.CitationStyles.BibTeX
	}
	return r
}

// intString renders an optional numeric as its decimal text, or "" when
// absent. Never "0" for missing data.
func intString(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
