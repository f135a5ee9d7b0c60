// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/ekjaisal/LitSift/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// Saving one lets the user filter and re-export later without
// re-querying the API.
type QueryFile struct {
	Query   QueryParams    `yaml:"query"`
	Results []types.Record `yaml:"results"`
	Summary QuerySummary   `yaml:"summary"`
}

// QueryParams stores the search parameters that produced the results.
type QueryParams struct {
	Text       string `yaml:"text"`
	MaxResults int    `yaml:"max_results"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Fetched   int       `yaml:"fetched"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a search and its records to a YAML file.
func WriteQueryFile(path, queryText string, maxResults int, records []types.Record) error {
	qf := QueryFile{
		Query: QueryParams{
			Text:       queryText,
			MaxResults: maxResults,
		},
		Results: records,
		Summary: QuerySummary{
			Fetched:   len(records),
			Timestamp: time.Now(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
