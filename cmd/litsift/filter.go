package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ekjaisal/LitSift/internal/corpus"
	"github.com/ekjaisal/LitSift/internal/export"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Sift a saved query file without re-fetching",
	Long: `Filter loads a query file written by "litsift search --format yaml",
applies a boolean filter and an optional sort, and writes the kept
records in any output format. No network requests are made.

Filter syntax:

  field:term         whole-word match in one field (title, authors, year,
                     citations, influential_citations, summary, abstract,
                     publication, external_id, pdf_url, url, or any)
  "a phrase"         substring match
  disc*  200?        wildcards: * any run, ? one character
  AND OR NOT ( )     boolean composition; AND and OR share one
                     precedence level and associate left`,
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	if in == "" {
		return fmt.Errorf("--in is required: a query file saved by litsift search")
	}

	qf, err := export.ReadQueryFile(in)
	if err != nil {
		return err
	}

	store, err := corpus.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Add(cmd.Context(), qf.Results); err != nil {
		return err
	}

	filter, _ := cmd.Flags().GetString("filter")
	sortColumn, _ := cmd.Flags().GetString("sort")
	desc, _ := cmd.Flags().GetBool("desc")

	kept, err := store.View(cmd.Context(), filter, sortColumn, desc)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Loaded: %d » Filtered: %d\n", len(qf.Results), len(kept))

	return writeOutput(cmd, kept, qf.Query.Text, qf.Query.MaxResults)
}

func init() {
	filterCmd.Flags().String("in", "", "query file to load (from search --format yaml)")
	filterCmd.Flags().String("filter", "", "boolean filter applied to loaded records")
	filterCmd.Flags().String("sort", "", "sort column: title, authors, year, citations, ...")
	filterCmd.Flags().Bool("desc", false, "sort in descending order")
	filterCmd.Flags().String("format", "table", "output format: table, json, csv, bib, or yaml")
	filterCmd.Flags().String("out", "", "write output to a file instead of stdout (required for yaml)")

	rootCmd.AddCommand(filterCmd)
}
