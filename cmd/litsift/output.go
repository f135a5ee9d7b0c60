package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekjaisal/LitSift/internal/export"
	"github.com/ekjaisal/LitSift/pkg/types"
)

// writeOutput renders records in the format selected by --format,
// writing to --out when set and stdout otherwise.
func writeOutput(cmd *cobra.Command, records []types.Record, queryText string, maxResults int) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	if format == "yaml" {
		if out == "" {
			return fmt.Errorf("--out is required with --format yaml")
		}
		return export.WriteQueryFile(out, queryText, maxResults, records)
	}

	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "table", "":
		writeTable(w, records)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "csv":
		return export.WriteCSV(w, records)
	case "bib":
		return export.WriteBibTeX(w, records)
	default:
		return fmt.Errorf("unsupported format %q: use table, json, csv, bib, or yaml", format)
	}
}

// writeTable prints a human-readable result table.
func writeTable(w io.Writer, records []types.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-24s  %-4s  %-9s\n",
		"Rank", "Title", "Authors", "Year", "Citations")
	fmt.Fprintln(w, strings.Repeat("-", 108))

	for i, r := range records {
		fmt.Fprintf(w, "%-4d  %-60s  %-24s  %-4s  %-9s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), r.Year, r.Citations)
	}

	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// formatAuthors shortens a joined author list to the first name plus
// "et al." when there is more than one.
func formatAuthors(authors string) string {
	if authors == "" {
		return ""
	}
	parts := strings.SplitN(authors, ", ", 2)
	if len(parts) == 1 {
		return truncate(parts[0], 24)
	}
	return truncate(parts[0], 17) + " et al."
}

// truncate shortens s to at most max runes, ending in "..." when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
