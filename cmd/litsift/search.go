package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ekjaisal/LitSift/internal/corpus"
	"github.com/ekjaisal/LitSift/internal/fetch"
	"github.com/ekjaisal/LitSift/internal/ratelimit"
	"github.com/ekjaisal/LitSift/internal/secrets"
	"github.com/ekjaisal/LitSift/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fetch search results from the Semantic Scholar API",
	Long: `Search retrieves up to --max-results records for a query, paging
through the API under its rate limits and reporting progress to stderr.
An optional --filter narrows the fetched set before output, and --sort
orders it by a record field.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	if query == "" {
		return fmt.Errorf("query required: pass it as an argument or with --query")
	}

	cfg, err := fetchConfig(cmd)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(cfg.RateCapacity, cfg.RateFillPerSecond)
	fetcher := fetch.New(cfg, limiter)

	records, err := fetcher.Search(cmd.Context(), query, cfg.MaxResults, progressPrinter(os.Stderr))
	if err != nil {
		if len(records) > 0 && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			fmt.Fprintf(os.Stderr, "search interrupted, keeping %d fetched records\n", len(records))
		} else {
			return fmt.Errorf("search failed: %w", err)
		}
	}

	store, err := corpus.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Add(cmd.Context(), records); err != nil {
		return err
	}

	filter, _ := cmd.Flags().GetString("filter")
	sortColumn, _ := cmd.Flags().GetString("sort")
	desc, _ := cmd.Flags().GetBool("desc")

	kept, err := store.View(cmd.Context(), filter, sortColumn, desc)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Fetched: %d » Filtered: %d\n", len(records), len(kept))

	return writeOutput(cmd, kept, query, cfg.MaxResults)
}

// fetchConfig layers flag and viper values over the defaults. The API
// key is resolved flag > environment/config > .secrets/ file.
func fetchConfig(cmd *cobra.Command) (types.FetchConfig, error) {
	cfg := types.DefaultFetchConfig()

	if v := viper.GetInt("max_results"); v > 0 {
		cfg.MaxResults = v
	}
	if v := viper.GetInt("page_cap"); v > 0 {
		cfg.PageCap = v
	}
	if v := viper.GetDuration("timeout"); v > 0 {
		cfg.Timeout = v
	}
	if v := viper.GetString("user_agent"); v != "" {
		cfg.UserAgent = v
	}
	if v := viper.GetFloat64("rate_capacity"); v > 0 {
		cfg.RateCapacity = v
	}
	if v := viper.GetFloat64("rate_fill_per_second"); v > 0 {
		cfg.RateFillPerSecond = v
	}

	if v, _ := cmd.Flags().GetInt("max-results"); v > 0 {
		cfg.MaxResults = v
	}

	cfg.APIKey = viper.GetString("api_key")
	if v, _ := cmd.Flags().GetString("api-key"); v != "" {
		cfg.APIKey = v
	}
	if cfg.APIKey == "" {
		key, err := secrets.APIKey(".secrets/")
		if err != nil {
			return cfg, err
		}
		cfg.APIKey = key
	}

	return cfg, nil
}

// progressPrinter renders progress callbacks as single stderr lines.
func progressPrinter(w *os.File) fetch.ProgressFunc {
	start := time.Now()
	return func(percent int, message string) {
		fmt.Fprintf(w, "[%3d%%] %s (%s)\n", percent, message, time.Since(start).Round(time.Second))
	}
}

func init() {
	searchCmd.Flags().String("query", "", "search query (alternative to positional argument)")
	searchCmd.Flags().Int("max-results", 0, "result-count budget (default 1000)")
	searchCmd.Flags().String("api-key", "", "Semantic Scholar API key for higher rate limits")
	searchCmd.Flags().String("filter", "", "boolean filter applied to fetched records")
	searchCmd.Flags().String("sort", "", "sort column: title, authors, year, citations, ...")
	searchCmd.Flags().Bool("desc", false, "sort in descending order")
	searchCmd.Flags().String("format", "table", "output format: table, json, csv, bib, or yaml")
	searchCmd.Flags().String("out", "", "write output to a file instead of stdout (required for yaml)")

	rootCmd.AddCommand(searchCmd)
}
