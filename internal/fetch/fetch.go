// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves paginated search results from the Semantic
// Scholar API and normalizes them into flat records.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ekjaisal/LitSift/internal/ratelimit"
	"github.com/ekjaisal/LitSift/pkg/types"
)

// defaultAPIBase is the Semantic Scholar paper search endpoint.
const defaultAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// searchFields is the fixed field-projection list sent with every page
// request.
const searchFields = "paperId,title,authors,year,citationCount,influentialCitationCount,tldr,abstract,publicationTypes,externalIds,openAccessPdf,url,citationStyles"

const (
	defaultPageCap     = 100
	defaultMaxResults  = 1000
	defaultMaxAttempts = 5
)

// Timing knobs for retry behavior. Tests override these to avoid real
// sleeps.
var (
	// backoffUnit is the base duration for exponential backoff on
	// transport failures: the delay before retry n is 2^n units.
	backoffUnit = 1 * time.Second

	// defaultRetryAfter is the wait applied to an HTTP 429 response
	// that carries no Retry-After header.
	defaultRetryAfter = 15 * time.Second
)

// ProgressFunc receives retrieval progress: a percentage in [0,100] and
// a short status message. It is called synchronously on the fetch task
// and must not block.
type ProgressFunc func(percent int, message string)

// Fetcher runs the paginated retrieval loop against the search API. The
// Limiter gates every outbound attempt; sharing one bucket across
// fetchers throttles their combined request rate.
type Fetcher struct {
	Client  *http.Client
	Limiter *ratelimit.Bucket

	// BaseURL overrides the search endpoint. Empty means the public
	// Semantic Scholar endpoint.
	BaseURL string

	// APIKey, when set, is sent as the x-api-key header.
	APIKey string

	// UserAgent is sent with every request.
	UserAgent string

	// PageCap bounds the page size requested per API call. Values
	// outside 1..100 fall back to the upstream maximum of 100.
	PageCap int
}

// New builds a Fetcher from configuration and a shared rate limiter.
func New(cfg types.FetchConfig, limiter *ratelimit.Bucket) *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		Limiter:   limiter,
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
		PageCap:   cfg.PageCap,
	}
}

// Search retrieves up to maxResults records matching query, one page at
// a time, reporting progress before each page request and after each
// page is absorbed. It returns when the budget is met, the result set
// is exhausted, or an error aborts retrieval.
//
// On context cancellation the records fetched so far are returned
// alongside the context error, so a long retrieval can be stopped
// without losing completed pages.
func (f *Fetcher) Search(ctx context.Context, query string, maxResults int, onProgress ProgressFunc) ([]types.Record, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	// The API rejects limits above 100.
	pageCap := f.PageCap
	if pageCap <= 0 || pageCap > defaultPageCap {
		pageCap = defaultPageCap
	}

	var all []types.Record
	offset := 0

	for len(all) < maxResults {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		report(onProgress, percent(len(all), maxResults),
			fmt.Sprintf("Fetching results (offset: %d)...", offset))

		limit := maxResults - len(all)
		if limit > pageCap {
			limit = pageCap
		}

		page, err := f.fetchPage(ctx, query, offset, limit, onProgress, percent(len(all), maxResults))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return all, err
			}
			return nil, err
		}

		if len(page.Data) == 0 {
			break
		}

		for _, p := range page.Data {
			all = append(all, Normalize(p))
		}

		if page.Next != nil {
			offset = *page.Next
		} else {
			offset += len(page.Data)
		}

		report(onProgress, percent(len(all), maxResults),
			fmt.Sprintf("Processed %d results...", len(all)))

		// No continuation cursor means this was the last page.
		if page.Next == nil {
			break
		}
	}

	if len(all) > maxResults {
		all = all[:maxResults]
	}
	return all, nil
}

// fetchPage requests one page, waiting on the rate limiter before every
// attempt. HTTP 429 responses are retried after the server-specified
// delay without counting as failed attempts; transport failures are
// retried with exponential backoff up to 5 attempts total.
func (f *Fetcher) fetchPage(ctx context.Context, query string, offset, limit int, onProgress ProgressFunc, pct int) (*searchResponse, error) {
	base := f.BaseURL
	if base == "" {
		base = defaultAPIBase
	}

	params := url.Values{
		"query":  {query},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
		"fields": {searchFields},
	}
	reqURL := base + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < defaultMaxAttempts; attempt++ {
		if err := f.Limiter.AwaitToken(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", f.UserAgent)
		if f.APIKey != "" {
			req.Header.Set("x-api-key", f.APIKey)
		}

		resp, err := f.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt+1 < defaultMaxAttempts {
				delay := time.Duration(1<<uint(attempt)) * backoffUnit
				if err := sleep(ctx, delay); err != nil {
					return nil, err
				}
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryAfter(resp)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			report(onProgress, pct,
				fmt.Sprintf("Rate limit hit, waiting %d seconds...", int(delay/time.Second)))
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			// Retry the same page without consuming an attempt.
			attempt--
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, classifyStatus(resp.StatusCode)
		}

		var page searchResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing search response: %w", err)
		}
		return &page, nil
	}

	return nil, &TransientError{Attempts: defaultMaxAttempts, Last: lastErr}
}

// retryAfter reads the Retry-After header in seconds, defaulting when
// the header is absent or malformed.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}

// percent computes floor(done/total × 100) clamped to [0,100].
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := done * 100 / total
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}

func report(onProgress ProgressFunc, pct int, message string) {
	if onProgress != nil {
		onProgress(pct, message)
	}
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
