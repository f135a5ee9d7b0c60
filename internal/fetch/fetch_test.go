// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ekjaisal/LitSift/internal/ratelimit"
)

func init() {
	// Keep retry sleeps out of test runtime.
	backoffUnit = 1 * time.Millisecond
	defaultRetryAfter = 1 * time.Millisecond
}

// newTestFetcher points a fetcher with an unconstrained rate limiter at
// a test server.
func newTestFetcher(ts *httptest.Server) *Fetcher {
	return &Fetcher{
		Client:    ts.Client(),
		Limiter:   ratelimit.New(10000, 10000),
		BaseURL:   ts.URL,
		UserAgent: "litsift-test",
	}
}

// pagedHandler serves total items in pages honoring offset and limit,
// omitting "next" on the final page.
func pagedHandler(total int, requests *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*requests++
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var items []string
		for i := offset; i < total && i < offset+limit; i++ {
			items = append(items, fmt.Sprintf(`{"paperId":"p%d","title":"Paper %d"}`, i, i))
		}

		body := fmt.Sprintf(`{"total":%d,"offset":%d,"data":[%s]`, total, offset, strings.Join(items, ","))
		if offset+len(items) < total {
			body += fmt.Sprintf(`,"next":%d`, offset+len(items))
		}
		body += "}"

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func TestSearchPaginatesToBudget(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		maxResults   int
		pageCap      int
		wantRecords  int
		wantRequests int
	}{
		{"budget smaller than data", 250, 120, 100, 120, 2},
		{"data exhausted before budget", 30, 120, 100, 30, 1},
		{"exact page multiple", 200, 200, 100, 200, 2},
		{"small pages", 10, 10, 4, 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests int
			ts := httptest.NewServer(pagedHandler(tt.total, &requests))
			defer ts.Close()

			f := newTestFetcher(ts)
			f.PageCap = tt.pageCap

			records, err := f.Search(context.Background(), "test", tt.maxResults, nil)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(records) != tt.wantRecords {
				t.Errorf("len(records) = %d, want %d", len(records), tt.wantRecords)
			}
			if requests != tt.wantRequests {
				t.Errorf("requests = %d, want %d", requests, tt.wantRequests)
			}
		})
	}
}

func TestSearchRequestParams(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	f.APIKey = "test-key-123"

	if _, err := f.Search(context.Background(), "critical discourse", 40, nil); err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := captured.URL.Query()
	if got := q.Get("query"); got != "critical discourse" {
		t.Errorf("query param = %q, want %q", got, "critical discourse")
	}
	if got := q.Get("offset"); got != "0" {
		t.Errorf("offset param = %q, want %q", got, "0")
	}
	// Page size is min(pageCap, remaining budget).
	if got := q.Get("limit"); got != "40" {
		t.Errorf("limit param = %q, want %q", got, "40")
	}
	for _, field := range []string{"paperId", "title", "authors", "citationCount", "tldr", "citationStyles"} {
		if !strings.Contains(q.Get("fields"), field) {
			t.Errorf("fields param %q missing %q", q.Get("fields"), field)
		}
	}
	if got := captured.Header.Get("x-api-key"); got != "test-key-123" {
		t.Errorf("x-api-key header = %q, want %q", got, "test-key-123")
	}
}

func TestSearchPageCapClampedToUpstreamMax(t *testing.T) {
	var limits []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits = append(limits, r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	f.PageCap = 250

	if _, err := f.Search(context.Background(), "test", 500, nil); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(limits) != 1 || limits[0] != "100" {
		t.Errorf("limit params = %v, want [100]", limits)
	}
}

func TestSearchStopsWithoutNextCursor(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		// A full page but no "next": last page.
		fmt.Fprint(w, `{"total":500,"offset":0,"data":[{"paperId":"a","title":"A"},{"paperId":"b","title":"B"}]}`)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	records, err := f.Search(context.Background(), "test", 100, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
}

func TestSearchFollowsNextCursor(t *testing.T) {
	var offsets []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		if offset == "0" {
			// The server skips ahead: next is 7, not 0+len(data).
			fmt.Fprint(w, `{"total":9,"offset":0,"data":[{"paperId":"a","title":"A"}],"next":7}`)
			return
		}
		fmt.Fprint(w, `{"total":9,"offset":7,"data":[{"paperId":"b","title":"B"}]}`)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	records, err := f.Search(context.Background(), "test", 100, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
	want := []string{"0", "7"}
	if len(offsets) != 2 || offsets[0] != want[0] || offsets[1] != want[1] {
		t.Errorf("offsets = %v, want %v", offsets, want)
	}
}

func TestSearchRateLimitedPageRetriesWithoutFailing(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"total":1,"offset":0,"data":[{"paperId":"a","title":"A"}]}`)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	records, err := f.Search(context.Background(), "test", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestSearchRateLimitNeverCountsAsAttempt(t *testing.T) {
	// More 429s than the transport retry cap must still succeed.
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests <= 7 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"total":1,"offset":0,"data":[{"paperId":"a","title":"A"}]}`)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	records, err := f.Search(context.Background(), "test", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSearchTransportFailureRetryCap(t *testing.T) {
	var attempts int
	client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		attempts++
		return nil, errors.New("connection reset")
	})}

	f := &Fetcher{
		Client:  client,
		Limiter: ratelimit.New(10000, 10000),
		BaseURL: "http://upstream.invalid",
	}

	_, err := f.Search(context.Background(), "test", 10, nil)
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransientError", err)
	}
	if te.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", te.Attempts)
	}
	if attempts != 5 {
		t.Errorf("transport attempts = %d, want 5", attempts)
	}
}

func TestSearchSemanticStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{400, ErrBadQuery},
		{401, ErrUnauthorized},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{500, ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("HTTP %d", tt.status), func(t *testing.T) {
			var requests int
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				requests++
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			f := newTestFetcher(ts)
			_, err := f.Search(context.Background(), "test", 10, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			// Semantic failures are not retried.
			if requests != 1 {
				t.Errorf("requests = %d, want 1", requests)
			}
		})
	}
}

func TestSearchUnexpectedStatusCarriesCode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	_, err := f.Search(context.Background(), "test", 10, nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.Code != http.StatusTeapot {
		t.Errorf("Code = %d, want %d", se.Code, http.StatusTeapot)
	}
}

func TestSearchProgressReporting(t *testing.T) {
	var requests int
	ts := httptest.NewServer(pagedHandler(20, &requests))
	defer ts.Close()

	f := newTestFetcher(ts)
	f.PageCap = 10

	type call struct {
		percent int
		message string
	}
	var calls []call
	_, err := f.Search(context.Background(), "test", 20, func(p int, m string) {
		calls = append(calls, call{p, m})
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Two pages: before/after for each.
	want := []call{
		{0, "Fetching results (offset: 0)..."},
		{50, "Processed 10 results..."},
		{50, "Fetching results (offset: 10)..."},
		{100, "Processed 20 results..."},
	}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

func TestSearchCancellationReturnsPartialResults(t *testing.T) {
	var requests int
	ts := httptest.NewServer(pagedHandler(50, &requests))
	defer ts.Close()

	f := newTestFetcher(ts)
	f.PageCap = 10

	ctx, cancel := context.WithCancel(context.Background())
	records, err := f.Search(ctx, "test", 50, func(_ int, message string) {
		if strings.HasPrefix(message, "Processed") {
			cancel()
		}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// The first completed page survives cancellation.
	if len(records) != 10 {
		t.Errorf("len(records) = %d, want 10", len(records))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	f := &Fetcher{Client: http.DefaultClient, Limiter: ratelimit.New(1, 1)}
	if _, err := f.Search(context.Background(), "", 10, nil); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchMalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{invalid json`)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	_, err := f.Search(context.Background(), "test", 10, nil)
	if err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Errorf("err = %v, want parsing error", err)
	}
}

func TestPercentClamping(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 100, 0},
		{33, 100, 33},
		{1, 3, 33},
		{150, 100, 100},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := percent(tt.done, tt.total); got != tt.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}

// Exercise decoding straight through the public entry point to keep the
// wire types honest.
func TestSearchDecodesRecords(t *testing.T) {
	body := `{"total":1,"offset":0,"data":[{
		"paperId":"649def34f8be52c8b66281af98ae884c09aef38b",
		"title":"Critical Discourse Analysis",
		"authors":[{"authorId":"1","name":"Norman Fairclough"}],
		"year":2008,
		"citationCount":120,
		"influentialCitationCount":11,
		"tldr":{"model":"tldr@v2","text":"A short summary."},
		"abstract":"An abstract.",
		"publicationTypes":["JournalArticle","Review"],
		"externalIds":{"DOI":"10.1000/xyz"},
		"openAccessPdf":{"url":"https://example.org/paper.pdf"},
		"url":"https://www.semanticscholar.org/paper/649def",
		"citationStyles":{"bibtex":"@article{fairclough2008}"}
	}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	f := newTestFetcher(ts)
	records, err := f.Search(context.Background(), "test", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	r := records[0]
	if r.Title != "Critical Discourse Analysis" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Authors != "Norman Fairclough" {
		t.Errorf("Authors = %q", r.Authors)
	}
	if r.Year != "2008" || r.Citations != "120" || r.InfluentialCitations != "11" {
		t.Errorf("numeric fields = %q/%q/%q", r.Year, r.Citations, r.InfluentialCitations)
	}
	if r.Summary != "A short summary." {
		t.Errorf("Summary = %q", r.Summary)
	}
	if r.Publication != "JournalArticle, Review" {
		t.Errorf("Publication = %q", r.Publication)
	}
	if r.ExternalID != "10.1000/xyz" {
		t.Errorf("ExternalID = %q", r.ExternalID)
	}
	if r.Citation != "@article{fairclough2008}" {
		t.Errorf("Citation = %q", r.Citation)
	}
}

// Guard against the raw JSON types drifting from the documented wire shape.
func TestSearchResponseDecodesNext(t *testing.T) {
	var page searchResponse
	if err := json.Unmarshal([]byte(`{"total":3,"offset":0,"next":2,"data":[]}`), &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if page.Next == nil || *page.Next != 2 {
		t.Errorf("Next = %v, want 2", page.Next)
	}

	page = searchResponse{}
	if err := json.Unmarshal([]byte(`{"total":3,"offset":0,"data":[]}`), &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if page.Next != nil {
		t.Errorf("Next = %v, want nil when absent", page.Next)
	}
}
