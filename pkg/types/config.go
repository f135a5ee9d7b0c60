package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litsift/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the retrieval pipeline.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the result-count budget for one search (default 1000).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageCap is the largest page size requested per API call (default
	// and upstream maximum 100).
	PageCap int `json:"page_cap" yaml:"page_cap"`

	// APIKey is an optional Semantic Scholar API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RateCapacity is the token-bucket capacity gating outbound requests.
	RateCapacity float64 `json:"rate_capacity" yaml:"rate_capacity"`

	// RateFillPerSecond is the token-bucket refill rate in tokens per second.
	RateFillPerSecond float64 `json:"rate_fill_per_second" yaml:"rate_fill_per_second"`
}

// DefaultFetchConfig returns the configuration used when no file or
// flags override it. One token per second matches the upstream
// unauthenticated rate limit.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "litsift/0.1",
		},
		MaxResults:        1000,
		PageCap:           100,
		RateCapacity:      1,
		RateFillPerSecond: 1,
	}
}
