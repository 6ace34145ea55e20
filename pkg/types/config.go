// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request, including retries.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "vericite/0.1 (mailto:someone@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ExtractionConfig holds the thresholds used when turning pages into
// citation candidates.
type ExtractionConfig struct {
	// Strategy selects the extraction variant: "local" or "remote".
	Strategy string `json:"strategy" yaml:"strategy" mapstructure:"strategy"`

	// MinPageChars is the trimmed page text length a page must exceed to be
	// treated as text-bearing (default 5).
	MinPageChars int `json:"min_page_chars" yaml:"min_page_chars" mapstructure:"min_page_chars"`

	// MinLineChars is the trimmed length a line must exceed to become a
	// candidate (default 10).
	MinLineChars int `json:"min_line_chars" yaml:"min_line_chars" mapstructure:"min_line_chars"`

	// FallbackPages controls where extraction starts when no references
	// heading is found: 0 starts at the first page, N > 0 scans the last N pages.
	FallbackPages int `json:"fallback_pages" yaml:"fallback_pages" mapstructure:"fallback_pages"`
}

// OCRConfig holds settings for the local OCR sub-engine.
type OCRConfig struct {
	// Enabled turns OCR fallback on or off (default true).
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// DPI is the page render resolution handed to the OCR engine (default 300).
	DPI int `json:"dpi" yaml:"dpi" mapstructure:"dpi"`

	// Confidence is the per-block score a recognized line must exceed, in
	// [0,1] (default 0.5).
	Confidence float64 `json:"confidence" yaml:"confidence" mapstructure:"confidence"`

	// Languages lists Tesseract language codes (default ["eng"]).
	Languages []string `json:"languages" yaml:"languages" mapstructure:"languages"`
}

// RemoteConfig holds settings for the remote extraction service.
type RemoteConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the URL the document is posted to.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey is sent as a bearer token when non-empty.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries bounds retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ValidationConfig holds settings for the citation validator.
type ValidationConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the bibliographic search service: crossref, openalex,
	// or semantic_scholar (default crossref).
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// AcceptThreshold is the match score a result must exceed to count as
	// verified. Zero selects the backend's calibrated default.
	AcceptThreshold float64 `json:"accept_threshold" yaml:"accept_threshold" mapstructure:"accept_threshold"`

	// MinChars is the trimmed length below which a candidate is skipped (default 10).
	MinChars int `json:"min_chars" yaml:"min_chars" mapstructure:"min_chars"`

	// Concurrency caps the number of in-flight queries (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// RateLimit is the per-host request rate in requests per second (default 5).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Mailto is sent to Crossref and OpenAlex for polite pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// APIKey is sent to backends that accept one (Semantic Scholar).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// CacheConfig holds settings for the verdict cache and run history.
type CacheConfig struct {
	// Enabled turns the SQLite cache on or off (default true).
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// TTL is how long a cached lookup is trusted (default 30 days).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// DownloadConfig holds settings for fetching documents named by DOI, arXiv
// ID, or URL.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Dir is where downloaded PDFs are kept. Empty selects the user cache
	// directory.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// Config groups all stage configurations.
type Config struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	OCR        OCRConfig        `json:"ocr" yaml:"ocr" mapstructure:"ocr"`
	Remote     RemoteConfig     `json:"remote" yaml:"remote" mapstructure:"remote"`
	Validation ValidationConfig `json:"validation" yaml:"validation" mapstructure:"validation"`
	Cache      CacheConfig      `json:"cache" yaml:"cache" mapstructure:"cache"`
	Download   DownloadConfig   `json:"download" yaml:"download" mapstructure:"download"`

	// Jobs caps the number of documents checked concurrently (default 2).
	Jobs int `json:"jobs" yaml:"jobs" mapstructure:"jobs"`
}

// DefaultUserAgent identifies vericite to remote services.
const DefaultUserAgent = "vericite/0.1"

// DefaultConfig returns the configuration used when no file, environment
// variable, or flag overrides a value.
func DefaultConfig() Config {
	return Config{
		Extraction: ExtractionConfig{
			Strategy:     "local",
			MinPageChars: 5,
			MinLineChars: 10,
		},
		OCR: OCRConfig{
			Enabled:    true,
			DPI:        300,
			Confidence: 0.5,
			Languages:  []string{"eng"},
		},
		Remote: RemoteConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   2 * time.Minute,
				UserAgent: DefaultUserAgent,
			},
			MaxRetries: 3,
		},
		Validation: ValidationConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   5 * time.Second,
				UserAgent: DefaultUserAgent,
			},
			Backend:     "crossref",
			MinChars:    10,
			Concurrency: 4,
			RateLimit:   5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * 24 * time.Hour,
		},
		Download: DownloadConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   time.Minute,
				UserAgent: DefaultUserAgent,
			},
		},
		Jobs: 2,
	}
}
