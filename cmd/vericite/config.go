// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vericite/internal/secrets"
	"github.com/pdiddy/vericite/pkg/types"
)

// setDefaults registers every config key so AutomaticEnv can resolve
// nested keys (VERICITE_VALIDATION_BACKEND and so on).
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("jobs", d.Jobs)

	v.SetDefault("extraction.strategy", d.Extraction.Strategy)
	v.SetDefault("extraction.min_page_chars", d.Extraction.MinPageChars)
	v.SetDefault("extraction.min_line_chars", d.Extraction.MinLineChars)
	v.SetDefault("extraction.fallback_pages", d.Extraction.FallbackPages)

	v.SetDefault("ocr.enabled", d.OCR.Enabled)
	v.SetDefault("ocr.dpi", d.OCR.DPI)
	v.SetDefault("ocr.confidence", d.OCR.Confidence)
	v.SetDefault("ocr.languages", d.OCR.Languages)

	v.SetDefault("remote.endpoint", d.Remote.Endpoint)
	v.SetDefault("remote.api_key", d.Remote.APIKey)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.user_agent", d.Remote.UserAgent)
	v.SetDefault("remote.max_retries", d.Remote.MaxRetries)

	v.SetDefault("validation.backend", d.Validation.Backend)
	v.SetDefault("validation.accept_threshold", d.Validation.AcceptThreshold)
	v.SetDefault("validation.min_chars", d.Validation.MinChars)
	v.SetDefault("validation.concurrency", d.Validation.Concurrency)
	v.SetDefault("validation.rate_limit", d.Validation.RateLimit)
	v.SetDefault("validation.timeout", d.Validation.Timeout)
	v.SetDefault("validation.user_agent", d.Validation.UserAgent)
	v.SetDefault("validation.mailto", d.Validation.Mailto)
	v.SetDefault("validation.api_key", d.Validation.APIKey)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("download.dir", d.Download.Dir)
	v.SetDefault("download.timeout", d.Download.Timeout)
	v.SetDefault("download.user_agent", d.Download.UserAgent)
}

// loadConfig decodes viper's merged view into a Config, fills credentials
// from secrets, and applies command-level overrides.
func loadConfig(cmd *cobra.Command, v *viper.Viper, s secrets.Set) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	if cfg.Validation.Mailto == "" {
		cfg.Validation.Mailto = s.Get(secrets.CrossrefMailto)
	}
	if cfg.Validation.APIKey == "" {
		cfg.Validation.APIKey = s.Get(secrets.SemanticScholarAPIKey)
	}
	if cfg.Remote.APIKey == "" {
		cfg.Remote.APIKey = s.Get(secrets.RemoteOCRAPIKey)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if cmd.Flags().Lookup("jobs") != nil && cmd.Flags().Changed("jobs") {
		cfg.Jobs, _ = cmd.Flags().GetInt("jobs")
	}
	if cmd.Flags().Lookup("fallback-pages") != nil && cmd.Flags().Changed("fallback-pages") {
		cfg.Extraction.FallbackPages, _ = cmd.Flags().GetInt("fallback-pages")
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return cfg, nil
}
