// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vericite/internal/acquire"
	"github.com/pdiddy/vericite/internal/ocr"
	"github.com/pdiddy/vericite/internal/ocr/tesseract"
	"github.com/pdiddy/vericite/internal/pipeline"
	"github.com/pdiddy/vericite/internal/search"
	"github.com/pdiddy/vericite/internal/store"
	"github.com/pdiddy/vericite/internal/validate"
	"github.com/pdiddy/vericite/pkg/types"
)

// app bundles the configured pipeline with the resources it owns.
type app struct {
	cfg      types.Config
	pipeline *pipeline.Pipeline
	store    *store.Store
	fetcher  *acquire.Fetcher
}

// newApp builds a pipeline from the command's configuration. The cache is
// optional: if it cannot be opened the run continues without it.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd, viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}

	searcher, err := search.New(cfg.Validation.Backend, cfg.Validation)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, fetcher: acquire.New(cfg.Download, cfg.Validation.Mailto, logger)}
	var cache validate.Cache
	if cfg.Cache.Enabled {
		st, err := store.Open(cfg.Cache)
		if err != nil {
			logger.Warn("cache unavailable, continuing without it", "err", err)
		} else {
			a.store = st
			cache = st
		}
	}

	v := validate.New(searcher, cfg.Validation, cache, logger)
	a.pipeline = pipeline.New(cfg, v, logger)
	a.pipeline.NewEngine = func(languages []string) ocr.Engine {
		return tesseract.New(languages...)
	}
	if a.store != nil {
		a.pipeline.Recorder = a.store
	}
	logger.Debug("pipeline ready", "backend", searcher.Name(), "threshold", v.Threshold,
		"strategy", cfg.Extraction.Strategy, "cache", a.store != nil)
	return a, nil
}

// Close releases the cache.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// inputKind classifies a command-line argument.
type inputKind int

const (
	inputPDF inputKind = iota
	inputTextFile
	inputRemote
	inputRawText
	inputInvalid
)

// classify decides how to treat arg: existing .pdf files are documents,
// other existing files are citation lists, DOIs, arXiv IDs, and URLs are
// downloaded, and anything else longer than minChars is a citation typed
// on the command line.
func classify(arg string, minChars int) inputKind {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		if strings.EqualFold(filepath.Ext(arg), ".pdf") {
			return inputPDF
		}
		return inputTextFile
	}
	if kind, _ := acquire.Classify(arg); kind != acquire.KindUnknown {
		return inputRemote
	}
	if len([]rune(strings.TrimSpace(arg))) > minChars {
		return inputRawText
	}
	return inputInvalid
}

// run checks one input of any kind.
func (a *app) run(ctx context.Context, arg string) (*pipeline.Report, error) {
	switch classify(arg, a.cfg.Extraction.MinLineChars) {
	case inputPDF:
		return a.pipeline.Check(ctx, arg)
	case inputTextFile:
		return a.pipeline.CheckTextFile(ctx, arg)
	case inputRemote:
		path, err := a.fetcher.Fetch(ctx, arg)
		if err != nil {
			return nil, err
		}
		return a.pipeline.Check(ctx, path)
	case inputRawText:
		return a.pipeline.CheckText(ctx, "argument", arg)
	default:
		return nil, fmt.Errorf("%q is not a file, identifier, or citation", arg)
	}
}

// pdfPath returns arg unchanged unless it names a remote document, which is
// downloaded first.
func (a *app) pdfPath(ctx context.Context, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	if kind, _ := acquire.Classify(arg); kind != acquire.KindUnknown {
		return a.fetcher.Fetch(ctx, arg)
	}
	return arg, nil
}
