// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads documents named by DOI, arXiv ID, or URL so
// they can be checked like local files.
package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pdiddy/vericite/internal/httputil"
	"github.com/pdiddy/vericite/pkg/types"
)

// ErrNotPDF is returned when a download does not start with the PDF magic
// bytes, typically a publisher landing page served in place of the file.
var ErrNotPDF = errors.New("downloaded content is not a PDF")

var pdfMagic = []byte("%PDF-")

// Fetcher resolves identifiers to PDFs on disk. Downloads are kept in Dir
// and reused on later calls.
type Fetcher struct {
	Dir       string
	UserAgent string
	// Mailto is passed to OpenAlex when looking up open-access copies.
	Mailto string
	Client *http.Client

	logger *slog.Logger
}

// DefaultDir returns the download directory used when none is configured.
func DefaultDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "papers"
	}
	return filepath.Join(dir, "vericite", "papers")
}

// New builds a Fetcher from cfg.
func New(cfg types.DownloadConfig, mailto string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = types.DefaultUserAgent
	}
	return &Fetcher{
		Dir:       dir,
		UserAgent: ua,
		Mailto:    mailto,
		Client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

// Fetch downloads the document identified by id and returns its local
// path. A previously downloaded copy is returned without network access.
func (f *Fetcher) Fetch(ctx context.Context, id string) (string, error) {
	kind, normalized := Classify(id)
	if kind == KindUnknown {
		return "", fmt.Errorf("unrecognized identifier %q", id)
	}

	dest := filepath.Join(f.Dir, Slug(kind, normalized)+".pdf")
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		f.logger.Debug("using downloaded copy", "id", normalized, "path", dest)
		return dest, nil
	}

	src := PDFURL(kind, normalized)
	if kind == KindDOI {
		oa, err := f.openAccessURL(ctx, normalized)
		if err != nil {
			f.logger.Debug("open-access lookup failed", "doi", normalized, "err", err)
		} else if oa != "" {
			src = oa
		}
	}

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", f.Dir, err)
	}

	f.logger.Info("downloading", "id", normalized, "kind", kind, "url", src)
	if err := f.download(ctx, src, dest); err != nil {
		return "", fmt.Errorf("downloading %s: %w", normalized, err)
	}
	return dest, nil
}

// download fetches src into dest through a temporary file in the same
// directory so a partial download never shadows a later attempt.
func (f *Fetcher) download(ctx context.Context, src, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, src)
	}

	head := make([]byte, len(pdfMagic))
	n, _ := io.ReadFull(resp.Body, head)
	if !bytes.Equal(head[:n], pdfMagic) {
		return ErrNotPDF
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, io.MultiReader(bytes.NewReader(head[:n]), resp.Body))
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

type openAlexWork struct {
	BestOALocation *struct {
		PDFURL string `json:"pdf_url"`
	} `json:"best_oa_location"`
}

// openAccessURL asks OpenAlex for an open-access PDF of doi. It returns ""
// when the work has none.
func (f *Fetcher) openAccessURL(ctx context.Context, doi string) (string, error) {
	u := openAlexAPIBase + "doi:" + doi
	if f.Mailto != "" {
		u += "?mailto=" + url.QueryEscape(f.Mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("creating OpenAlex request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 1)
	if err != nil {
		return "", fmt.Errorf("OpenAlex request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAlex returned HTTP %d", resp.StatusCode)
	}

	var w openAlexWork
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return "", fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	if w.BestOALocation == nil {
		return "", nil
	}
	return w.BestOALocation.PDFURL, nil
}
