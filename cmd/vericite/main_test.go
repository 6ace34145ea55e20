// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vericite/internal/pipeline"
	"github.com/pdiddy/vericite/internal/search"
	"github.com/pdiddy/vericite/internal/secrets"
	"github.com/pdiddy/vericite/internal/validate"
	"github.com/pdiddy/vericite/pkg/types"
)

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "paper.PDF")
	txtPath := filepath.Join(dir, "refs.txt")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))

	assert.Equal(t, inputPDF, classify(pdfPath, 10))
	assert.Equal(t, inputTextFile, classify(txtPath, 10))
	assert.Equal(t, inputRawText, classify("Vaswani A. Attention is all you need. 2017.", 10))
	assert.Equal(t, inputRemote, classify("arXiv:1706.03762", 10))
	assert.Equal(t, inputRemote, classify("10.1145/3292500", 10))
	assert.Equal(t, inputRemote, classify("https://example.com/paper.pdf", 10))
	assert.Equal(t, inputInvalid, classify("paper.pdf", 10))
	assert.Equal(t, inputInvalid, classify(dir, 10))
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("no-cache", false, "")
	cmd.Flags().Int("jobs", 0, "")
	cmd.Flags().Int("fallback-pages", 0, "")
	return cmd
}

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	setDefaults(v, types.DefaultConfig())
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
validation:
  backend: openalex
  timeout: 9s
  concurrency: 8
ocr:
  languages: [eng, deu]
cache:
  ttl: 48h
`)))

	cmd := testCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--no-cache", "--jobs", "5", "--fallback-pages", "3"}))

	cfg, err := loadConfig(cmd, v, secrets.Set{
		secrets.CrossrefMailto:        "ops@example.org",
		secrets.SemanticScholarAPIKey: "s2",
		secrets.RemoteOCRAPIKey:       "ocr",
	})
	require.NoError(t, err)

	assert.Equal(t, "openalex", cfg.Validation.Backend)
	assert.Equal(t, 9*time.Second, cfg.Validation.Timeout)
	assert.Equal(t, 8, cfg.Validation.Concurrency)
	assert.Equal(t, 10, cfg.Validation.MinChars)
	assert.Equal(t, []string{"eng", "deu"}, cfg.OCR.Languages)
	assert.Equal(t, 48*time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5, cfg.Jobs)
	assert.Equal(t, 3, cfg.Extraction.FallbackPages)
	assert.Equal(t, "ops@example.org", cfg.Validation.Mailto)
	assert.Equal(t, "s2", cfg.Validation.APIKey)
	assert.Equal(t, "ocr", cfg.Remote.APIKey)
}

func TestLoadConfig_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v, types.DefaultConfig())

	cfg, err := loadConfig(testCommand(), v, secrets.Set{})
	require.NoError(t, err)

	want := types.DefaultConfig()
	assert.Equal(t, want.Validation, cfg.Validation)
	assert.Equal(t, want.Extraction, cfg.Extraction)
	assert.Equal(t, want.Jobs, cfg.Jobs)
}

type tableSearcher map[string][]search.Match

func (tableSearcher) Name() string { return "table" }

func (s tableSearcher) Search(_ context.Context, q string) ([]search.Match, error) {
	return s[q], nil
}

func TestRepl(t *testing.T) {
	cfg := types.DefaultConfig()
	cite := "Vaswani A. et al. Attention is all you need. NeurIPS 2017."
	s := tableSearcher{cite: {{Score: 92.3, DOI: "10.48550/arXiv.1706.03762"}}}
	a := &app{cfg: cfg, pipeline: pipeline.New(cfg, validate.New(s, cfg.Validation, nil, nil), nil)}

	in := strings.NewReader("\n" + cite + "\nshort\n" + filepath.Join(t.TempDir(), "missing.pdf") + "\nquit\nnever reached line here\n")
	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), a, in, &out))

	text := out.String()
	assert.Contains(t, text, "10.48550/arXiv.1706.03762")
	assert.Contains(t, text, "1 verified, 0 unverified of 1 candidates")
	assert.Contains(t, text, `error: "short" is not a file, identifier, or citation`)
	assert.Contains(t, text, "Goodbye.")
	assert.NotContains(t, text, "never reached")
}

func TestRepl_EOF(t *testing.T) {
	cfg := types.DefaultConfig()
	a := &app{cfg: cfg, pipeline: pipeline.New(cfg, validate.New(tableSearcher{}, cfg.Validation, nil, nil), nil)}

	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), a, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "> ")
}

func TestPdfPath_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "10.1145-3292500.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	a := &app{cfg: types.DefaultConfig()}
	got, err := a.pdfPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// Not a file and not an identifier: passed through for Open to report.
	got, err = a.pdfPath(context.Background(), "missing.pdf")
	require.NoError(t, err)
	assert.Equal(t, "missing.pdf", got)
}
