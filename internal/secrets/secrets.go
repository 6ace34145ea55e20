// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets gathers credentials for the remote services vericite
// talks to. Values come from, in increasing priority: a .env file, a
// directory of one-file-per-key secrets, and the process environment.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Known secret keys. File names in the secrets directory use these names;
// environment variables use the upper-case, underscored form
// (e.g. SEMANTIC_SCHOLAR_API_KEY).
const (
	CrossrefMailto        = "crossref-mailto"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	RemoteOCRAPIKey       = "remote-ocr-api-key"
)

// Keys lists the secrets vericite reads.
func Keys() []string {
	return []string{CrossrefMailto, SemanticScholarAPIKey, RemoteOCRAPIKey}
}

// Set is a resolved collection of secrets.
type Set map[string]string

// Get returns the value for key, or "".
func (s Set) Get(key string) string { return s[key] }

// Load reads every file in dir into a Set keyed by file name. Values are
// trimmed; empty files, dotfiles, and subdirectories are skipped. A
// missing directory yields an empty Set.
func Load(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(Set)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "err", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Resolve merges the known keys from envFile, dir, and the environment.
// Either path may be empty or missing.
func Resolve(envFile, dir string) (Set, error) {
	out := make(Set)

	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
		for _, key := range Keys() {
			if v := strings.TrimSpace(vars[EnvName(key)]); v != "" {
				out[key] = v
			}
		}
	}

	files, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for _, key := range Keys() {
		if v, ok := files[key]; ok {
			out[key] = v
		}
	}

	for _, key := range Keys() {
		if v := strings.TrimSpace(os.Getenv(EnvName(key))); v != "" {
			out[key] = v
		}
	}
	return out, nil
}

// EnvName maps a secret key to its environment variable name.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
