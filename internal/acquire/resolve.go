// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Kind classifies a remote document identifier.
type Kind int

const (
	KindUnknown Kind = iota
	KindArxiv
	KindDOI
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindArxiv:
		return "arxiv"
	case KindDOI:
		return "doi"
	case KindURL:
		return "url"
	default:
		return "unknown"
	}
}

// Base URLs for identifier resolution. Declared as vars so tests can
// substitute httptest servers.
var (
	arxivPDFBase    = "https://arxiv.org/pdf/"
	doiBase         = "https://doi.org/"
	openAlexAPIBase = "https://api.openalex.org/works/"
)

// arxivPattern matches "2301.07041", "arXiv:2301.07041", and "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?i:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches bare DOIs and the doi: and https://doi.org/ forms.
var doiPattern = regexp.MustCompile(`^(?i:doi:|https?://(?:dx\.)?doi\.org/)?(10\.\d{4,9}/\S+)$`)

// Classify reports what kind of identifier s is and returns its normalized
// form. Free text yields KindUnknown.
func Classify(s string) (Kind, string) {
	s = strings.TrimSpace(s)

	if m := arxivPattern.FindStringSubmatch(s); m != nil {
		return KindArxiv, m[1]
	}
	if m := doiPattern.FindStringSubmatch(s); m != nil {
		return KindDOI, m[1]
	}
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && !strings.ContainsAny(s, " \t") {
		return KindURL, s
	}
	return KindUnknown, s
}

// Slug returns a filesystem-safe file stem for the identifier.
func Slug(kind Kind, normalized string) string {
	switch kind {
	case KindArxiv:
		return "arxiv-" + normalized
	case KindDOI:
		return "doi-" + strings.NewReplacer("/", "-", ":", "-", "\\", "-").Replace(normalized)
	case KindURL:
		u, err := url.Parse(normalized)
		if err != nil {
			return hashSlug(normalized)
		}
		base := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
		if base == "" || base == "." || base == "/" {
			return hashSlug(normalized)
		}
		// Distinct URLs often share a file name (paper.pdf, download.pdf).
		return base + "-" + hashSlug(normalized)[4:]
	default:
		return hashSlug(normalized)
	}
}

// PDFURL returns the direct download URL for the identifier. DOIs resolve
// through doi.org and rely on the client following redirects.
func PDFURL(kind Kind, normalized string) string {
	switch kind {
	case KindArxiv:
		return arxivPDFBase + normalized
	case KindDOI:
		return doiBase + normalized
	case KindURL:
		return normalized
	default:
		return ""
	}
}

func hashSlug(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("url-%x", h[:8])
}
