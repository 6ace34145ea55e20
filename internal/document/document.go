// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document wraps a paginated PDF, exposing page count, per-page
// plain text, per-page rasterized images, and the document outline.
//
// Text comes from the embedded text layer (ledongthuc/pdf), the outline
// from pdfcpu bookmarks, and page images from ImageMagick via
// document-context. Pages are 0-based throughout this package.
package document

import (
	"errors"
	"fmt"

	"github.com/pdiddy/vericite/pkg/types"
)

// ErrDocumentOpen is returned when a file is missing, unreadable, or not a
// valid paginated document.
var ErrDocumentOpen = errors.New("cannot open document")

// ErrPageRange is returned for page indexes outside [0, PageCount).
var ErrPageRange = errors.New("page index out of range")

// Document is a read-only, paginated document owned by a single pipeline
// run. Close must be called on every exit path.
type Document interface {
	// Path returns the file the document was opened from.
	Path() string

	// PageCount returns the number of pages.
	PageCount() int

	// PageText returns the plain text of page i. The text may be empty for
	// image-only pages.
	PageText(i int) (string, error)

	// PageImage renders page i to PNG at the given resolution. Results are
	// not cached; callers render once per page they need.
	PageImage(i, dpi int) ([]byte, error)

	// Outline returns the table of contents in document order. It is empty
	// when the document has none.
	Outline() []types.OutlineEntry

	// Close releases every handle held by the document.
	Close() error
}

func checkRange(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrPageRange, i, n)
	}
	return nil
}
