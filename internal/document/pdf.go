// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"fmt"
	"os"
	"sync"

	dcconfig "github.com/JaimeStill/document-context/pkg/config"
	dcdocument "github.com/JaimeStill/document-context/pkg/document"
	dcimage "github.com/JaimeStill/document-context/pkg/image"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/pdiddy/vericite/pkg/types"
)

// PDF is a Document backed by a PDF file on disk.
type PDF struct {
	path    string
	file    *os.File
	reader  *pdf.Reader
	outline []types.OutlineEntry

	mu     sync.Mutex
	raster dcdocument.Document
	closed bool
}

// Open opens the PDF at path. It fails with ErrDocumentOpen when the file
// is missing, unreadable, or cannot be parsed. The outline is read eagerly;
// the rasterizer is opened on the first PageImage call.
func Open(path string) (*PDF, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDocumentOpen, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDocumentOpen, path)
	}

	f, r, err := openReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDocumentOpen, path, err)
	}
	if r.NumPage() == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s has no pages", ErrDocumentOpen, path)
	}

	return &PDF{
		path:    path,
		file:    f,
		reader:  r,
		outline: readOutline(path),
	}, nil
}

// openReader wraps pdf.Open, which panics on some malformed inputs.
func openReader(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			if f != nil {
				f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("parsing PDF: %v", p)
		}
	}()
	return pdf.Open(path)
}

// readOutline flattens the bookmark tree depth-first. A document without
// bookmarks, or one whose outline cannot be parsed, yields nil.
func readOutline(path string) []types.OutlineEntry {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	bookmarks, err := api.Bookmarks(f, nil)
	if err != nil {
		return nil
	}

	var entries []types.OutlineEntry
	var walk func(bms []pdfcpu.Bookmark, level int)
	walk = func(bms []pdfcpu.Bookmark, level int) {
		for _, bm := range bms {
			entries = append(entries, types.OutlineEntry{
				Level:      level,
				Title:      bm.Title,
				TargetPage: bm.PageFrom,
			})
			walk(bm.Kids, level+1)
		}
	}
	walk(bookmarks, 1)
	return entries
}

// Path returns the file the document was opened from.
func (d *PDF) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *PDF) PageCount() int { return d.reader.NumPage() }

// Outline returns the flattened bookmark tree.
func (d *PDF) Outline() []types.OutlineEntry { return d.outline }

// PageText returns the text layer of page i, one visual line per text
// line. Pages without a content stream return an empty string.
func (d *PDF) PageText(i int) (text string, err error) {
	if err := checkRange(i, d.PageCount()); err != nil {
		return "", err
	}

	page := d.reader.Page(i + 1)
	if page.V.IsNull() {
		return "", nil
	}

	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("reading text of page %d: %v", i+1, p)
		}
	}()
	return layoutText(page.Content().Text), nil
}

// PageImage renders page i to PNG at dpi using ImageMagick.
func (d *PDF) PageImage(i, dpi int) ([]byte, error) {
	if err := checkRange(i, d.PageCount()); err != nil {
		return nil, err
	}

	raster, err := d.rasterizer()
	if err != nil {
		return nil, err
	}

	page, err := raster.ExtractPage(i + 1)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", i+1, err)
	}

	renderer, err := dcimage.NewImageMagickRenderer(dcconfig.ImageConfig{
		Format: "png",
		DPI:    dpi,
	})
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	data, err := page.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", i+1, err)
	}
	return data, nil
}

func (d *PDF) rasterizer() (dcdocument.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("document %s is closed", d.path)
	}
	if d.raster == nil {
		raster, err := dcdocument.OpenPDF(d.path)
		if err != nil {
			return nil, fmt.Errorf("open pdf for rendering: %w", err)
		}
		d.raster = raster
	}
	return d.raster, nil
}

// Close releases the text reader and, if opened, the rasterizer. It is
// safe to call more than once.
func (d *PDF) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	var firstErr error
	if d.raster != nil {
		if err := d.raster.Close(); err != nil {
			firstErr = fmt.Errorf("closing rasterizer: %w", err)
		}
		d.raster = nil
	}
	if err := d.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing %s: %w", d.path, err)
	}
	return firstErr
}
