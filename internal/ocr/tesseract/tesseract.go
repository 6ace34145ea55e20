// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tesseract implements ocr.Engine on the Tesseract library through
// gosseract. It is the only package that needs cgo; everything else takes
// an ocr.Engine.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/pdiddy/vericite/internal/ocr"
)

// Engine recognizes text through the gosseract client. Each recognized
// text line becomes one ocr.Block.
type Engine struct {
	Languages []string

	client *gosseract.Client
}

// New returns an uninitialized engine for languages, English by default.
func New(languages ...string) *Engine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Engine{Languages: languages}
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return "tesseract" }

// Init creates the client and recognizes a blank image so missing language
// data surfaces here rather than on the first page.
func (e *Engine) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := gosseract.NewClient()
	if err := c.SetLanguage(e.Languages...); err != nil {
		c.Close()
		return fmt.Errorf("%w: set languages %v: %w", ocr.ErrUnavailable, e.Languages, err)
	}

	blank, err := blankPNG()
	if err != nil {
		c.Close()
		return fmt.Errorf("%w: build blank image: %w", ocr.ErrUnavailable, err)
	}
	if err := c.SetImageFromBytes(blank); err != nil {
		c.Close()
		return fmt.Errorf("%w: blank image: %w", ocr.ErrUnavailable, err)
	}
	if _, err := c.Text(); err != nil {
		c.Close()
		return fmt.Errorf("%w: blank recognition: %w", ocr.ErrUnavailable, err)
	}

	e.client = c
	return nil
}

// Recognize returns one Block per text line with confidence scaled to [0,1].
func (e *Engine) Recognize(ctx context.Context, img []byte) ([]ocr.Block, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: engine not initialized", ocr.ErrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize lines: %w", err)
	}

	blocks := make([]ocr.Block, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		blocks = append(blocks, ocr.Block{Text: text, Confidence: b.Confidence / 100.0})
	}
	return blocks, nil
}

// Close releases the gosseract client.
func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

func blankPNG() ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = uint8(color.White.Y >> 8)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
