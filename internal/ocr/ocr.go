// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr defines the optical character recognition boundary used when
// a page has no usable text layer. Engines are optional at runtime: a
// Capability wraps an Engine with a single, memoized initialization attempt
// and reports whether recognition is available.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable is returned when an engine cannot be initialized.
var ErrUnavailable = errors.New("OCR engine unavailable")

// Block is one recognized text region with the engine's confidence in [0,1].
type Block struct {
	Text       string
	Confidence float64
}

// Engine recognizes text in page images.
type Engine interface {
	// Name returns the engine identifier (e.g. "tesseract").
	Name() string

	// Init prepares the engine. It is expensive and wraps ErrUnavailable on
	// failure.
	Init(ctx context.Context) error

	// Recognize returns the text blocks found in a PNG image.
	Recognize(ctx context.Context, image []byte) ([]Block, error)

	// Close releases resources acquired by Init.
	Close() error
}

// Capability owns one Engine and initializes it at most once. A failed
// initialization marks the capability unavailable for its lifetime.
// A nil engine is a valid, permanently unavailable capability.
type Capability struct {
	engine Engine

	once    sync.Once
	initErr error
	ready   bool
}

// NewCapability wraps engine. No initialization happens until Available
// or Recognize is called.
func NewCapability(engine Engine) *Capability {
	return &Capability{engine: engine}
}

// Name returns the wrapped engine name, or "none".
func (c *Capability) Name() string {
	if c.engine == nil {
		return "none"
	}
	return c.engine.Name()
}

// Available initializes the engine on first use and reports whether it is
// ready. Later calls return the memoized result.
func (c *Capability) Available(ctx context.Context) bool {
	c.once.Do(func() {
		if c.engine == nil {
			c.initErr = fmt.Errorf("%w: no engine configured", ErrUnavailable)
			return
		}
		if err := c.engine.Init(ctx); err != nil {
			if !errors.Is(err, ErrUnavailable) {
				err = fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
			c.initErr = err
			return
		}
		c.ready = true
	})
	return c.ready
}

// Err returns the initialization error, or nil if the engine is ready or
// has not been initialized yet.
func (c *Capability) Err() error {
	return c.initErr
}

// Recognize runs the engine on image. It returns the initialization error
// when the engine is unavailable.
func (c *Capability) Recognize(ctx context.Context, image []byte) ([]Block, error) {
	if !c.Available(ctx) {
		return nil, c.initErr
	}
	return c.engine.Recognize(ctx, image)
}

// Close releases the engine if it was initialized.
func (c *Capability) Close() error {
	if !c.ready {
		return nil
	}
	c.ready = false
	return c.engine.Close()
}
