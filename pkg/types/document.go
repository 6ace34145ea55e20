// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutlineEntry is one table-of-contents entry supplied by a document.
// TargetPage is 1-based, as stored in the document outline.
type OutlineEntry struct {
	Level      int    `json:"level" yaml:"level"`
	Title      string `json:"title" yaml:"title"`
	TargetPage int    `json:"target_page" yaml:"target_page"`
}
