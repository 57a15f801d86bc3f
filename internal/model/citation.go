// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Citation is a normalized source reference attached to an answer. The
// backend's retrieved-document records vary by query mode (RAG results carry
// a file and page, web-search results carry a link); normalization happens
// at the API boundary so everything downstream sees this one shape.
type Citation struct {
	// Label is the display title, never empty after normalization.
	Label string `json:"label"`

	// SourceFile is the backing PDF file name in the collection, empty for
	// web citations.
	SourceFile string `json:"source_file,omitempty"`

	// Page is the 1-based page number within SourceFile, 0 when unknown.
	Page int `json:"page,omitempty"`

	// Excerpt is the retrieved chunk text, possibly empty.
	Excerpt string `json:"excerpt,omitempty"`

	// Link is an external URL for web-search citations.
	Link string `json:"link,omitempty"`
}

// Viewable reports whether the citation can drive the PDF viewer. Only
// citations with both a source file and a page qualify; web citations and
// partial records are display-only.
func (c Citation) Viewable() bool {
	return c.SourceFile != "" && c.Page >= 1
}
