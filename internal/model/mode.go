// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// QUERY MODE TYPE
// =============================================================================

// QueryMode selects which backend pipeline answers a query. The wire values
// match the backend's route names exactly.
type QueryMode string

const (
	// ModeRAG is the standard retrieval pipeline.
	ModeRAG QueryMode = "rag"
	// ModeAdvancedRAG is the multi-step retrieval pipeline.
	ModeAdvancedRAG QueryMode = "advanced_rag"
	// ModeWebSearch answers from a live web search agent.
	ModeWebSearch QueryMode = "web_search"
)

// DefaultMode is the mode selected at startup.
const DefaultMode = ModeRAG

// Modes lists all selectable query modes in display order.
var Modes = []QueryMode{ModeRAG, ModeAdvancedRAG, ModeWebSearch}

// String returns the wire value of the mode.
func (m QueryMode) String() string {
	return string(m)
}

// Valid reports whether m is a known mode.
func (m QueryMode) Valid() bool {
	switch m {
	case ModeRAG, ModeAdvancedRAG, ModeWebSearch:
		return true
	}
	return false
}

// DisplayName returns the mode name shown in the mode selector.
func (m QueryMode) DisplayName() string {
	switch m {
	case ModeRAG:
		return "RAG"
	case ModeAdvancedRAG:
		return "Advanced RAG"
	case ModeWebSearch:
		return "Web Search"
	default:
		return string(m)
	}
}

// Description returns a short explanation for the mode selector.
func (m QueryMode) Description() string {
	switch m {
	case ModeRAG:
		return "Answer from uploaded filings in the collection"
	case ModeAdvancedRAG:
		return "Multi-step retrieval for harder questions"
	case ModeWebSearch:
		return "Answer from a live web search"
	default:
		return ""
	}
}

// Next cycles to the following mode, wrapping around. Used by the mode
// toggle key in the chat view.
func (m QueryMode) Next() QueryMode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return DefaultMode
}
