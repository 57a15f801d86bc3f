// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewer keeps the PDF panel in sync with citation clicks.
//
// The viewer lazily downloads the cited document into a temp file, counts
// its pages with pdfcpu, and tracks the visible page. Clicking the exact
// file and page already showing collapses the panel; clicking anything else
// shows it, fetching only when the cited file differs from the loaded one.
// Page navigation clamps to the document bounds.
package viewer
