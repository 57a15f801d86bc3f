// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the Finsight client.
//
// String helpers are Unicode-aware (rune counts and terminal display
// widths via go-runewidth); AtomicWriteFile is the crash-safe write
// primitive used by the conversation mirror and config save.
package util
