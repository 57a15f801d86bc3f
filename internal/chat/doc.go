// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the conversation engine behind the UI.
//
// The Controller composes the pieces the rest of internal/ provides: it
// appends questions and placeholders to the model, dispatches queries
// single-flight, feeds resolved answers through the reveal scheduler one
// rune at a time, and mirrors every change to disk so a crash or restart
// picks the conversation back up. The terminal UI is a thin view over it.
package chat
