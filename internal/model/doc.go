// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// A Message moves through a one-way lifecycle: a loading placeholder is
// appended when a question is submitted, enters the streaming phase when the
// dispatcher resolves, and settles into a plain answer when the reveal
// completes (or immediately, on failure). Stale transitions are rejected so
// a canceled reveal can never resurrect cleared state.
//
// Message IDs come from a process-wide monotonic counter rather than
// timestamps, so the question and its placeholder, created back to back,
// always get distinct IDs.
//
// Types in this package are not internally synchronized; the conversation
// controller in internal/chat serializes all access.
package model
