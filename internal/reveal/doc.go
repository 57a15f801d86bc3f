// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal implements the character-by-character answer reveal.
//
// The backend returns complete answers; the reveal scheduler replays them
// one rune per tick (10ms by default) so the chat view reads like a live
// stream. Each message ID owns at most one timer: a second Start for the
// same ID supersedes the first, and Cancel guarantees no sink call after it
// returns. Iteration is rune-based, so multi-byte Korean text reveals one
// character at a time rather than one byte.
package reveal
