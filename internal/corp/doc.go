// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package corp resolves company lookups for report generation.
//
// Lookups hit a local CSV export of the DART corp code registry when one
// is configured (hot-reloaded via fsnotify when the file changes), and
// fall back to the backend's /financial/corp_list endpoint otherwise.
// Advisory reports are fetched from the backend by corp code.
package corp
