// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for Finsight.
//
// Settings live in ~/.finsight/config.toml. Absent keys fall back to
// defaults, and environment variables (FINSIGHT_BACKEND_URL,
// FINSIGHT_CSV_PATH, FINSIGHT_THEME, FINSIGHT_REVEAL_INTERVAL_MS) override
// whatever the file says. Saves are atomic.
package config
