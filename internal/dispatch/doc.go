// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch routes queries through intent pre-analysis to the
// backend pipeline that should answer them.
//
// Small talk (intent "CHAT") goes to the guide endpoint and never carries
// citations; everything else goes to the pipeline selected by the user's
// query mode. Calls are sequential, stateless, and never retried.
package dispatch
