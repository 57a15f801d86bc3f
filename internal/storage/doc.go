// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the active conversation to disk.
//
// The mirror is a single fixed-path JSON file
// (~/.finsight/chat_messages.json): every save overwrites it atomically,
// and starting a new conversation deletes it. Only plain message fields
// are stored, so a message saved mid-reveal restores as a settled answer
// carrying whatever text had been revealed.
package storage
