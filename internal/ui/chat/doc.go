// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea interface for Finsight.
//
// The model is a thin view over the conversation controller in
// internal/chat: all message state lives there, and the controller's
// change notifications arrive as conversationChangedMsg via program.Send.
// Besides the transcript the model hosts the collection file manager, the
// PDF upload wizard, company report search, and the citation-driven PDF
// viewer pane.
package chat
