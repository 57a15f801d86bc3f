// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the active conversation to disk.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kimyongari/Finsight/internal/model"
	"github.com/Kimyongari/Finsight/internal/util"
)

// mirrorFileName is the fixed name of the conversation mirror. There is
// exactly one active conversation; every save overwrites this file.
const mirrorFileName = "chat_messages.json"

// ErrNoSavedConversation is returned by Load when no mirror file exists.
var ErrNoSavedConversation = errors.New("no saved conversation")

// =============================================================================
// STORED TYPES
// =============================================================================

// StoredConversation is the on-disk shape of a conversation.
type StoredConversation struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Messages  []StoredMessage `json:"messages"`
}

// StoredMessage is the on-disk shape of a message. Only plain fields are
// persisted: streaming state and lifecycle phase are runtime-only, so a
// message saved mid-reveal restores as a settled answer.
type StoredMessage struct {
	ID        int64            `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Citations []model.Citation `json:"citations,omitempty"`
}

// =============================================================================
// MIRROR
// =============================================================================

// Mirror persists the active conversation to a single fixed-path JSON file.
type Mirror struct {
	path string
}

// NewMirror creates a mirror at the default location,
// ~/.finsight/chat_messages.json.
func NewMirror() (*Mirror, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return NewMirrorWithPath(filepath.Join(homeDir, ".finsight", mirrorFileName)), nil
}

// NewMirrorWithPath creates a mirror at a custom path. Used by tests.
func NewMirrorWithPath(path string) *Mirror {
	return &Mirror{path: path}
}

// Path returns the mirror file location.
func (m *Mirror) Path() string {
	return m.path
}

// =============================================================================
// SAVE / LOAD / DELETE
// =============================================================================

// Save overwrites the mirror with the given conversation.
func (m *Mirror) Save(conv *model.Conversation) error {
	stored := toStored(conv)
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	// RELIABILITY: atomic write so a crash mid-save never corrupts the
	// mirror.
	if err := util.AtomicWriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mirror: %w", err)
	}
	return nil
}

// Load restores the persisted conversation. Returns ErrNoSavedConversation
// when no mirror exists. Restored loading placeholders come back as settled
// answers.
func (m *Mirror) Load() (*model.Conversation, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSavedConversation
		}
		return nil, fmt.Errorf("failed to read mirror: %w", err)
	}

	var stored StoredConversation
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse mirror: %w", err)
	}

	return fromStored(&stored), nil
}

// Delete removes the mirror file. Deleting an absent mirror is not an error.
func (m *Mirror) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete mirror: %w", err)
	}
	return nil
}

// =============================================================================
// CONVERSION
// =============================================================================

func toStored(conv *model.Conversation) *StoredConversation {
	stored := &StoredConversation{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  make([]StoredMessage, 0, len(conv.Messages)),
	}
	for _, msg := range conv.Messages {
		stored.Messages = append(stored.Messages, StoredMessage{
			ID:        msg.ID,
			Role:      msg.Role.String(),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Citations: msg.Citations,
		})
	}
	return stored
}

func fromStored(stored *StoredConversation) *model.Conversation {
	conv := &model.Conversation{
		ID:        stored.ID,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
		Messages:  make([]*model.Message, 0, len(stored.Messages)),
	}
	for _, sm := range stored.Messages {
		conv.Messages = append(conv.Messages, model.RestoreMessage(
			sm.ID, model.Role(sm.Role), sm.Content, sm.Timestamp, sm.Citations))
	}
	return conv
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the conversation as Markdown, with role labels,
// timestamps, and citation sources under each answer.
func ExportMarkdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# Conversation " + conv.ID + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range conv.Messages {
		label := "**" + msg.Role.DisplayName() + "**"
		sb.WriteString(label + " (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
		if len(msg.Citations) > 0 {
			sb.WriteString("Sources:\n")
			for _, c := range msg.Citations {
				sb.WriteString("- " + c.Label)
				if c.Viewable() {
					sb.WriteString(fmt.Sprintf(" (%s p.%d)", c.SourceFile, c.Page))
				}
				if c.Link != "" {
					sb.WriteString(" <" + c.Link + ">")
				}
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("---\n\n")
	}
	return sb.String()
}
