// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages to keep in conversation
// history. When exceeded, the oldest messages are pruned to prevent
// unbounded memory growth.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered, append-only list of messages. It is not
// internally synchronized; the conversation controller serializes access.
type Conversation struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.prune()
}

// AppendQuestion creates and appends a user question.
func (c *Conversation) AppendQuestion(content string) *Message {
	msg := NewQuestion(content)
	c.Append(msg)
	return msg
}

// AppendPlaceholder creates and appends a loading answer placeholder.
func (c *Conversation) AppendPlaceholder() *Message {
	msg := NewLoadingPlaceholder()
	c.Append(msg)
	return msg
}

// ByID returns the message with the given ID, or nil.
func (c *Conversation) ByID(id int64) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Last returns the most recent message, or nil if empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastQuestion returns the most recent user question, or nil.
func (c *Conversation) LastQuestion() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleQuestion {
			return c.Messages[i]
		}
	}
	return nil
}

// Clear removes all messages and resets identity for a fresh conversation.
func (c *Conversation) Clear() {
	c.ID = uuid.NewString()
	c.Messages = make([]*Message, 0)
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// MaxID returns the highest message ID present, or 0 when empty. Used to
// seed the ID counter after restoring a persisted conversation.
func (c *Conversation) MaxID() int64 {
	var max int64
	for _, msg := range c.Messages {
		if msg.ID > max {
			max = msg.ID
		}
	}
	return max
}

// prune drops the oldest messages once the history exceeds MaxMessages.
func (c *Conversation) prune() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	c.Messages = c.Messages[len(c.Messages)-MaxMessages:]
}
