// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"sync/atomic"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	// RoleQuestion is a message typed by the user.
	RoleQuestion Role = "question"
	// RoleAnswer is a completed response from the backend.
	RoleAnswer Role = "answer"
	// RoleLoading is the transient state of an answer placeholder while the
	// query is in flight or the reveal is still running.
	RoleLoading Role = "loading"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleQuestion:
		return "You"
	case RoleAnswer, RoleLoading:
		return "Finsight"
	default:
		return string(r)
	}
}

// =============================================================================
// PHASE TYPE
// =============================================================================

// Phase tracks where an answer placeholder is in its lifecycle. Transitions
// only move forward: loading -> streaming -> settled. A completion arriving
// against a stale phase is rejected, which keeps a superseded or canceled
// reveal from resurrecting cleared state.
type Phase int

const (
	// PhaseLoading means the query is still in flight.
	PhaseLoading Phase = iota
	// PhaseStreaming means the answer arrived and is being revealed.
	PhaseStreaming
	// PhaseSettled means the message is final.
	PhaseSettled
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseStreaming:
		return "streaming"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// =============================================================================
// MESSAGE ID ALLOCATION
// =============================================================================

// idCounter backs NextMessageID. A process-wide monotonic counter cannot
// collide the way timestamp-derived IDs can when two messages are created
// within the same clock tick (the question and its placeholder always are).
var idCounter atomic.Int64

// NextMessageID returns a fresh message ID, strictly greater than any ID
// handed out before it in this process.
func NextMessageID() int64 {
	return idCounter.Add(1)
}

// SeedMessageID bumps the ID counter to at least floor. Called after
// restoring a persisted conversation so new IDs never collide with
// restored ones.
func SeedMessageID(floor int64) {
	for {
		cur := idCounter.Load()
		if cur >= floor {
			return
		}
		if idCounter.CompareAndSwap(cur, floor) {
			return
		}
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation. Messages are not internally
// synchronized; the conversation controller serializes all mutation.
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content holds the revealed text. For a loading placeholder it is
	// empty until the reveal starts appending runes.
	Content string `json:"content"`

	// IsStreaming is true from creation of the placeholder until the
	// message settles (or fails).
	IsStreaming bool `json:"-"`

	// Citations are attached to answers when the dispatcher resolves,
	// possibly before the reveal finishes.
	Citations []Citation `json:"citations,omitempty"`

	phase Phase
}

// NewQuestion creates a settled user question.
func NewQuestion(content string) *Message {
	return &Message{
		ID:        NextMessageID(),
		Role:      RoleQuestion,
		Content:   content,
		Timestamp: time.Now(),
		phase:     PhaseSettled,
	}
}

// NewLoadingPlaceholder creates the answer placeholder appended alongside a
// question. It starts in the loading phase with no content.
func NewLoadingPlaceholder() *Message {
	return &Message{
		ID:          NextMessageID(),
		Role:        RoleLoading,
		Timestamp:   time.Now(),
		IsStreaming: true,
		phase:       PhaseLoading,
	}
}

// RestoreMessage rebuilds a persisted message. In-flight streaming state is
// not persisted, so every restored message settles: a placeholder saved
// mid-reveal comes back as a plain answer carrying whatever text had been
// revealed when it was saved.
func RestoreMessage(id int64, role Role, content string, ts time.Time, citations []Citation) *Message {
	if role == RoleLoading {
		role = RoleAnswer
	}
	return &Message{
		ID:        id,
		Role:      role,
		Content:   content,
		Timestamp: ts,
		Citations: citations,
		phase:     PhaseSettled,
	}
}

// =============================================================================
// STATE TRANSITIONS
// =============================================================================

// Phase returns the current lifecycle phase.
func (m *Message) Phase() Phase {
	return m.phase
}

// BeginStreaming moves a loading placeholder into the streaming phase and
// attaches the citations resolved by the dispatcher. Returns false if the
// message is not in the loading phase.
func (m *Message) BeginStreaming(citations []Citation) bool {
	if m.phase != PhaseLoading {
		return false
	}
	m.phase = PhaseStreaming
	m.Citations = citations
	return true
}

// AppendRune appends one revealed rune. No-op unless streaming.
func (m *Message) AppendRune(r rune) bool {
	if m.phase != PhaseStreaming {
		return false
	}
	m.Content += string(r)
	return true
}

// Settle finalizes the message: role becomes answer, streaming stops.
// Returns false if the message already settled (a stale completion).
func (m *Message) Settle() bool {
	if m.phase == PhaseSettled {
		return false
	}
	m.phase = PhaseSettled
	m.Role = RoleAnswer
	m.IsStreaming = false
	return true
}

// Fail replaces the placeholder with the failure text and settles it in a
// single step, bypassing the reveal. Returns false if the message is not in
// the loading phase.
func (m *Message) Fail(failureText string) bool {
	if m.phase != PhaseLoading {
		return false
	}
	m.phase = PhaseSettled
	m.Role = RoleAnswer
	m.Content = failureText
	m.IsStreaming = false
	m.Citations = nil
	return true
}

// =============================================================================
// DISPLAY HELPERS
// =============================================================================

// IsPlaceholder reports whether the message is still waiting for its answer.
func (m *Message) IsPlaceholder() bool {
	return m.phase == PhaseLoading
}

// Preview returns a truncated preview of the message content.
// Rune-based so Korean answers are never split mid-character.
func (m *Message) Preview(maxRunes int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxRunes {
		return m.Content
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}
