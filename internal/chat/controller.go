// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Kimyongari/Finsight/internal/api"
	"github.com/Kimyongari/Finsight/internal/model"
	"github.com/Kimyongari/Finsight/internal/reveal"
	"github.com/Kimyongari/Finsight/internal/storage"
)

// FailureText replaces the placeholder content when a query fails. Shown
// verbatim to the user.
const FailureText = "Failed to fetch the answer. Please try again."

// Controller errors.
var (
	ErrEmptyQuery = errors.New("query is empty")
	ErrBusy       = errors.New("a query is already in flight")
)

// Executor resolves a submitted query into an answer. Satisfied by
// dispatch.Dispatcher.
type Executor interface {
	Execute(ctx context.Context, query string, mode model.QueryMode) (*api.QueryResult, error)
}

// Persister mirrors the conversation to disk. Satisfied by storage.Mirror.
type Persister interface {
	Save(conv *model.Conversation) error
	Load() (*model.Conversation, error)
	Delete() error
}

// Resetter is the slice of the PDF viewer the controller needs: starting a
// fresh conversation drops the open document along with the messages.
type Resetter interface {
	Reset()
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the conversation: it serializes all message mutation,
// enforces single-flight query submission, drives the character reveal, and
// mirrors every state change to disk. The UI reads messages through it and
// registers an OnChange callback to learn when to redraw.
type Controller struct {
	mu   sync.Mutex
	conv *model.Conversation

	exec   Executor
	mirror Persister
	viewer Resetter
	reveal *reveal.Scheduler

	mode    model.QueryMode
	pending bool

	// gen increments on NewConversation so a dispatch resolving against a
	// cleared conversation is dropped instead of mutating the new one.
	gen uint64

	onChange func()
}

// New creates a controller and restores the mirrored conversation if one
// exists. revealInterval <= 0 uses the reveal package default.
func New(exec Executor, mirror Persister, viewer Resetter, revealInterval time.Duration) *Controller {
	c := &Controller{
		exec:   exec,
		mirror: mirror,
		viewer: viewer,
		mode:   model.DefaultMode,
	}

	conv, err := mirror.Load()
	switch {
	case err == nil:
		c.conv = conv
		model.SeedMessageID(conv.MaxID())
	case errors.Is(err, storage.ErrNoSavedConversation):
		c.conv = model.NewConversation()
	default:
		log.Printf("chat: restore failed, starting fresh: %v", err)
		c.conv = model.NewConversation()
	}

	c.reveal = reveal.NewScheduler(revealInterval, reveal.Callbacks{
		OnRune: c.onRune,
		OnDone: c.onDone,
	})
	return c
}

// SetOnChange registers a callback invoked after every state change. The
// callback may run on the reveal timer goroutine and must not block.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit sends a query. It appends the question and a loading placeholder,
// then resolves the answer asynchronously. Returns the placeholder's message
// ID. Rejects blank input and rejects (does not queue) a submit while a
// query is already in flight.
func (c *Controller) Submit(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, ErrEmptyQuery
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return 0, ErrBusy
	}
	c.pending = true
	c.conv.AppendQuestion(trimmed)
	placeholder := c.conv.AppendPlaceholder()
	id := placeholder.ID
	mode := c.mode
	gen := c.gen
	c.persistLocked()
	c.mu.Unlock()
	c.notify()

	go c.resolve(gen, id, trimmed, mode)
	return id, nil
}

// resolve runs the dispatch off the UI goroutine and applies the outcome.
func (c *Controller) resolve(gen uint64, id int64, query string, mode model.QueryMode) {
	result, err := c.exec.Execute(context.Background(), query, mode)

	c.mu.Lock()
	if c.gen != gen {
		// Conversation was cleared while the query was in flight.
		c.mu.Unlock()
		return
	}
	c.pending = false
	msg := c.conv.ByID(id)
	if msg == nil {
		c.mu.Unlock()
		return
	}

	if err != nil {
		log.Printf("chat: query failed: %v", err)
		msg.Fail(FailureText)
		c.persistLocked()
		c.mu.Unlock()
		c.notify()
		return
	}

	msg.BeginStreaming(result.Citations)
	answer := result.Answer
	c.persistLocked()
	c.mu.Unlock()
	c.notify()

	// Outside the controller lock: reveal callbacks take it again.
	c.reveal.Start(id, answer)
}

// onRune appends one revealed rune to the streaming message.
func (c *Controller) onRune(id int64, r rune) {
	c.mu.Lock()
	if msg := c.conv.ByID(id); msg != nil {
		msg.AppendRune(r)
	}
	c.mu.Unlock()
	c.notify()
}

// onDone settles the message once the reveal finishes.
func (c *Controller) onDone(id int64) {
	c.mu.Lock()
	if msg := c.conv.ByID(id); msg != nil {
		msg.Settle()
		c.persistLocked()
	}
	c.mu.Unlock()
	c.notify()
}

// =============================================================================
// CONVERSATION MANAGEMENT
// =============================================================================

// NewConversation cancels any running reveal, clears the messages, removes
// the mirror file, and closes the PDF viewer.
func (c *Controller) NewConversation() {
	// Cancel before taking the controller lock: reveal callbacks lock the
	// controller, so the reverse order would deadlock. Once CancelAll
	// returns no further callbacks can fire for the old messages.
	c.reveal.CancelAll()

	c.mu.Lock()
	c.gen++
	c.pending = false
	c.conv.Clear()
	c.mu.Unlock()

	if err := c.mirror.Delete(); err != nil {
		log.Printf("chat: failed to remove mirror: %v", err)
	}
	if c.viewer != nil {
		c.viewer.Reset()
	}
	c.notify()
}

// Messages returns a snapshot of the message list. The slice is a copy; the
// messages themselves are shared and must be treated as read-only by
// callers.
func (c *Controller) Messages() []*model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.Message, len(c.conv.Messages))
	copy(out, c.conv.Messages)
	return out
}

// Pending reports whether a query is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Mode returns the active query mode.
func (c *Controller) Mode() model.QueryMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode selects the query mode for subsequent submissions. Invalid modes
// are ignored.
func (c *Controller) SetMode(mode model.QueryMode) {
	if !mode.Valid() {
		return
	}
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	c.notify()
}

// CycleMode advances to the next query mode and returns it.
func (c *Controller) CycleMode() model.QueryMode {
	c.mu.Lock()
	c.mode = c.mode.Next()
	mode := c.mode
	c.mu.Unlock()
	c.notify()
	return mode
}

// ExportMarkdown renders the conversation as a markdown transcript.
func (c *Controller) ExportMarkdown() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return storage.ExportMarkdown(c.conv)
}

// Close stops all reveal timers. The mirror already holds the latest state.
func (c *Controller) Close() {
	c.reveal.CancelAll()
}

// persistLocked mirrors the conversation to disk. Callers hold c.mu.
// Persistence failures are logged, not surfaced: the chat keeps working
// without its mirror.
func (c *Controller) persistLocked() {
	if err := c.mirror.Save(c.conv); err != nil {
		log.Printf("chat: failed to mirror conversation: %v", err)
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
