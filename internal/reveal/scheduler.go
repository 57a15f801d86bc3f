// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"sync"
	"time"
)

// DefaultInterval is the delay between revealed characters.
const DefaultInterval = 10 * time.Millisecond

// Callbacks receives reveal events. Both callbacks are invoked with the
// scheduler's internal lock held, which is what makes cancellation strict:
// once Cancel returns, no further calls for that ID can be in flight.
// Callbacks must not call back into the Scheduler.
type Callbacks struct {
	// OnRune is called once per tick with the next rune of the text.
	OnRune func(id int64, r rune)

	// OnDone is called after the final rune (immediately for empty text).
	OnDone func(id int64)
}

// task is one running reveal. canceled is guarded by the scheduler mutex.
type task struct {
	stop     chan struct{}
	canceled bool
}

// Scheduler reveals answer text one rune at a time, one timer per message
// ID. Starting a reveal for an ID that already has one supersedes the old
// timer; reveals never stack. Distinct IDs run concurrently and share no
// iteration state.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	cb       Callbacks
	active   map[int64]*task
}

// NewScheduler creates a scheduler with the given tick interval.
// A non-positive interval falls back to DefaultInterval.
func NewScheduler(interval time.Duration, cb Callbacks) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		cb:       cb,
		active:   make(map[int64]*task),
	}
}

// Start begins revealing fullText for the given message ID. Any reveal
// already running for that ID is canceled first.
func (s *Scheduler) Start(id int64, fullText string) {
	s.mu.Lock()
	if old, ok := s.active[id]; ok {
		old.canceled = true
		close(old.stop)
	}
	t := &task{stop: make(chan struct{})}
	s.active[id] = t
	s.mu.Unlock()

	go s.run(id, t, []rune(fullText))
}

// Cancel stops the reveal for one message ID. When Cancel returns, the sink
// will not be called again for that ID: a canceled timer cannot resurrect
// cleared state.
func (s *Scheduler) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.active[id]; ok {
		t.canceled = true
		close(t.stop)
		delete(s.active, id)
	}
}

// CancelAll stops every running reveal. Same guarantee as Cancel.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.active {
		t.canceled = true
		close(t.stop)
		delete(s.active, id)
	}
}

// Active reports whether a reveal is currently running for the ID.
func (s *Scheduler) Active(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// run is the per-message timer loop. Emission happens under the scheduler
// mutex with a canceled check, so a task that loses the race against Cancel
// exits without emitting.
func (s *Scheduler) run(id int64, t *task, runes []rune) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if t.canceled {
				s.mu.Unlock()
				return
			}

			if i < len(runes) {
				r := runes[i]
				i++
				if s.cb.OnRune != nil {
					s.cb.OnRune(id, r)
				}
			}

			if i >= len(runes) {
				if s.active[id] == t {
					delete(s.active, id)
				}
				if s.cb.OnDone != nil {
					s.cb.OnDone(id)
				}
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
		}
	}
}
