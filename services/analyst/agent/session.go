// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session represents one investigation conversation and its control state.
//
// The dialogue is append-only and grows unbounded for the lifetime of the
// process; Snapshot truncates for transport only. The done flag is
// monotonic: once set, no further planning or execution occurs.
//
// Thread Safety:
//
//	Session uses internal synchronization for state access. Multiple
//	goroutines can safely read session state while a step mutates it,
//	but read-then-write sequences across methods are not atomic; the
//	Loop documents the single-writer contract per session.
type Session struct {
	mu sync.RWMutex

	// ID is the unique session identifier, immutable after creation.
	ID string

	// ApprovalMode is fixed at creation.
	ApprovalMode ApprovalMode

	// messages is the append-only dialogue.
	messages []Message

	// pendingAction is non-nil iff the session is awaiting approval.
	pendingAction *PendingAction

	// done marks the terminal state.
	done bool

	// lastError holds the most recent failure, overwritten not accumulated.
	lastError string

	createdAt time.Time
	updatedAt time.Time
}

// NewSession creates a session with the given approval mode.
//
// Description:
//
//	Assigns a fresh unique ID and timestamps. Invalid or empty modes
//	silently coerce to ApprovalAuto, matching the external contract
//	that session creation never fails on mode values.
//
// Inputs:
//
//	mode - Requested approval mode. Coerced to "auto" if unrecognized.
//
// Outputs:
//
//	*Session - The new session in the active state.
func NewSession(mode ApprovalMode) *Session {
	if !mode.Valid() {
		mode = ApprovalAuto
	}
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		ApprovalMode: mode,
		messages:     make([]Message, 0),
		createdAt:    now,
		updatedAt:    now,
	}
}

// AppendMessage appends a message to the dialogue.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) AppendMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.updatedAt = time.Now()
}

// RecentMessages returns a copy of the most recent limit messages.
//
// Description:
//
//	Used by the planner to build the dialogue window. The returned
//	slice is a copy; mutations do not affect the stored history.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) RecentMessages(limit int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.messages) > limit {
		start = len(s.messages) - limit
	}
	recent := make([]Message, len(s.messages)-start)
	copy(recent, s.messages[start:])
	return recent
}

// PendingAction returns the open approval gate, or nil.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) PendingAction() *PendingAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingAction
}

// SetPendingAction opens the approval gate for a tool invocation.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) SetPendingAction(p *PendingAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingAction = p
	s.updatedAt = time.Now()
}

// TakePendingAction clears and returns the open gate, or nil.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) TakePendingAction() *PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pendingAction
	s.pendingAction = nil
	if p != nil {
		s.updatedAt = time.Now()
	}
	return p
}

// Done returns true once the session has produced its final answer.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// MarkDone sets the monotonic terminal flag.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) MarkDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.updatedAt = time.Now()
}

// SetLastError records a failure diagnostic, replacing any previous one.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) SetLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
	s.updatedAt = time.Now()
}

// LastError returns the most recent failure diagnostic.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Touch refreshes the updated_at timestamp.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
}

// Snapshot returns the serialized representation for transport.
//
// Description:
//
//	Messages are capped at the most recent SnapshotMessageLimit entries.
//	Truncation never mutates the stored history. Pending action, done,
//	last_error and timestamps are always included in full.
//
// Thread Safety: This method is safe for concurrent use.
func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if len(s.messages) > SnapshotMessageLimit {
		start = len(s.messages) - SnapshotMessageLimit
	}
	msgs := make([]Message, len(s.messages)-start)
	copy(msgs, s.messages[start:])

	return &Snapshot{
		ID:            s.ID,
		ApprovalMode:  s.ApprovalMode,
		Messages:      msgs,
		PendingAction: s.pendingAction,
		Done:          s.done,
		LastError:     s.lastError,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
}
