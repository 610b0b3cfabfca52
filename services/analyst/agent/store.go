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

import "sync"

// Store is a concurrency-safe registry of sessions keyed by ID.
//
// The map is the only shared mutable resource across concurrent requests.
// Operations on different sessions proceed independently; field mutation
// within one session is serialized by the Session's own lock.
//
// Thread Safety: Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// defaultMode is applied when creation requests no mode.
	defaultMode ApprovalMode
}

// NewStore creates an empty session store.
//
// Inputs:
//
//	defaultMode - Approval mode applied when creation requests none.
//	              Coerced to "auto" if unrecognized.
//
// Outputs:
//
//	*Store - The empty store.
func NewStore(defaultMode ApprovalMode) *Store {
	if !defaultMode.Valid() {
		defaultMode = ApprovalAuto
	}
	return &Store{
		sessions:    make(map[string]*Session),
		defaultMode: defaultMode,
	}
}

// Create creates and registers a new session.
//
// Description:
//
//	An empty mode falls back to the store default; unrecognized values
//	silently coerce to "auto". UUID assignment makes concurrent creates
//	collision-free.
//
// Inputs:
//
//	mode - Requested approval mode, may be empty.
//
// Outputs:
//
//	*Session - The registered session.
//
// Thread Safety: This method is safe for concurrent use.
func (st *Store) Create(mode ApprovalMode) *Session {
	if mode == "" {
		mode = st.defaultMode
	}
	s := NewSession(mode)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get retrieves a session by ID.
//
// Outputs:
//
//	*Session - The session.
//	error - ErrSessionNotFound if absent.
//
// Thread Safety: This method is safe for concurrent use.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// AppendUserMessage appends a user message to a session's dialogue.
//
// Outputs:
//
//	*Session - The mutated session.
//	error - ErrSessionNotFound if absent, ErrEmptyContent if content is "".
//
// Thread Safety: This method is safe for concurrent use.
func (st *Store) AppendUserMessage(id, content string) (*Session, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.AppendMessage(Message{Role: RoleUser, Content: content})
	return s, nil
}

// Count returns the number of registered sessions.
//
// Thread Safety: This method is safe for concurrent use.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
