// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"sort"
	"sync"
)

// Registry manages tool registration and lookup by name.
//
// The registry is built once at startup and passed explicitly to the
// planner and executor; nothing mutates it afterward.
//
// Thread Safety:
//
//	Registry is fully thread-safe. All methods can be called concurrently.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Tool
}

// NewRegistry creates a new empty tool registry.
//
// Outputs:
//
//	*Registry - Empty registry ready for tool registration.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds a tool to the registry.
//
// Description:
//
//	Registers a tool under its Name(). A tool with the same name
//	replaces the previous registration. Nil tools are ignored.
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Register(tool Tool) {
	if tool == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[tool.Name()] = tool
}

// Get returns a tool by name.
//
// Outputs:
//
//	Tool - The registered tool, or nil if not found.
//	bool - True if the tool was found.
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.byName[name]
	return tool, ok
}

// Names returns all registered tool names, sorted.
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns definitions for all registered tools, sorted by
// name for deterministic prompt and listing order.
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.byName))
	for _, tool := range r.byName {
		defs = append(defs, Definition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Schema:      tool.Schema(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Count returns the number of registered tools.
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
