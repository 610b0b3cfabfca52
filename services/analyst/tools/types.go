// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools provides the registry of side-effecting capabilities the
// investigation agent may invoke, and the built-in search, fetch, and
// wait tools.
//
// Every tool produces a uniform ToolResult regardless of backend. Input
// schemas are informational: they are advertised to the reasoning
// provider but not enforced before invocation, so type mismatches
// surface as executor failures captured inside the result.
package tools

import "context"

// Result is the uniform outcome contract every tool executor produces.
type Result struct {
	// OK is true when the tool ran successfully.
	OK bool `json:"ok"`

	// Output is the tool's structured output, nil on failure.
	Output any `json:"output"`

	// Error describes the failure when OK is false.
	Error string `json:"error,omitempty"`

	// Usage carries optional execution metadata (timings, counts).
	Usage map[string]any `json:"usage,omitempty"`
}

// Ok builds a successful result.
func Ok(output any) Result {
	return Result{OK: true, Output: output}
}

// Fail builds a failed result.
func Fail(err error) Result {
	return Result{OK: false, Error: err.Error()}
}

// ToMap returns the result as a generic mapping for dialogue content.
func (r Result) ToMap() map[string]any {
	m := map[string]any{
		"ok":     r.OK,
		"output": r.Output,
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	if len(r.Usage) > 0 {
		m["usage"] = r.Usage
	}
	return m
}

// Tool is a named, schema-described capability invocable by the agent.
//
// Implementations must be safe for concurrent use; a single tool instance
// serves every session.
type Tool interface {
	// Name returns the unique tool name.
	Name() string

	// Description returns a one-line description for the planner prompt.
	Description() string

	// Schema returns the informational input schema (field -> type hint).
	Schema() map[string]string

	// Execute runs the tool. Failures are reported inside the Result,
	// never as a panic; the executor additionally guards against both.
	Execute(ctx context.Context, input map[string]any) Result
}

// Definition is the transport representation of a registered tool.
type Definition struct {
	// Name is the unique tool name.
	Name string `json:"name"`

	// Description is the one-line tool description.
	Description string `json:"description"`

	// Schema is the informational input schema.
	Schema map[string]string `json:"schema"`
}
