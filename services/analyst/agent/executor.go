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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianSOC/services/analyst/tools"
)

// DefaultToolTimeout bounds a single tool execution when the executor is
// configured with no explicit timeout.
const DefaultToolTimeout = 15 * time.Second

// Executor applies decisions to sessions: it enforces the approval gate,
// dispatches to the tool registry, and folds results back into the
// dialogue.
//
// Failures internal to tool execution are absorbed into tool results and
// session state; Execute never returns an error.
//
// Thread Safety: Executor is safe for concurrent use across sessions.
type Executor struct {
	registry    *tools.Registry
	toolTimeout time.Duration
}

// NewExecutor creates an executor over the given tool registry.
//
// Inputs:
//
//	registry - The immutable tool registry.
//	toolTimeout - Per-invocation deadline for tool executions;
//	              DefaultToolTimeout if zero or negative.
//
// Outputs:
//
//	*Executor - The configured executor.
func NewExecutor(registry *tools.Registry, toolTimeout time.Duration) *Executor {
	if toolTimeout <= 0 {
		toolTimeout = DefaultToolTimeout
	}
	return &Executor{registry: registry, toolTimeout: toolTimeout}
}

// Execute applies one decision to a session.
//
// Description:
//
//	Four outcomes: "final" appends the answer and marks the session
//	done; an unknown tool records an error without terminating the
//	session; manual approval mode parks the call as the pending action
//	without invoking the tool; otherwise the tool runs and its result
//	is appended as a tool-role message. Every path refreshes the
//	session's updated_at.
//
// Inputs:
//
//	ctx - Context bounding tool execution.
//	session - The session to mutate.
//	action - "final" or a tool name.
//	input - The action input mapping; nil treated as empty.
//
// Outputs:
//
//	*ExecResult - The discriminated outcome; never nil.
//
// Thread Safety: This method is safe for concurrent use across sessions.
func (e *Executor) Execute(ctx context.Context, session *Session, action string, input map[string]any) *ExecResult {
	return e.execute(ctx, session, action, input, false)
}

// ApprovePending executes a session's pending action, if any.
//
// Description:
//
//	Reads and clears the pending action, then re-executes it with the
//	approval gate bypassed exactly once. Returns a "no_pending" result
//	without any mutation when no gate is open.
//
// Thread Safety: This method is safe for concurrent use across sessions.
func (e *Executor) ApprovePending(ctx context.Context, session *Session) *ExecResult {
	pending := session.TakePendingAction()
	if pending == nil {
		return &ExecResult{Status: ExecNoPending}
	}
	input := pending.Input
	if input == nil {
		input = make(map[string]any)
	}
	return e.execute(ctx, session, pending.Tool, input, true)
}

// execute is the shared dispatch path. bypassGate is true only for the
// single post-approval invocation.
func (e *Executor) execute(ctx context.Context, session *Session, action string, input map[string]any, bypassGate bool) *ExecResult {
	session.Touch()
	if input == nil {
		input = make(map[string]any)
	}

	if action == ActionFinal {
		answer := ""
		if v, ok := input["answer"]; ok && v != nil {
			if s, ok := v.(string); ok {
				answer = s
			} else {
				answer = fmt.Sprint(v)
			}
		}
		session.AppendMessage(Message{Role: RoleAssistant, Content: answer})
		session.MarkDone()
		return &ExecResult{Status: ExecFinal, Answer: answer}
	}

	tool, ok := e.registry.Get(action)
	if !ok {
		errMsg := "unknown_tool: " + action
		slog.Warn("Decision named an unregistered tool",
			"session_id", session.ID, "tool", action)
		session.SetLastError(errMsg)
		session.AppendMessage(Message{Role: RoleAssistant, Content: errMsg})
		return &ExecResult{Status: ExecError, Error: errMsg}
	}

	if session.ApprovalMode == ApprovalManual && !bypassGate {
		pending := &PendingAction{Tool: action, Input: input}
		session.SetPendingAction(pending)
		slog.Info("Tool call awaiting approval",
			"session_id", session.ID, "tool", action)
		return &ExecResult{Status: ExecAwaitingApproval, PendingAction: pending}
	}

	result := e.runTool(ctx, tool, input)
	outcome := "ok"
	if !result.OK {
		outcome = "error"
	}
	metricToolInvocations.WithLabelValues(action, outcome).Inc()

	session.AppendMessage(Message{Role: RoleTool, Name: action, Content: result.ToMap()})
	return &ExecResult{Status: ExecExecuted, Result: result.ToMap()}
}

// runTool invokes a tool under the configured deadline, converting panics
// and expiry into failed results rather than loop-level faults.
func (e *Executor) runTool(ctx context.Context, tool tools.Tool, input map[string]any) (result tools.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Tool panicked", "tool", tool.Name(), "panic", r)
			result = tools.Result{OK: false, Error: fmt.Sprintf("tool panic: %v", r)}
		}
	}()

	toolCtx, cancel := context.WithTimeout(ctx, e.toolTimeout)
	defer cancel()

	start := time.Now()
	result = tool.Execute(toolCtx, input)
	if result.Usage == nil {
		result.Usage = make(map[string]any)
	}
	result.Usage["duration_ms"] = time.Since(start).Milliseconds()
	return result
}
