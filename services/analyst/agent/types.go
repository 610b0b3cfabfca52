// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent implements the plan-approve-act-observe control loop for
// SOC investigation sessions.
//
// A session accumulates a dialogue of user, assistant, and tool messages.
// Each step asks the reasoning provider for the next action, optionally
// gates that action behind human approval, executes it against the tool
// registry, and folds the result back into the dialogue until a final
// answer is produced.
//
// Thread Safety:
//
//	All exported types in this package are designed for concurrent use
//	across different sessions. Callers must not issue concurrent
//	Step/Run/Approve calls against the same session ID; see Loop.
package agent

import "time"

// ApprovalMode governs whether tool calls execute immediately or require
// explicit confirmation.
type ApprovalMode string

const (
	// ApprovalAuto executes tool calls immediately.
	ApprovalAuto ApprovalMode = "auto"

	// ApprovalManual suspends tool calls until approved.
	ApprovalManual ApprovalMode = "manual"
)

// Valid returns true if the mode is a recognized approval mode.
func (m ApprovalMode) Valid() bool {
	return m == ApprovalAuto || m == ApprovalManual
}

// Message roles within a session dialogue.
const (
	// RoleUser marks a message supplied by the caller.
	RoleUser = "user"

	// RoleAssistant marks a message produced by the agent.
	RoleAssistant = "assistant"

	// RoleTool marks a structured tool result.
	RoleTool = "tool"
)

// Message is a single entry in a session dialogue.
//
// Content is a string for user and assistant messages and a structured
// tool result for tool messages.
type Message struct {
	// Role is "user", "assistant", or "tool".
	Role string `json:"role"`

	// Name is the tool name for tool-role messages.
	Name string `json:"name,omitempty"`

	// Content is the message payload.
	Content any `json:"content"`
}

// PendingAction is the single in-flight tool invocation awaiting approval.
type PendingAction struct {
	// Tool is the registered tool name.
	Tool string `json:"tool"`

	// Input contains the tool input mapping.
	Input map[string]any `json:"input"`
}

// Decision is the structured {thought, action, input} triple produced by
// interpreting the reasoning provider's output for one planning cycle.
//
// Decisions are transient; only their effects (appended messages and
// pending actions) persist on the session.
type Decision struct {
	// Thought is the provider's reasoning, may be empty.
	Thought string `json:"thought"`

	// Action is "final" or a registered tool name.
	Action string `json:"action"`

	// Input contains the action input mapping.
	Input map[string]any `json:"input"`
}

// ActionFinal is the reserved action name that terminates a session.
const ActionFinal = "final"

// ExecStatus describes the outcome of one Executor.Execute call.
type ExecStatus string

const (
	// ExecFinal indicates the session produced its final answer.
	ExecFinal ExecStatus = "final"

	// ExecError indicates the decision named an unregistered tool.
	ExecError ExecStatus = "error"

	// ExecAwaitingApproval indicates the tool call is gated on approval.
	ExecAwaitingApproval ExecStatus = "awaiting_approval"

	// ExecExecuted indicates the tool ran and its result was recorded.
	ExecExecuted ExecStatus = "executed"

	// ExecNoPending indicates an approval was requested with no gate open.
	ExecNoPending ExecStatus = "no_pending"
)

// ExecResult is the outcome of applying one decision to a session.
type ExecResult struct {
	// Status discriminates the result variants.
	Status ExecStatus `json:"status"`

	// Answer is the final answer text (status "final").
	Answer string `json:"answer,omitempty"`

	// Error is the failure description (status "error").
	Error string `json:"error,omitempty"`

	// PendingAction is the gated invocation (status "awaiting_approval").
	PendingAction *PendingAction `json:"pending_action,omitempty"`

	// Result is the tool result mapping (status "executed").
	Result map[string]any `json:"result,omitempty"`
}

// Step statuses reported by Loop.Step when no planning occurs.
const (
	// StepDone indicates the session is already terminal.
	StepDone = "done"

	// StepAwaitingApproval indicates an approval gate is open.
	StepAwaitingApproval = "awaiting_approval"
)

// StepResult is one entry in a run trace.
//
// Status is set only for the no-plan variants (done, awaiting_approval);
// ordinary planning steps carry the decision and its execution result.
type StepResult struct {
	// Status is "done" or "awaiting_approval" when no planning occurred.
	Status string `json:"status,omitempty"`

	// PendingAction is the open gate (status "awaiting_approval").
	PendingAction *PendingAction `json:"pending_action,omitempty"`

	// Decision is the planner output for this step.
	Decision *Decision `json:"decision,omitempty"`

	// Exec is the execution outcome for this step.
	Exec *ExecResult `json:"exec,omitempty"`

	// Session is the post-step session snapshot.
	Session *Snapshot `json:"session"`
}

// RunResult is the ordered trace produced by one Run invocation.
type RunResult struct {
	// Steps is the ordered step trace, length bounded by maxSteps.
	Steps []StepResult `json:"steps"`

	// Session is the final session snapshot.
	Session *Snapshot `json:"session"`
}

// Snapshot is the serialized representation of a session for transport.
//
// Messages are capped at the most recent SnapshotMessageLimit entries;
// the stored history is never truncated.
type Snapshot struct {
	ID            string         `json:"id"`
	ApprovalMode  ApprovalMode   `json:"approval_mode"`
	Messages      []Message      `json:"messages"`
	PendingAction *PendingAction `json:"pending_action"`
	Done          bool           `json:"done"`
	LastError     string         `json:"last_error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SnapshotMessageLimit caps Snapshot.Messages for transport.
const SnapshotMessageLimit = 30
