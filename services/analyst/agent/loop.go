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
	"time"
)

// DefaultMaxSteps bounds a run when the caller requests no limit. It is
// the only cancellation primitive beyond the step context.
const DefaultMaxSteps = 5

// Loop drives plan-approve-act-observe cycles for sessions.
//
// Per session the loop is a three-state machine: Active (plan and
// execute), AwaitingApproval (pending action set; the loop never
// double-plans while a gate is open), and Done (terminal; steps are
// idempotent no-ops).
//
// Thread Safety:
//
//	Loop is safe for concurrent use across different sessions. It does
//	NOT serialize operations within one session: callers must not issue
//	concurrent Step/Run/Approve calls against the same session ID, or
//	the pending-action and done-flag invariants can be violated by a
//	lost update.
type Loop struct {
	store    *Store
	planner  *Planner
	executor *Executor
}

// NewLoop creates a loop over the given store, planner, and executor.
func NewLoop(store *Store, planner *Planner, executor *Executor) *Loop {
	return &Loop{store: store, planner: planner, executor: executor}
}

// Step advances a session by at most one planning cycle.
//
// Description:
//
//	Done sessions return a terminal result without planning. Sessions
//	with an open approval gate return the awaiting status without
//	planning. Otherwise the planner is invoked, a "Thought: ..."
//	assistant message is appended when the decision carries one, and
//	the decision is executed.
//
// Inputs:
//
//	ctx - Context bounding provider and tool calls for this step.
//	id - The session ID.
//
// Outputs:
//
//	*StepResult - The step outcome with a post-step session snapshot.
//	error - ErrSessionNotFound only; all other failures are absorbed
//	        into the result.
//
// Thread Safety: Safe for concurrent use across different sessions.
func (l *Loop) Step(ctx context.Context, id string) (*StepResult, error) {
	session, err := l.store.Get(id)
	if err != nil {
		return nil, err
	}

	if session.Done() {
		metricSteps.WithLabelValues(StepDone).Inc()
		return &StepResult{Status: StepDone, Session: session.Snapshot()}, nil
	}

	if pending := session.PendingAction(); pending != nil {
		metricSteps.WithLabelValues(StepAwaitingApproval).Inc()
		return &StepResult{
			Status:        StepAwaitingApproval,
			PendingAction: pending,
			Session:       session.Snapshot(),
		}, nil
	}

	start := time.Now()
	decision, _ := l.planner.Plan(ctx, session)
	if decision.Thought != "" {
		session.AppendMessage(Message{Role: RoleAssistant, Content: "Thought: " + decision.Thought})
	}

	exec := l.executor.Execute(ctx, session, decision.Action, decision.Input)
	metricSteps.WithLabelValues(string(exec.Status)).Inc()
	metricStepDuration.Observe(time.Since(start).Seconds())

	return &StepResult{
		Decision: &decision,
		Exec:     exec,
		Session:  session.Snapshot(),
	}, nil
}

// Run invokes Step repeatedly until a stopping condition.
//
// Description:
//
//	Stops as soon as any of: a done status is observed, the latest
//	execution result is awaiting approval, the session's done flag is
//	set, or maxSteps iterations have occurred. maxSteps defaults to
//	DefaultMaxSteps when non-positive.
//
// Outputs:
//
//	*RunResult - The ordered step trace, length <= maxSteps.
//	error - ErrSessionNotFound only.
//
// Thread Safety: Safe for concurrent use across different sessions.
func (l *Loop) Run(ctx context.Context, id string, maxSteps int) (*RunResult, error) {
	session, err := l.store.Get(id)
	if err != nil {
		return nil, err
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	steps := make([]StepResult, 0, maxSteps)
	for i := 0; i < maxSteps; i++ {
		res, err := l.Step(ctx, id)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *res)

		if res.Status == StepDone {
			break
		}
		if res.Exec != nil && res.Exec.Status == ExecAwaitingApproval {
			break
		}
		if session.Done() {
			break
		}
	}

	return &RunResult{Steps: steps, Session: session.Snapshot()}, nil
}

// Approve executes a session's pending action, if any.
//
// Outputs:
//
//	*ExecResult - The execution outcome, or a "no_pending" result.
//	error - ErrSessionNotFound only.
//
// Thread Safety: Safe for concurrent use across different sessions.
func (l *Loop) Approve(ctx context.Context, id string) (*ExecResult, error) {
	session, err := l.store.Get(id)
	if err != nil {
		return nil, err
	}
	return l.executor.ApprovePending(ctx, session), nil
}
