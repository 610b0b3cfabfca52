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
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianSOC/services/analyst/tools"
)

// fakeTool is a scripted tool for executor tests.
type fakeTool struct {
	name      string
	calls     int
	result    tools.Result
	panicWith any
	lastInput map[string]any
}

func (f *fakeTool) Name() string              { return f.name }
func (f *fakeTool) Description() string       { return "fake tool" }
func (f *fakeTool) Schema() map[string]string { return map[string]string{"arg": "string"} }

func (f *fakeTool) Execute(ctx context.Context, input map[string]any) tools.Result {
	f.calls++
	f.lastInput = input
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.result
}

func newTestExecutor(ts ...tools.Tool) (*Executor, *tools.Registry) {
	registry := tools.NewRegistry()
	for _, tool := range ts {
		registry.Register(tool)
	}
	return NewExecutor(registry, 0), registry
}

func TestExecuteFinal(t *testing.T) {
	exec, _ := newTestExecutor()
	s := NewSession(ApprovalAuto)

	res := exec.Execute(context.Background(), s, ActionFinal, map[string]any{"answer": "all clear"})

	if res.Status != ExecFinal {
		t.Fatalf("expected final status, got %q", res.Status)
	}
	if res.Answer != "all clear" {
		t.Errorf("unexpected answer: %q", res.Answer)
	}
	if !s.Done() {
		t.Error("final must mark the session done")
	}
	msgs := s.RecentMessages(0)
	if len(msgs) != 1 || msgs[0].Role != RoleAssistant || msgs[0].Content != "all clear" {
		t.Errorf("expected assistant answer message, got %v", msgs)
	}
}

func TestExecuteFinalCoercesNonStringAnswer(t *testing.T) {
	exec, _ := newTestExecutor()
	s := NewSession(ApprovalAuto)

	res := exec.Execute(context.Background(), s, ActionFinal, map[string]any{"answer": 42})

	if res.Answer != "42" {
		t.Errorf("expected coerced answer \"42\", got %q", res.Answer)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	exec, _ := newTestExecutor()
	s := NewSession(ApprovalAuto)

	res := exec.Execute(context.Background(), s, "nmap", nil)

	if res.Status != ExecError {
		t.Fatalf("expected error status, got %q", res.Status)
	}
	if res.Error != "unknown_tool: nmap" {
		t.Errorf("unexpected error: %q", res.Error)
	}
	if s.Done() {
		t.Error("unknown tool must not terminate the session")
	}
	if s.LastError() != "unknown_tool: nmap" {
		t.Errorf("expected last_error recorded, got %q", s.LastError())
	}
	msgs := s.RecentMessages(0)
	if len(msgs) != 1 || msgs[0].Content != "unknown_tool: nmap" {
		t.Errorf("expected visible error message, got %v", msgs)
	}
}

func TestExecuteManualModeGates(t *testing.T) {
	ft := &fakeTool{name: "sleep", result: tools.Ok(map[string]any{"slept": 1})}
	exec, _ := newTestExecutor(ft)
	s := NewSession(ApprovalManual)

	res := exec.Execute(context.Background(), s, "sleep", map[string]any{"seconds": 1})

	if res.Status != ExecAwaitingApproval {
		t.Fatalf("expected awaiting_approval, got %q", res.Status)
	}
	if ft.calls != 0 {
		t.Error("gated tool must not execute")
	}
	pending := s.PendingAction()
	if pending == nil || pending.Tool != "sleep" {
		t.Fatalf("expected pending sleep action, got %v", pending)
	}
	if len(s.RecentMessages(0)) != 0 {
		t.Error("gating must not append dialogue messages")
	}
}

func TestExecuteAutoModeRunsTool(t *testing.T) {
	ft := &fakeTool{name: "sleep", result: tools.Ok(map[string]any{"slept": 1})}
	exec, _ := newTestExecutor(ft)
	s := NewSession(ApprovalAuto)

	res := exec.Execute(context.Background(), s, "sleep", map[string]any{"seconds": 1})

	if res.Status != ExecExecuted {
		t.Fatalf("expected executed status, got %q", res.Status)
	}
	if ft.calls != 1 {
		t.Fatalf("expected one tool call, got %d", ft.calls)
	}
	if ok, _ := res.Result["ok"].(bool); !ok {
		t.Errorf("expected ok result, got %v", res.Result)
	}
	if _, hasUsage := res.Result["usage"]; !hasUsage {
		t.Error("expected duration recorded in usage")
	}
	msgs := s.RecentMessages(0)
	if len(msgs) != 1 || msgs[0].Role != RoleTool || msgs[0].Name != "sleep" {
		t.Errorf("expected tool-role message, got %v", msgs)
	}
}

func TestExecuteToolPanicBecomesFailure(t *testing.T) {
	ft := &fakeTool{name: "boom", panicWith: "kaboom"}
	exec, _ := newTestExecutor(ft)
	s := NewSession(ApprovalAuto)

	res := exec.Execute(context.Background(), s, "boom", nil)

	if res.Status != ExecExecuted {
		t.Fatalf("expected executed status, got %q", res.Status)
	}
	if ok, _ := res.Result["ok"].(bool); ok {
		t.Error("panicking tool must produce a failed result")
	}
	errText, _ := res.Result["error"].(string)
	if !strings.Contains(errText, "kaboom") {
		t.Errorf("expected panic captured in error, got %q", errText)
	}
}

func TestApprovePendingNoPending(t *testing.T) {
	exec, _ := newTestExecutor()
	s := NewSession(ApprovalManual)

	res := exec.ApprovePending(context.Background(), s)

	if res.Status != ExecNoPending {
		t.Fatalf("expected no_pending, got %q", res.Status)
	}
}

func TestApprovePendingExecutesOnce(t *testing.T) {
	ft := &fakeTool{name: "sleep", result: tools.Ok(map[string]any{"slept": 1})}
	exec, _ := newTestExecutor(ft)
	s := NewSession(ApprovalManual)

	gate := exec.Execute(context.Background(), s, "sleep", map[string]any{"seconds": 1})
	if gate.Status != ExecAwaitingApproval {
		t.Fatalf("expected gate to open, got %q", gate.Status)
	}

	res := exec.ApprovePending(context.Background(), s)
	if res.Status != ExecExecuted {
		t.Fatalf("expected executed after approval, got %q", res.Status)
	}
	if ft.calls != 1 {
		t.Fatalf("expected exactly one execution, got %d", ft.calls)
	}
	if ft.lastInput["seconds"] != 1 {
		t.Errorf("expected original input preserved, got %v", ft.lastInput)
	}
	if s.PendingAction() != nil {
		t.Error("approval must clear the gate")
	}

	// A second approval finds nothing pending.
	again := exec.ApprovePending(context.Background(), s)
	if again.Status != ExecNoPending {
		t.Errorf("expected no_pending on repeat approval, got %q", again.Status)
	}
}
