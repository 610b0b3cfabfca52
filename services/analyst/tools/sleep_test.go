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
	"context"
	"testing"
	"time"
)

func TestSleepToolCompletes(t *testing.T) {
	tool := NewSleepTool()
	res := tool.Execute(context.Background(), map[string]any{"seconds": 0.01})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Error)
	}
	out, _ := res.Output.(map[string]any)
	if out["slept"] != 0.01 {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestSleepToolInputValidation(t *testing.T) {
	tool := NewSleepTool()

	tests := []struct {
		name  string
		input map[string]any
	}{
		{name: "missing seconds", input: map[string]any{}},
		{name: "negative seconds", input: map[string]any{"seconds": -1.0}},
		{name: "non-numeric seconds", input: map[string]any{"seconds": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tool.Execute(context.Background(), tt.input)
			if res.OK {
				t.Error("expected failure")
			}
		})
	}
}

func TestSleepToolCancellation(t *testing.T) {
	tool := NewSleepTool()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := tool.Execute(ctx, map[string]any{"seconds": 10.0})

	if res.OK {
		t.Fatal("expected cancellation failure")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
}
