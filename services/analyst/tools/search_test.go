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
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianSOC/services/analyst/search"
)

// fakeSearcher records the last search call and replays a scripted result.
type fakeSearcher struct {
	lastIndex string
	lastBody  map[string]any
	result    *search.SearchResult
	err       error
}

func (f *fakeSearcher) Search(ctx context.Context, index string, body map[string]any) (*search.SearchResult, error) {
	f.lastIndex = index
	f.lastBody = body
	return f.result, f.err
}

func TestSearchToolBuildsBody(t *testing.T) {
	fs := &fakeSearcher{result: &search.SearchResult{
		Total: 2,
		Hits: []map[string]any{
			{"_source": map[string]any{"message": "a"}},
			{"_source": map[string]any{"message": "b"}},
		},
	}}
	tool := NewSearchTool(fs)

	res := tool.Execute(context.Background(), map[string]any{
		"index": "alerts-enriched",
		"query": map[string]any{"match_all": map[string]any{}},
	})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if fs.lastIndex != "alerts-enriched" {
		t.Errorf("unexpected index: %q", fs.lastIndex)
	}
	if fs.lastBody["size"] != defaultSearchSize {
		t.Errorf("expected default size %d, got %v", defaultSearchSize, fs.lastBody["size"])
	}
	if _, hasSort := fs.lastBody["sort"]; !hasSort {
		t.Error("expected timestamp sort in body")
	}
	out, _ := res.Output.(map[string]any)
	if out["total"] != 2 {
		t.Errorf("unexpected total: %v", out["total"])
	}
}

func TestSearchToolSizeOverride(t *testing.T) {
	hits := make([]map[string]any, 5)
	for i := range hits {
		hits[i] = map[string]any{"_source": map[string]any{}}
	}
	fs := &fakeSearcher{result: &search.SearchResult{Total: 5, Hits: hits}}
	tool := NewSearchTool(fs)

	res := tool.Execute(context.Background(), map[string]any{
		"index": "alerts-enriched",
		"query": map[string]any{"match_all": map[string]any{}},
		"size":  float64(2),
	})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Error)
	}
	out, _ := res.Output.(map[string]any)
	returned, _ := out["hits"].([]map[string]any)
	if len(returned) != 2 {
		t.Errorf("expected hits capped at 2, got %d", len(returned))
	}
}

func TestSearchToolInputValidation(t *testing.T) {
	tool := NewSearchTool(&fakeSearcher{result: &search.SearchResult{}})

	tests := []struct {
		name  string
		input map[string]any
	}{
		{name: "missing index", input: map[string]any{"query": map[string]any{}}},
		{name: "missing query", input: map[string]any{"index": "x"}},
		{name: "non-object query", input: map[string]any{"index": "x", "query": "match all"}},
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

func TestSearchToolBackendFailure(t *testing.T) {
	tool := NewSearchTool(&fakeSearcher{err: errors.New("connection refused")})

	res := tool.Execute(context.Background(), map[string]any{
		"index": "alerts-enriched",
		"query": map[string]any{"match_all": map[string]any{}},
	})

	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Error != "connection refused" {
		t.Errorf("unexpected error: %q", res.Error)
	}
}
