// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianSOC/services/analyst/llm"
)

// searchableFields are the event fields offered to keyword matching,
// weighted toward the raw message text.
var searchableFields = []string{
	"message^2", "event.original^2", "source_event_json", "raw_text", "host.name", "process.name",
}

// DefaultQuery builds the heuristic multi-match query used when the
// provider cannot translate the question.
//
// Inputs:
//
//	query - The natural-language question.
//	timeRange - Optional relative range (e.g. "24h"); adds an
//	            @timestamp gte filter when non-empty.
//
// Outputs:
//
//	map[string]any - An Elasticsearch bool query.
func DefaultQuery(query, timeRange string) map[string]any {
	must := []any{
		map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": searchableFields,
			},
		},
	}
	if timeRange != "" {
		must = append(must, map[string]any{
			"range": map[string]any{
				"@timestamp": map[string]any{"gte": "now-" + timeRange},
			},
		})
	}
	return map[string]any{"bool": map[string]any{"must": must}}
}

// TranslateToDSL converts a natural-language SOC question into a search
// request body.
//
// Description:
//
//	Asks the reasoning provider for strict JSON with a top-level "query"
//	field and optional "sort" and "size". Any failure — provider error,
//	malformed JSON, or a response with no query — falls back to the
//	heuristic DefaultQuery with a recency sort. Translation quality is
//	out of scope; the contract is only that a usable body comes back.
//
// Inputs:
//
//	ctx - Context bounding the provider call.
//	client - The reasoning provider.
//	query - The natural-language question.
//	timeRange - Optional relative range passed through to the prompt.
//
// Outputs:
//
//	map[string]any - A search request body with query, sort, and size.
func TranslateToDSL(ctx context.Context, client llm.Client, query, timeRange string) map[string]any {
	rangeDesc := timeRange
	if rangeDesc == "" {
		rangeDesc = "none"
	}
	prompt := fmt.Sprintf(
		"You translate a natural-language SOC question into an Elasticsearch 8 DSL JSON.\n"+
			"Return ONLY valid JSON with a top-level 'query' field and optional 'sort' and 'size'.\n"+
			"Use a time range filter on '@timestamp' if provided. Fields include 'message', "+
			"'event.original', 'source_event_json', 'host.name', 'process.name'.\n"+
			"NL query: %s\nTime range: %s\n",
		query, rangeDesc,
	)

	fallback := map[string]any{
		"query": DefaultQuery(query, timeRange),
		"sort":  []any{map[string]any{"@timestamp": "desc"}},
		"size":  50,
	}

	text, err := client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: llm.Float32(0.2),
		MaxTokens:   llm.Int(200),
	})
	if err != nil {
		slog.Warn("DSL translation failed, using heuristic query", "error", err)
		return fallback
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		slog.Warn("DSL translation returned invalid JSON, using heuristic query")
		return fallback
	}
	if _, ok := data["query"]; !ok {
		slog.Warn("DSL translation missing query field, using heuristic query")
		return fallback
	}
	return data
}

// BuildBody normalizes a translated DSL into a complete request body,
// filling in the heuristic query, recency sort, and size of 50 for any
// missing part.
func BuildBody(dsl map[string]any, query, timeRange string) map[string]any {
	body := map[string]any{
		"query": DefaultQuery(query, timeRange),
		"sort":  []any{map[string]any{"@timestamp": "desc"}},
		"size":  50,
	}
	if q, ok := dsl["query"]; ok {
		body["query"] = q
	}
	if s, ok := dsl["sort"]; ok {
		body["sort"] = s
	}
	if sz, ok := dsl["size"]; ok {
		if f, ok := sz.(float64); ok {
			body["size"] = int(f)
		}
	}
	return body
}
