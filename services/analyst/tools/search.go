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

	"github.com/AleutianAI/AleutianSOC/services/analyst/search"
)

// defaultSearchSize bounds hits returned when the agent sends no size.
const defaultSearchSize = 50

// Searcher is the narrow search surface the es_search tool needs.
// *search.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, index string, body map[string]any) (*search.SearchResult, error)
}

// SearchTool queries an Elasticsearch index with a caller-provided DSL
// query, sorted most recent first.
type SearchTool struct {
	searcher Searcher
}

// NewSearchTool creates the es_search tool backed by the given searcher.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

// Name implements Tool.
func (t *SearchTool) Name() string { return "es_search" }

// Description implements Tool.
func (t *SearchTool) Description() string {
	return "Search Elasticsearch index with a provided DSL query."
}

// Schema implements Tool.
func (t *SearchTool) Schema() map[string]string {
	return map[string]string{"index": "string", "query": "object", "size": "int?"}
}

// Execute implements Tool.
//
// Description:
//
//	Requires "index" (string) and "query" (object); "size" defaults to
//	50. Results are sorted by @timestamp descending. Backend failures
//	come back inside the Result, never as an error.
func (t *SearchTool) Execute(ctx context.Context, input map[string]any) Result {
	index, ok := input["index"].(string)
	if !ok || index == "" {
		return Fail(errors.New("es_search: 'index' must be a non-empty string"))
	}
	query, ok := input["query"].(map[string]any)
	if !ok {
		return Fail(errors.New("es_search: 'query' must be an object"))
	}

	size := defaultSearchSize
	if v, ok := input["size"].(float64); ok && v > 0 {
		size = int(v)
	}

	body := map[string]any{
		"query": query,
		"size":  size,
		"sort":  []any{map[string]any{"@timestamp": "desc"}},
	}

	res, err := t.searcher.Search(ctx, index, body)
	if err != nil {
		return Fail(err)
	}

	hits := res.Hits
	if len(hits) > size {
		hits = hits[:size]
	}
	return Ok(map[string]any{"total": len(hits), "hits": hits})
}
