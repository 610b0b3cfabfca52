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
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianSOC/services/analyst/llm"
)

// FormatInsights summarizes search hits into analyst guidance.
//
// Description:
//
//	With no hits, suggests broadening the search. Otherwise compacts up
//	to 20 hits and asks the reasoning provider for patterns and next
//	steps. If the provider fails, falls back to a by-host aggregation
//	summary so the endpoint still returns something actionable.
//
// Inputs:
//
//	ctx - Context bounding the provider call.
//	client - The reasoning provider.
//	hits - Raw hit envelopes from a search.
//	originalQuery - The analyst's question, echoed into the prompt.
//
// Outputs:
//
//	string - Analyst-facing summary text, never empty.
func FormatInsights(ctx context.Context, client llm.Client, hits []map[string]any, originalQuery string) string {
	if len(hits) == 0 {
		return "No matching events found. Consider broadening the time range or keywords."
	}

	compact := make([]map[string]any, 0, 20)
	for _, h := range hits {
		if len(compact) == 20 {
			break
		}
		src := hitSource(h)
		compact = append(compact, map[string]any{
			"@ts":  src["@timestamp"],
			"host": hostName(src),
			"proc": processName(src),
			"msg":  messageText(src),
		})
	}

	sample, err := json.Marshal(compact)
	if err == nil {
		prompt := fmt.Sprintf(
			"You are a SOC analyst. Summarize patterns and provide 2-3 concise, actionable next steps.\n"+
				"Question: %s\nSample events: %s\n",
			originalQuery, sample,
		)
		text, genErr := client.Generate(ctx, prompt, llm.GenerationParams{
			Temperature: llm.Float32(0.2),
			MaxTokens:   llm.Int(200),
		})
		if genErr == nil {
			return text
		}
		slog.Warn("Insight generation failed, using heuristic summary", "error", genErr)
	}

	return heuristicInsights(hits)
}

// heuristicInsights aggregates hits by host when the provider is down.
func heuristicInsights(hits []map[string]any) string {
	byHost := make(map[string]int)
	for _, h := range hits {
		if host := hostName(hitSource(h)); host != "" {
			byHost[host]++
		}
	}

	type hostCount struct {
		host  string
		count int
	}
	counts := make([]hostCount, 0, len(byHost))
	for host, n := range byHost {
		counts = append(counts, hostCount{host, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].host < counts[j].host
	})
	if len(counts) > 3 {
		counts = counts[:3]
	}

	parts := []string{fmt.Sprintf("Matches: %d", len(hits))}
	if len(counts) > 0 {
		tops := make([]string, len(counts))
		for i, c := range counts {
			tops[i] = fmt.Sprintf("%s(%d)", c.host, c.count)
		}
		parts = append(parts, "Top hosts: "+strings.Join(tops, ", "))
	}
	parts = append(parts, "Next: refine keywords, review top hosts, pivot by process.")
	return strings.Join(parts, "; ")
}

// hitSource extracts the _source mapping from a hit envelope.
func hitSource(hit map[string]any) map[string]any {
	if src, ok := hit["_source"].(map[string]any); ok {
		return src
	}
	return map[string]any{}
}

// hostName handles both flattened and nested host fields.
func hostName(src map[string]any) string {
	switch host := src["host"].(type) {
	case map[string]any:
		if name, ok := host["name"].(string); ok {
			return name
		}
	case string:
		return host
	}
	return ""
}

// processName handles both flattened and nested process fields.
func processName(src map[string]any) string {
	switch proc := src["process"].(type) {
	case map[string]any:
		if name, ok := proc["name"].(string); ok {
			return name
		}
	case string:
		return proc
	}
	return ""
}

// messageText prefers message, then event.original, then raw_text.
func messageText(src map[string]any) string {
	if msg, ok := src["message"].(string); ok && msg != "" {
		return msg
	}
	if event, ok := src["event"].(map[string]any); ok {
		if orig, ok := event["original"].(string); ok && orig != "" {
			return orig
		}
	}
	if raw, ok := src["raw_text"].(string); ok {
		return raw
	}
	return ""
}
