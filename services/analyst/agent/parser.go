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
	"encoding/json"
	"strings"
)

// ParseOutcome classifies how a provider response was interpreted.
//
// The fallback variant is a recognized degraded mode, not an error; the
// parser never fails.
type ParseOutcome string

const (
	// OutcomeStrict means the full text decoded as a JSON object.
	OutcomeStrict ParseOutcome = "strict"

	// OutcomeEmbedded means a JSON object was recovered from surrounding prose.
	OutcomeEmbedded ParseOutcome = "embedded"

	// OutcomeNonJSON means the text was treated as an unstructured final answer.
	OutcomeNonJSON ParseOutcome = "non_json"
)

// fallbackAnswerLimit caps the answer extracted from non-JSON responses.
const fallbackAnswerLimit = 500

// ParseDecision interprets raw provider text as a structured decision.
//
// Description:
//
//	Tries strict JSON decoding of the whole text first, then decoding of
//	the substring between the first '{' and the last '}', and finally
//	falls back to treating the text as a plain final answer truncated to
//	500 characters. Missing fields default: action "final", input empty,
//	thought empty. A non-mapping input is wrapped as {"value": input}.
//
//	The function is pure: it never touches session state and never fails.
//
// Inputs:
//
//	raw - The provider's response text.
//
// Outputs:
//
//	Decision - The interpreted decision.
//	ParseOutcome - How the text was interpreted, for observability.
func ParseDecision(raw string) (Decision, ParseOutcome) {
	trimmed := strings.TrimSpace(raw)

	if d, ok := decodeDecision(trimmed); ok {
		return d, OutcomeStrict
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if d, ok := decodeDecision(trimmed[start : end+1]); ok {
			return d, OutcomeEmbedded
		}
	}

	return Decision{
		Action: ActionFinal,
		Input:  map[string]any{"answer": truncateRunes(trimmed, fallbackAnswerLimit)},
	}, OutcomeNonJSON
}

// decodeDecision decodes text into a decision, requiring a JSON object.
func decodeDecision(text string) (Decision, bool) {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return Decision{}, false
	}

	action := ActionFinal
	if v, ok := data["action"].(string); ok && strings.TrimSpace(v) != "" {
		action = strings.TrimSpace(v)
	}

	input := make(map[string]any)
	if v, ok := data["input"]; ok && v != nil {
		if m, ok := v.(map[string]any); ok {
			input = m
		} else {
			input = map[string]any{"value": v}
		}
	}

	thought := ""
	if v, ok := data["thought"].(string); ok {
		thought = strings.TrimSpace(v)
	}

	return Decision{Thought: thought, Action: action, Input: input}, true
}

// truncateRunes caps a string at n runes without splitting a character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
