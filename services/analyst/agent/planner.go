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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianSOC/services/analyst/llm"
	"github.com/AleutianAI/AleutianSOC/services/analyst/tools"
)

// DialogueWindow is the number of most recent messages included in the
// planning prompt.
const DialogueWindow = 10

// fallbackAnswer is returned when the reasoning provider is unreachable.
const fallbackAnswer = "LLM unavailable. Provide concise heuristic next steps."

// Planner asks the reasoning provider for the next action.
//
// Provider failures never escape: they are recorded on the session's
// last_error and replaced with a fallback final decision, so the control
// loop always terminates cleanly even when the provider is down.
//
// Thread Safety: Planner is safe for concurrent use across sessions.
type Planner struct {
	client   llm.Client
	registry *tools.Registry
}

// NewPlanner creates a planner over the given provider and tool registry.
//
// Inputs:
//
//	client - The reasoning provider. Must not be nil.
//	registry - The immutable tool registry advertised in prompts.
//
// Outputs:
//
//	*Planner - The configured planner.
func NewPlanner(client llm.Client, registry *tools.Registry) *Planner {
	return &Planner{client: client, registry: registry}
}

// Plan produces the next decision for a session.
//
// Description:
//
//	Builds a prompt from the tool catalog and the session's most recent
//	DialogueWindow messages, invokes the provider, and interprets the
//	response via ParseDecision. On provider failure the session's
//	last_error is set and a fallback final decision is returned; the
//	caller never sees an error.
//
// Inputs:
//
//	ctx - Context bounding the provider call.
//	session - The session to plan for.
//
// Outputs:
//
//	Decision - The next action.
//	ParseOutcome - How the provider text was interpreted ("strict" for
//	               the synthesized fallback).
//
// Thread Safety: This method is safe for concurrent use across sessions.
func (p *Planner) Plan(ctx context.Context, session *Session) (Decision, ParseOutcome) {
	prompt := p.buildPrompt(session)

	text, err := p.client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: llm.Float32(0.2),
		MaxTokens:   llm.Int(200),
	})
	if err != nil {
		slog.Warn("Provider call failed, synthesizing fallback decision",
			"session_id", session.ID, "error", err)
		session.SetLastError(fmt.Sprintf("llm_error: %v", err))
		metricPlannerFallbacks.Inc()
		return Decision{
			Thought: "fallback",
			Action:  ActionFinal,
			Input:   map[string]any{"answer": fallbackAnswer},
		}, OutcomeStrict
	}

	decision, outcome := ParseDecision(text)
	metricParseOutcomes.WithLabelValues(string(outcome)).Inc()
	if outcome == OutcomeNonJSON {
		slog.Debug("Provider returned non-JSON response, treating as final answer",
			"session_id", session.ID)
	}
	return decision, outcome
}

// buildPrompt assembles tool instructions, worked examples, and the
// serialized dialogue window.
func (p *Planner) buildPrompt(session *Session) string {
	var b strings.Builder
	b.WriteString("You are an autonomous SOC assistant. Think step-by-step. Use tools to fetch data, then decide next actions.\n")
	b.WriteString("When you are ready to provide the final answer, use action 'final' with an 'answer' field.\n")
	b.WriteString("Always respond in strict JSON with keys: thought, action, input.\n")
	b.WriteString("Available tools:\n")
	for _, def := range p.registry.Definitions() {
		schema, _ := json.Marshal(def.Schema)
		fmt.Fprintf(&b, "- %s: %s schema=%s\n", def.Name, def.Description, schema)
	}
	b.WriteString(`Example: {"thought":"...", "action":"es_search", "input":{"index":"alerts-enriched", "query":{...}}}` + "\n")
	b.WriteString(`Final answer example: {"thought":"...", "action":"final", "input":{"answer":"..."}}` + "\n")
	b.WriteString("Dialogue (JSON array):\n")
	b.WriteString(p.serializeDialogue(session))
	b.WriteString("\nRespond with strict JSON only.")
	return b.String()
}

// serializeDialogue renders the recent dialogue window as a JSON array of
// {role, name, content} objects. Field order is fixed by the Message
// struct, keeping the serialization deterministic.
func (p *Planner) serializeDialogue(session *Session) string {
	recent := session.RecentMessages(DialogueWindow)
	data, err := json.Marshal(recent)
	if err != nil {
		// Dialogue content is always JSON-encodable; guard anyway.
		return "[]"
	}
	return string(data)
}
