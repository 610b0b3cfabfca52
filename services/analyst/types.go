// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyst

import (
	"github.com/AleutianAI/AleutianSOC/services/analyst/tools"
)

// CreateSessionRequest is the request body for POST /v1/analyst/sessions.
type CreateSessionRequest struct {
	// ApprovalMode is "auto" or "manual". Optional; unrecognized values
	// fall back to the service default.
	ApprovalMode string `json:"approval_mode"`
}

// PostMessageRequest is the request body for
// POST /v1/analyst/sessions/:id/messages.
type PostMessageRequest struct {
	// Content is the user message text. Required.
	Content string `json:"content" binding:"required"`
}

// RunRequest is the request body for POST /v1/analyst/sessions/:id/run.
type RunRequest struct {
	// MaxSteps bounds this run. Optional; <= 0 uses the service default.
	MaxSteps int `json:"max_steps"`
}

// ToolsResponse is the response for GET /v1/analyst/tools.
type ToolsResponse struct {
	// Tools is the registered tool catalog, sorted by name.
	Tools []tools.Definition `json:"tools"`
}

// AnalyzeRequest is the request body for POST /v1/analyst/analyze.
type AnalyzeRequest struct {
	// Query is the natural-language investigation question. Required.
	Query string `json:"query" binding:"required"`

	// Index overrides the configured search index. Optional.
	Index string `json:"index"`

	// TimeRange is an Elasticsearch date-math offset such as "24h" or
	// "7d". Optional; defaults to "24h".
	TimeRange string `json:"time_range"`
}

// AnalyzeSample is one representative hit returned by /analyze.
type AnalyzeSample struct {
	// Timestamp is the event @timestamp field, if present.
	Timestamp string `json:"@timestamp,omitempty"`

	// Host is the originating host, if present.
	Host string `json:"host,omitempty"`

	// Message is the raw event message, if present.
	Message string `json:"message,omitempty"`
}

// AnalyzeResponse is the response for POST /v1/analyst/analyze.
type AnalyzeResponse struct {
	// DSL is the query body that was executed.
	DSL map[string]any `json:"dsl"`

	// Total is the matching document count.
	Total int `json:"total"`

	// Insights is the generated summary of the matches.
	Insights string `json:"insights"`

	// Samples holds up to five representative hits.
	Samples []AnalyzeSample `json:"samples"`
}

// HealthResponse is the response for GET /v1/analyst/health.
type HealthResponse struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`

	// Version is the service version.
	Version string `json:"version"`
}

// ReadyResponse is the response for GET /v1/analyst/ready.
type ReadyResponse struct {
	// Ready is true if the service is ready to accept requests.
	Ready bool `json:"ready"`

	// Sessions is the number of live sessions.
	Sessions int `json:"sessions"`

	// SearchOK is true if the search backend is wired.
	SearchOK bool `json:"search_ok"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}
