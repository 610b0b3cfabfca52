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
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// defaultHTTPTimeout bounds the request when the agent sends none.
	defaultHTTPTimeout = 15 * time.Second

	// maxBodyBytes caps the response text folded into the dialogue.
	maxBodyBytes = 20000
)

// HTTPGetTool performs an HTTP GET for enrichment lookups such as
// threat-intel queries.
type HTTPGetTool struct {
	client *http.Client
}

// NewHTTPGetTool creates the http_get tool.
//
// Inputs:
//
//	client - HTTP client to use; nil uses a default client. Per-request
//	         timeouts come from the tool input, not the client.
func NewHTTPGetTool(client *http.Client) *HTTPGetTool {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPGetTool{client: client}
}

// Name implements Tool.
func (t *HTTPGetTool) Name() string { return "http_get" }

// Description implements Tool.
func (t *HTTPGetTool) Description() string {
	return "HTTP GET request for enrichment (e.g., threat intel)."
}

// Schema implements Tool.
func (t *HTTPGetTool) Schema() map[string]string {
	return map[string]string{"url": "string", "headers": "object?", "timeout": "float?"}
}

// Execute implements Tool.
//
// Description:
//
//	Requires "url"; optional "headers" (string values) and "timeout"
//	in seconds (default 15). The response body is truncated to 20000
//	bytes before being folded into the dialogue.
func (t *HTTPGetTool) Execute(ctx context.Context, input map[string]any) Result {
	url, ok := input["url"].(string)
	if !ok || url == "" {
		return Fail(errors.New("http_get: 'url' must be a non-empty string"))
	}

	timeout := defaultHTTPTimeout
	if v, ok := input["timeout"].(float64); ok && v > 0 {
		timeout = time.Duration(v * float64(time.Second))
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Fail(fmt.Errorf("http_get: %w", err))
	}
	if headers, ok := input["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Fail(fmt.Errorf("http_get: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Fail(fmt.Errorf("http_get: read body: %w", err))
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return Ok(map[string]any{
		"status":  resp.StatusCode,
		"headers": headers,
		"text":    string(body),
	})
}
