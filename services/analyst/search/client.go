// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search provides Elasticsearch access for the analyst service:
// a thin query/index client, natural-language to query-DSL translation,
// and LLM-backed result summarization with heuristic fallbacks.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
)

// SearchResult holds the hits of one search call.
type SearchResult struct {
	// Total is the reported total hit count.
	Total int `json:"total"`

	// Hits are the raw hit envelopes ({_id, _source, ...}).
	Hits []map[string]any `json:"hits"`
}

// Client wraps the Elasticsearch client with the narrow surface the
// analyst service needs: search with a prepared body, and document
// indexing for enrichment output.
//
// Thread Safety: Client is safe for concurrent use.
type Client struct {
	es *elasticsearch.Client
}

// NewClient connects to Elasticsearch at the given URL.
//
// Outputs:
//
//	*Client - The configured client.
//	error - Non-nil if the client could not be constructed.
func NewClient(url string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	slog.Info("Initialized Elasticsearch client", "url", url)
	return &Client{es: es}, nil
}

// Search executes a prepared search body against an index.
//
// Description:
//
//	The body is the full request body ({query, sort, size, ...}); the
//	caller owns its shape. Returns the hit envelopes and the reported
//	total, falling back to the envelope count when the total is absent.
//
// Thread Safety: This method is safe for concurrent use.
func (c *Client) Search(ctx context.Context, index string, body map[string]any) (*SearchResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search %s: %s: %s", index, res.Status(), msg)
	}

	var envelope struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []map[string]any `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	total := envelope.Hits.Total.Value
	if total == 0 {
		total = len(envelope.Hits.Hits)
	}
	return &SearchResult{Total: total, Hits: envelope.Hits.Hits}, nil
}

// Index writes a document to an index.
//
// Thread Safety: This method is safe for concurrent use.
func (c *Client) Index(ctx context.Context, index string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := c.es.Index(index, bytes.NewReader(data), c.es.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index %s: %s: %s", index, res.Status(), msg)
	}
	return nil
}
