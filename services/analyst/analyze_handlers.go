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
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianSOC/services/analyst/search"
	"github.com/AleutianAI/AleutianSOC/services/analyst/tools"
	"github.com/gin-gonic/gin"
)

const (
	defaultTimeRange = "24h"
	maxSamples       = 5
)

// AnalyzeHandlers contains the one-shot analysis handlers.
//
// Thread Safety: AnalyzeHandlers is safe for concurrent use.
type AnalyzeHandlers struct {
	svc      *Service
	searcher tools.Searcher
}

// NewAnalyzeHandlers creates the analysis handlers.
//
// Inputs:
//
//	svc - The analyst service. Must not be nil.
//	searcher - The search backend. May be nil; analysis then returns
//	           503 unless AllowPartial keeps the 200 contract.
func NewAnalyzeHandlers(svc *Service, searcher tools.Searcher) *AnalyzeHandlers {
	return &AnalyzeHandlers{svc: svc, searcher: searcher}
}

// HandleAnalyze handles POST /v1/analyst/analyze.
//
// Description:
//
//	Translates a natural-language question into a search body, runs
//	it against the configured index, and summarizes the matches. A
//	failing translation falls back to a keyword query; a failing
//	search falls back to an empty result set when AllowPartial is
//	enabled, so the caller always gets a 200 with whatever could be
//	produced.
//
// Response:
//
//	200 OK: AnalyzeResponse
//	400 Bad Request: Missing query
//	503 Service Unavailable: Search backend down and AllowPartial off
func (h *AnalyzeHandlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Query is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	timeRange := req.TimeRange
	if timeRange == "" {
		timeRange = defaultTimeRange
	}
	index := req.Index
	if index == "" {
		index = h.svc.Config().SearchIndex
	}

	ctx := c.Request.Context()
	dsl := search.TranslateToDSL(ctx, h.svc.Client(), req.Query, timeRange)
	body := search.BuildBody(dsl, req.Query, timeRange)

	var result *search.SearchResult
	if h.searcher != nil {
		var err error
		result, err = h.searcher.Search(ctx, index, body)
		if err != nil {
			logger.Warn("Search failed", "index", index, "error", err)
			result = nil
		}
	}
	if result == nil {
		if !h.svc.Config().AllowPartial {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: "Search backend unavailable",
				Code:  "SEARCH_UNAVAILABLE",
			})
			return
		}
		result = &search.SearchResult{}
	}

	insights := search.FormatInsights(ctx, h.svc.Client(), result.Hits, req.Query)

	logger.Info("Analysis completed",
		"index", index,
		"total", result.Total,
		"hits", len(result.Hits))

	c.JSON(http.StatusOK, AnalyzeResponse{
		DSL:      body,
		Total:    result.Total,
		Insights: insights,
		Samples:  sampleHits(result.Hits),
	})
}

// sampleHits projects up to maxSamples hits into the response shape.
func sampleHits(hits []map[string]any) []AnalyzeSample {
	samples := make([]AnalyzeSample, 0, maxSamples)
	for _, hit := range hits {
		if len(samples) == maxSamples {
			break
		}
		src, _ := hit["_source"].(map[string]any)
		if src == nil {
			continue
		}
		sample := AnalyzeSample{}
		if ts, ok := src["@timestamp"].(string); ok {
			sample.Timestamp = ts
		}
		if host, ok := src["host"].(string); ok {
			sample.Host = host
		} else if hostMap, ok := src["host"].(map[string]any); ok {
			if name, ok := hostMap["name"].(string); ok {
				sample.Host = name
			}
		}
		if msg, ok := src["message"].(string); ok {
			sample.Message = msg
		}
		samples = append(samples, sample)
	}
	return samples
}
