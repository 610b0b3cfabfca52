// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ingest consumes raw alerts from Kafka, enriches them with an
// LLM summary, and indexes the enriched documents for the agent's
// search tools.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianSOC/services/analyst/llm"
)

// Config configures the alert-enrichment consumer.
type Config struct {
	// Brokers are the Kafka bootstrap addresses.
	Brokers []string

	// Topic is the raw alert topic.
	// Default: "syslog-alerts"
	Topic string

	// GroupID is the consumer group.
	// Default: "ai-analyst"
	GroupID string

	// OutputIndex receives enriched documents.
	// Default: "alerts-enriched"
	OutputIndex string

	// SummaryRate bounds LLM enrichment calls per second.
	// Default: 2
	SummaryRate float64
}

// DefaultConfig returns the consumer defaults matching the pipeline's
// conventional topic and index names.
func DefaultConfig() Config {
	return Config{
		Brokers:     []string{"kafka:29092"},
		Topic:       "syslog-alerts",
		GroupID:     "ai-analyst",
		OutputIndex: "alerts-enriched",
		SummaryRate: 2,
	}
}

// Indexer is the narrow indexing surface the consumer needs.
// *search.Client satisfies it.
type Indexer interface {
	Index(ctx context.Context, index string, doc any) error
}

// Consumer reads alerts, summarizes them, and indexes the result.
//
// Thread Safety: one Consumer instance owns its reader; run a single
// Run loop per instance.
type Consumer struct {
	config  Config
	reader  *kafka.Reader
	indexer Indexer
	client  llm.Client
	limiter *rate.Limiter
}

// NewConsumer creates a consumer over the given backends.
//
// Inputs:
//
//	config - Consumer configuration; zero fields take defaults.
//	indexer - Destination for enriched documents. Must not be nil.
//	client - The reasoning provider for summaries. Must not be nil.
//
// Outputs:
//
//	*Consumer - The configured consumer.
func NewConsumer(config Config, indexer Indexer, client llm.Client) *Consumer {
	defaults := DefaultConfig()
	if len(config.Brokers) == 0 {
		config.Brokers = defaults.Brokers
	}
	if config.Topic == "" {
		config.Topic = defaults.Topic
	}
	if config.GroupID == "" {
		config.GroupID = defaults.GroupID
	}
	if config.OutputIndex == "" {
		config.OutputIndex = defaults.OutputIndex
	}
	if config.SummaryRate <= 0 {
		config.SummaryRate = defaults.SummaryRate
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		GroupID:     config.GroupID,
		Topic:       config.Topic,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		config:  config,
		reader:  reader,
		indexer: indexer,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.SummaryRate), 1),
	}
}

// Run consumes alerts until the context is canceled.
//
// Description:
//
//	Each message is decoded as JSON (malformed messages are skipped),
//	summarized via the provider (with a heuristic fallback when the
//	provider fails), and indexed to the output index. Index failures
//	are logged and retried on the next message; they never stop the
//	loop.
//
// Outputs:
//
//	error - Non-nil only when the context ends or the reader fails
//	        permanently.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("Starting alert consumer",
		"topic", c.config.Topic, "output_index", c.config.OutputIndex)
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.Info("Alert consumer stopping", "reason", ctx.Err())
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}
		c.processMessage(ctx, msg.Value)
	}
}

// processMessage enriches and indexes one raw alert payload.
func (c *Consumer) processMessage(ctx context.Context, value []byte) {
	var alert map[string]any
	if err := json.Unmarshal(value, &alert); err != nil {
		slog.Warn("Skipping malformed alert", "error", err)
		return
	}

	summary := c.summarize(ctx, alert)
	doc := EnrichedDoc(alert, summary)

	if err := c.indexer.Index(ctx, c.config.OutputIndex, doc); err != nil {
		slog.Error("Failed to index enriched alert", "error", err)
		time.Sleep(500 * time.Millisecond)
	}
}

// summarize asks the provider for a summary, falling back to a heuristic
// tail of the prompt when the provider is unavailable.
func (c *Consumer) summarize(ctx context.Context, alert map[string]any) string {
	prompt := BuildPrompt(alert)

	if err := c.limiter.Wait(ctx); err != nil {
		return heuristicSummary(prompt, err)
	}

	summary, err := c.client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: llm.Float32(0.2),
		MaxTokens:   llm.Int(200),
	})
	if err != nil {
		slog.Warn("Alert summarization failed, using heuristic summary", "error", err)
		return heuristicSummary(prompt, err)
	}
	return summary
}

// heuristicSummary mirrors the provider-down fallback: the tail of the
// prompt carries the most recent alert context.
func heuristicSummary(prompt string, err error) string {
	tail := prompt
	if runes := []rune(prompt); len(runes) > 200 {
		tail = string(runes[len(runes)-200:])
	}
	return fmt.Sprintf("LLM unavailable. Heuristic summary: %s (%v)", tail, err)
}

// BuildPrompt renders a raw alert into a summarization prompt.
func BuildPrompt(alert map[string]any) string {
	source := "unknown"
	if s, ok := alert["source"].(string); ok && s != "" {
		source = s
	}

	original := alert["source_event_json"]
	if original == nil {
		original = alert["raw_text"]
	}
	if original == nil {
		if event, ok := alert["event"].(map[string]any); ok {
			original = event["original"]
		}
	}

	return fmt.Sprintf(
		"Alert from %s\nTime: %v\nAnomaly: %v\nTemplate: %v (id=%v)\nOriginal:\n%v\n"+
			"Summarize what happened and suggest next investigative steps.",
		source, alert["@timestamp"], alert["anomaly_score"],
		alert["template"], alert["template_id"], original,
	)
}

// EnrichedDoc builds the document indexed for each summarized alert.
func EnrichedDoc(alert map[string]any, summary string) map[string]any {
	return map[string]any{
		"@timestamp":     alert["@timestamp"],
		"source":         alert["source"],
		"summary":        summary,
		"original_alert": alert,
	}
}
