// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyst provides the HTTP service for the SOC investigation
// agent.
//
// The service exposes endpoints for:
//   - Creating and driving agent sessions (step, run, approve)
//   - Posting user messages into a session dialogue
//   - Listing the registered tool catalog
//   - One-shot analysis of indexed events (/analyze)
package analyst

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianSOC/services/analyst/agent"
	"github.com/AleutianAI/AleutianSOC/services/analyst/llm"
	"github.com/AleutianAI/AleutianSOC/services/analyst/tools"
)

// ServiceConfig configures the analyst service.
type ServiceConfig struct {
	// DefaultApprovalMode is applied to sessions created without a mode.
	// Default: "auto"
	DefaultApprovalMode string

	// MaxRunSteps bounds one run invocation.
	// Default: 5
	MaxRunSteps int

	// ToolTimeout bounds a single tool execution.
	// Default: 15s
	ToolTimeout time.Duration

	// SearchIndex is the default index for /analyze.
	// Default: "alerts-enriched"
	SearchIndex string

	// AllowPartial keeps the 200 contract on /analyze when the search
	// backend is down, returning empty results.
	// Default: true
	AllowPartial bool
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultApprovalMode: string(agent.ApprovalAuto),
		MaxRunSteps:         agent.DefaultMaxSteps,
		ToolTimeout:         agent.DefaultToolTimeout,
		SearchIndex:         "alerts-enriched",
		AllowPartial:        true,
	}
}

// Validate checks that the configuration is usable.
func (c *ServiceConfig) Validate() error {
	if c.MaxRunSteps <= 0 {
		return fmt.Errorf("MaxRunSteps must be positive")
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("ToolTimeout must be positive")
	}
	if c.SearchIndex == "" {
		return fmt.Errorf("SearchIndex must not be empty")
	}
	return nil
}

// Service wires the session store, tool registry, planner, executor, and
// run loop behind the HTTP handlers.
//
// Thread Safety:
//
//	Service is safe for concurrent use across different sessions. The
//	loop's single-writer-per-session contract applies to callers.
type Service struct {
	config   ServiceConfig
	store    *agent.Store
	registry *tools.Registry
	loop     *agent.Loop
	client   llm.Client
}

// NewService creates the analyst service.
//
// Description:
//
//	Builds the tool registry once at startup and passes it explicitly
//	to the planner and executor; nothing mutates it afterward. A nil
//	searcher registers only the backend-free tools so the service
//	degrades instead of failing to start.
//
// Inputs:
//
//	config - Service configuration.
//	client - The reasoning provider. Must not be nil.
//	searcher - Search backend for the es_search tool. May be nil.
//
// Outputs:
//
//	*Service - The configured service.
//	error - Non-nil if the configuration is invalid.
func NewService(config ServiceConfig, client llm.Client, searcher tools.Searcher) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}

	registry := tools.NewRegistry()
	if searcher != nil {
		registry.Register(tools.NewSearchTool(searcher))
	}
	registry.Register(tools.NewHTTPGetTool(&http.Client{}))
	registry.Register(tools.NewSleepTool())

	store := agent.NewStore(agent.ApprovalMode(config.DefaultApprovalMode))
	planner := agent.NewPlanner(client, registry)
	executor := agent.NewExecutor(registry, config.ToolTimeout)
	loop := agent.NewLoop(store, planner, executor)

	return &Service{
		config:   config,
		store:    store,
		registry: registry,
		loop:     loop,
		client:   client,
	}, nil
}

// Store returns the session store.
func (s *Service) Store() *agent.Store { return s.store }

// Registry returns the immutable tool registry.
func (s *Service) Registry() *tools.Registry { return s.registry }

// Loop returns the run loop.
func (s *Service) Loop() *agent.Loop { return s.loop }

// Config returns the service configuration.
func (s *Service) Config() ServiceConfig { return s.config }

// Client returns the reasoning provider.
func (s *Service) Client() llm.Client { return s.client }
