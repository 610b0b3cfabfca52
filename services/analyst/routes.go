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
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is the analyst service version.
const Version = "0.1.0"

// RegisterRoutes registers all analyst routes with the router.
//
// Description:
//
//	Registers all /v1/analyst/* endpoints with the given Gin router
//	group. The router group should already have any required
//	middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The agent handlers instance
//	analyze - The analysis handlers instance
//
// Endpoints:
//
//	POST /v1/analyst/sessions - Create an agent session
//	GET  /v1/analyst/sessions/:id - Get session state
//	POST /v1/analyst/sessions/:id/messages - Append a user message
//	POST /v1/analyst/sessions/:id/step - Advance one plan-act cycle
//	POST /v1/analyst/sessions/:id/run - Step until done or gated
//	POST /v1/analyst/sessions/:id/approve - Execute the pending action
//	GET  /v1/analyst/tools - List the tool catalog
//	POST /v1/analyst/analyze - One-shot event analysis
//	GET  /v1/analyst/health - Health check
//	GET  /v1/analyst/ready - Readiness check
//
// Example:
//
//	service, _ := analyst.NewService(analyst.DefaultServiceConfig(), client, searcher)
//	handlers := analyst.NewAgentHandlers(service)
//	analyze := analyst.NewAnalyzeHandlers(service, searcher)
//
//	v1 := router.Group("/v1")
//	analyst.RegisterRoutes(v1, handlers, analyze)
func RegisterRoutes(rg *gin.RouterGroup, handlers *AgentHandlers, analyze *AnalyzeHandlers) {
	an := rg.Group("/analyst")
	{
		// Session lifecycle
		an.POST("/sessions", handlers.HandleCreateSession)
		an.GET("/sessions/:id", handlers.HandleGetSession)
		an.POST("/sessions/:id/messages", handlers.HandlePostMessage)

		// Control loop
		an.POST("/sessions/:id/step", handlers.HandleStep)
		an.POST("/sessions/:id/run", handlers.HandleRun)
		an.POST("/sessions/:id/approve", handlers.HandleApprove)

		// Tool catalog
		an.GET("/tools", handlers.HandleListTools)

		// One-shot analysis
		an.POST("/analyze", analyze.HandleAnalyze)

		// Health checks
		an.GET("/health", handlers.HandleHealth)
		an.GET("/ready", analyze.HandleReady)
	}
}

// HandleHealth handles GET /v1/analyst/health.
func (h *AgentHandlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// HandleReady handles GET /v1/analyst/ready.
//
// Description:
//
//	Reports readiness. The service is ready as soon as it starts;
//	search_ok reflects whether a search backend was wired, which
//	degrades /analyze and the es_search tool but not the agent loop.
func (h *AnalyzeHandlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, ReadyResponse{
		Ready:    true,
		Sessions: h.svc.Store().Count(),
		SearchOK: h.searcher != nil,
	})
}
