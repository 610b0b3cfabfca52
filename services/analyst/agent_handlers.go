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
	"errors"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianSOC/services/analyst/agent"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AgentHandlers contains the HTTP handlers for the investigation agent.
//
// Thread Safety: AgentHandlers is safe for concurrent use.
type AgentHandlers struct {
	svc *Service
}

// NewAgentHandlers creates handlers for the investigation agent.
//
// Inputs:
//
//	svc - The analyst service. Must not be nil.
//
// Outputs:
//
//	*AgentHandlers - The configured handlers.
func NewAgentHandlers(svc *Service) *AgentHandlers {
	return &AgentHandlers{svc: svc}
}

// HandleCreateSession handles POST /v1/analyst/sessions.
//
// Description:
//
//	Creates a new agent session. The body is optional; an empty or
//	unrecognized approval_mode falls back to the service default.
//
// Response:
//
//	201 Created: agent.Snapshot
//	400 Bad Request: Malformed body
func (h *AgentHandlers) HandleCreateSession(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateSession")

	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request body",
				Code:  "INVALID_REQUEST",
			})
			return
		}
	}

	session := h.svc.Store().Create(agent.ApprovalMode(req.ApprovalMode))
	logger.Info("Session created",
		"session_id", session.ID,
		"approval_mode", string(session.ApprovalMode))

	c.JSON(http.StatusCreated, session.Snapshot())
}

// HandleGetSession handles GET /v1/analyst/sessions/:id.
//
// Response:
//
//	200 OK: agent.Snapshot
//	404 Not Found: Unknown session
func (h *AgentHandlers) HandleGetSession(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetSession")

	session, err := h.svc.Store().Get(c.Param("id"))
	if err != nil {
		respondSessionError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, session.Snapshot())
}

// HandlePostMessage handles POST /v1/analyst/sessions/:id/messages.
//
// Description:
//
//	Appends a user message to the session dialogue. The message is
//	recorded only; planning happens on the next step or run call.
//
// Response:
//
//	200 OK: agent.Snapshot
//	400 Bad Request: Missing or empty content
//	404 Not Found: Unknown session
func (h *AgentHandlers) HandlePostMessage(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandlePostMessage")

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	session, err := h.svc.Store().AppendUserMessage(c.Param("id"), req.Content)
	if err != nil {
		if errors.Is(err, agent.ErrEmptyContent) {
			logger.Warn("Empty message content")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Content is required",
				Code:  "EMPTY_CONTENT",
			})
			return
		}
		respondSessionError(c, logger, err)
		return
	}

	logger.Info("Message appended",
		"session_id", session.ID,
		"content_len", len(req.Content))

	c.JSON(http.StatusOK, session.Snapshot())
}

// HandleStep handles POST /v1/analyst/sessions/:id/step.
//
// Description:
//
//	Advances the session by exactly one plan-act cycle. Completed
//	sessions and sessions awaiting approval return without invoking
//	the planner.
//
// Response:
//
//	200 OK: agent.StepResult
//	404 Not Found: Unknown session
func (h *AgentHandlers) HandleStep(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleStep")

	result, err := h.svc.Loop().Step(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, logger, err)
		return
	}

	logger.Info("Step completed",
		"session_id", c.Param("id"),
		"status", result.Status)

	c.JSON(http.StatusOK, result)
}

// HandleRun handles POST /v1/analyst/sessions/:id/run.
//
// Description:
//
//	Steps the session repeatedly until it completes, an approval gate
//	is hit, or the step bound is reached. Returns the ordered step
//	trace.
//
// Response:
//
//	200 OK: agent.RunResult
//	400 Bad Request: Malformed body
//	404 Not Found: Unknown session
func (h *AgentHandlers) HandleRun(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRun")

	var req RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request body",
				Code:  "INVALID_REQUEST",
			})
			return
		}
	}

	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = h.svc.Config().MaxRunSteps
	}

	result, err := h.svc.Loop().Run(c.Request.Context(), c.Param("id"), maxSteps)
	if err != nil {
		respondSessionError(c, logger, err)
		return
	}

	logger.Info("Run completed",
		"session_id", c.Param("id"),
		"steps", len(result.Steps))

	c.JSON(http.StatusOK, result)
}

// HandleApprove handles POST /v1/analyst/sessions/:id/approve.
//
// Description:
//
//	Executes the session's pending action, bypassing the approval
//	gate. A session with nothing pending returns a no_pending result
//	rather than an error.
//
// Response:
//
//	200 OK: agent.ExecResult
//	404 Not Found: Unknown session
func (h *AgentHandlers) HandleApprove(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleApprove")

	result, err := h.svc.Loop().Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSessionError(c, logger, err)
		return
	}

	logger.Info("Approval processed",
		"session_id", c.Param("id"),
		"status", result.Status)

	c.JSON(http.StatusOK, result)
}

// HandleListTools handles GET /v1/analyst/tools.
//
// Response:
//
//	200 OK: ToolsResponse
func (h *AgentHandlers) HandleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, ToolsResponse{
		Tools: h.svc.Registry().Definitions(),
	})
}

// respondSessionError maps store errors onto HTTP responses.
func respondSessionError(c *gin.Context, logger *slog.Logger, err error) {
	if errors.Is(err, agent.ErrSessionNotFound) {
		logger.Warn("Session not found", "session_id", c.Param("id"))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Session not found",
			Code:  "SESSION_NOT_FOUND",
		})
		return
	}

	logger.Error("Session operation failed", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "Internal server error",
		Code:  "INTERNAL_ERROR",
	})
}

// getOrCreateRequestID returns the X-Request-ID header, generating one
// when absent, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
