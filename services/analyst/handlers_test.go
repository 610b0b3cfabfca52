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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianSOC/services/analyst/agent"
	"github.com/AleutianAI/AleutianSOC/services/analyst/llm"
	"github.com/AleutianAI/AleutianSOC/services/analyst/search"
	"github.com/gin-gonic/gin"
)

// scriptedLLM replays responses in order, repeating the last one.
type scriptedLLM struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	i := s.calls - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

type scriptedSearcher struct {
	result *search.SearchResult
	err    error
}

func (s *scriptedSearcher) Search(ctx context.Context, index string, body map[string]any) (*search.SearchResult, error) {
	return s.result, s.err
}

func setupTestRouter(t *testing.T, client llm.Client, searcher *scriptedSearcher) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := NewService(DefaultServiceConfig(), client, searcher)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewAgentHandlers(svc), NewAnalyzeHandlers(svc, searcher))
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleCreateSession(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedLLM{}, &scriptedSearcher{result: &search.SearchResult{}})

	w := doJSON(t, router, "POST", "/v1/analyst/sessions", CreateSessionRequest{ApprovalMode: "manual"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	var snap agent.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if snap.ApprovalMode != agent.ApprovalManual {
		t.Errorf("expected manual mode, got %q", snap.ApprovalMode)
	}
	if snap.ID == "" {
		t.Error("expected a session ID")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID echoed")
	}
}

func TestHandleCreateSessionEmptyBody(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedLLM{}, &scriptedSearcher{result: &search.SearchResult{}})

	req, _ := http.NewRequest("POST", "/v1/analyst/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	var snap agent.Snapshot
	json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.ApprovalMode != agent.ApprovalAuto {
		t.Errorf("expected default auto mode, got %q", snap.ApprovalMode)
	}
}

func TestHandleGetSessionNotFound(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedLLM{}, &scriptedSearcher{result: &search.SearchResult{}})

	w := doJSON(t, router, "GET", "/v1/analyst/sessions/nope", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "SESSION_NOT_FOUND" {
		t.Errorf("unexpected error code: %q", resp.Code)
	}
}

func TestHandlePostMessage(t *testing.T) {
	router, svc := setupTestRouter(t, &scriptedLLM{}, &scriptedSearcher{result: &search.SearchResult{}})
	s := svc.Store().Create("")

	w := doJSON(t, router, "POST", "/v1/analyst/sessions/"+s.ID+"/messages",
		PostMessageRequest{Content: "investigate web-01"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var snap agent.Snapshot
	json.Unmarshal(w.Body.Bytes(), &snap)
	if len(snap.Messages) != 1 || snap.Messages[0].Role != agent.RoleUser {
		t.Errorf("expected one user message, got %v", snap.Messages)
	}
}

func TestHandlePostMessageValidation(t *testing.T) {
	router, svc := setupTestRouter(t, &scriptedLLM{}, &scriptedSearcher{result: &search.SearchResult{}})
	s := svc.Store().Create("")

	tests := []struct {
		name string
		path string
		body any
		code int
	}{
		{name: "missing content", path: "/v1/analyst/sessions/" + s.ID + "/messages", body: map[string]any{}, code: http.StatusBadRequest},
		{name: "unknown session", path: "/v1/analyst/sessions/nope/messages", body: PostMessageRequest{Content: "x"}, code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, "POST", tt.path, tt.body)
			if w.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestHandleStepAndRun(t *testing.T) {
	client := &scriptedLLM{responses: []string{
		`{"thought": "done", "action": "final", "input": {"answer": "nothing found"}}`,
	}}
	router, svc := setupTestRouter(t, client, &scriptedSearcher{result: &search.SearchResult{}})
	s := svc.Store().Create("")

	w := doJSON(t, router, "POST", "/v1/analyst/sessions/"+s.ID+"/step", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var step agent.StepResult
	json.Unmarshal(w.Body.Bytes(), &step)
	if step.Exec == nil || step.Exec.Status != agent.ExecFinal {
		t.Fatalf("expected final exec, got %+v", step.Exec)
	}
	if !step.Session.Done {
		t.Error("expected done snapshot")
	}

	// Running a done session returns a single done step.
	w = doJSON(t, router, "POST", "/v1/analyst/sessions/"+s.ID+"/run", RunRequest{MaxSteps: 3})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var run agent.RunResult
	json.Unmarshal(w.Body.Bytes(), &run)
	if len(run.Steps) != 1 || run.Steps[0].Status != agent.StepDone {
		t.Errorf("expected single done step, got %+v", run.Steps)
	}
}

func TestHandleApproveFlow(t *testing.T) {
	client := &scriptedLLM{responses: []string{
		`{"action": "sleep", "input": {"seconds": 0}}`,
		`{"action": "final", "input": {"answer": "ok"}}`,
	}}
	router, svc := setupTestRouter(t, client, &scriptedSearcher{result: &search.SearchResult{}})
	s := svc.Store().Create(agent.ApprovalManual)

	w := doJSON(t, router, "POST", "/v1/analyst/sessions/"+s.ID+"/run", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var run agent.RunResult
	json.Unmarshal(w.Body.Bytes(), &run)
	if run.Session.PendingAction == nil {
		t.Fatal("expected run to stop at the approval gate")
	}

	w = doJSON(t, router, "POST", "/v1/analyst/sessions/"+s.ID+"/approve", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var exec agent.ExecResult
	json.Unmarshal(w.Body.Bytes(), &exec)
	if exec.Status != agent.ExecExecuted {
		t.Fatalf("expected executed, got %q", exec.Status)
	}

	// Approving again reports nothing pending.
	w = doJSON(t, router, "POST", "/v1/analyst/sessions/"+s.ID+"/approve", nil)
	json.Unmarshal(w.Body.Bytes(), &exec)
	if exec.Status != agent.ExecNoPending {
		t.Errorf("expected no_pending, got %q", exec.Status)
	}
}

func TestHandleListTools(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedLLM{}, &scriptedSearcher{result: &search.SearchResult{}})

	w := doJSON(t, router, "GET", "/v1/analyst/tools", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp ToolsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	names := make([]string, len(resp.Tools))
	for i, def := range resp.Tools {
		names[i] = def.Name
	}
	if fmt.Sprint(names) != "[es_search http_get sleep]" {
		t.Errorf("unexpected tool catalog: %v", names)
	}
}

func TestHandleAnalyze(t *testing.T) {
	client := &scriptedLLM{responses: []string{
		`{"query": {"term": {"host.name": "web-01"}}}`,
		"Brute force suspected on web-01.",
	}}
	searcher := &scriptedSearcher{result: &search.SearchResult{
		Total: 1,
		Hits: []map[string]any{
			{"_source": map[string]any{
				"@timestamp": "2026-01-01T00:00:00Z",
				"host":       map[string]any{"name": "web-01"},
				"message":    "Failed password",
			}},
		},
	}}
	router, _ := setupTestRouter(t, client, searcher)

	w := doJSON(t, router, "POST", "/v1/analyst/analyze",
		AnalyzeRequest{Query: "failed logins on web-01"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp AnalyzeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("unexpected total: %d", resp.Total)
	}
	if resp.Insights != "Brute force suspected on web-01." {
		t.Errorf("unexpected insights: %q", resp.Insights)
	}
	if len(resp.Samples) != 1 || resp.Samples[0].Host != "web-01" {
		t.Errorf("unexpected samples: %v", resp.Samples)
	}
	if _, ok := resp.DSL["query"]; !ok {
		t.Error("expected executed DSL echoed")
	}
}

func TestHandleAnalyzeMissingQuery(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedLLM{}, &scriptedSearcher{result: &search.SearchResult{}})

	w := doJSON(t, router, "POST", "/v1/analyst/analyze", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandleAnalyzeSearchDownAllowPartial(t *testing.T) {
	client := &scriptedLLM{err: errors.New("provider down")}
	searcher := &scriptedSearcher{err: errors.New("es down")}
	router, _ := setupTestRouter(t, client, searcher)

	w := doJSON(t, router, "POST", "/v1/analyst/analyze",
		AnalyzeRequest{Query: "anything odd?"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected degraded 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp AnalyzeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 0 || len(resp.Samples) != 0 {
		t.Errorf("expected empty results, got %+v", resp)
	}
	if !strings.Contains(resp.Insights, "No matching events found") {
		t.Errorf("unexpected insights: %q", resp.Insights)
	}
}

func TestHandleHealthAndReady(t *testing.T) {
	router, svc := setupTestRouter(t, &scriptedLLM{}, &scriptedSearcher{result: &search.SearchResult{}})
	svc.Store().Create("")

	w := doJSON(t, router, "GET", "/v1/analyst/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var health HealthResponse
	json.Unmarshal(w.Body.Bytes(), &health)
	if health.Status != "healthy" {
		t.Errorf("unexpected health status: %q", health.Status)
	}

	w = doJSON(t, router, "GET", "/v1/analyst/ready", nil)
	var ready ReadyResponse
	json.Unmarshal(w.Body.Bytes(), &ready)
	if !ready.Ready || !ready.SearchOK {
		t.Errorf("unexpected readiness: %+v", ready)
	}
	if ready.Sessions != 1 {
		t.Errorf("expected 1 session, got %d", ready.Sessions)
	}
}
