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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the control loop. Registered on the default
// registry and exposed via the service's /metrics endpoint.
var (
	metricSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analyst_agent_steps_total",
		Help: "Agent steps taken, by execution status.",
	}, []string{"status"})

	metricStepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "analyst_agent_step_duration_seconds",
		Help:    "Wall-clock duration of one agent step.",
		Buckets: prometheus.DefBuckets,
	})

	metricParseOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analyst_agent_parse_outcomes_total",
		Help: "Provider response parse outcomes (strict, embedded, non_json).",
	}, []string{"outcome"})

	metricPlannerFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analyst_agent_planner_fallbacks_total",
		Help: "Planning cycles that fell back to a heuristic final answer.",
	})

	metricToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analyst_tool_invocations_total",
		Help: "Tool executions, by tool name and outcome.",
	}, []string{"tool", "outcome"})
)
