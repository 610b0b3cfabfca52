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
	"testing"
	"time"

	"github.com/AleutianAI/AleutianSOC/services/analyst/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()

	assert.Equal(t, "auto", cfg.DefaultApprovalMode)
	assert.Equal(t, 5, cfg.MaxRunSteps)
	assert.Equal(t, 15*time.Second, cfg.ToolTimeout)
	assert.Equal(t, "alerts-enriched", cfg.SearchIndex)
	assert.True(t, cfg.AllowPartial)
	assert.NoError(t, cfg.Validate())
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServiceConfig)
	}{
		{name: "zero steps", mutate: func(c *ServiceConfig) { c.MaxRunSteps = 0 }},
		{name: "zero timeout", mutate: func(c *ServiceConfig) { c.ToolTimeout = 0 }},
		{name: "empty index", mutate: func(c *ServiceConfig) { c.SearchIndex = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServiceConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewServiceRegistersTools(t *testing.T) {
	svc, err := NewService(DefaultServiceConfig(), &scriptedLLM{},
		&scriptedSearcher{result: &search.SearchResult{}})
	require.NoError(t, err)

	assert.Equal(t, []string{"es_search", "http_get", "sleep"}, svc.Registry().Names())
	assert.NotNil(t, svc.Store())
	assert.NotNil(t, svc.Loop())
	assert.NotNil(t, svc.Client())
}

func TestNewServiceWithoutSearcherDegrades(t *testing.T) {
	svc, err := NewService(DefaultServiceConfig(), &scriptedLLM{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"http_get", "sleep"}, svc.Registry().Names())
}

func TestNewServiceInvalidConfig(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.MaxRunSteps = -1

	_, err := NewService(cfg, &scriptedLLM{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid service config")
}
