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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Run modes for the analyst binary.
const (
	ModeAPI      = "api"
	ModeConsumer = "consumer"
	ModeBoth     = "both"
)

// AppConfig is the full runtime configuration for the analyst binary,
// covering the HTTP API, the agent service, and the Kafka consumer.
type AppConfig struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// RunMode selects which components start: api, consumer, or both.
	RunMode string `yaml:"run_mode"`

	// ElasticsearchURL is the search backend address. Empty disables
	// the search backend; the service starts degraded.
	ElasticsearchURL string `yaml:"elasticsearch_url"`

	// KafkaBrokers are the bootstrap broker addresses.
	KafkaBrokers []string `yaml:"kafka_brokers"`

	// KafkaTopic is the alert topic to consume.
	KafkaTopic string `yaml:"kafka_topic"`

	// KafkaGroupID is the consumer group id.
	KafkaGroupID string `yaml:"kafka_group_id"`

	// OutputIndex receives enriched alert documents.
	OutputIndex string `yaml:"output_index"`

	// SearchIndex is the default index for /analyze.
	SearchIndex string `yaml:"search_index"`

	// DefaultApprovalMode is applied to sessions created without a mode.
	DefaultApprovalMode string `yaml:"default_approval_mode"`

	// MaxRunSteps bounds one run invocation.
	MaxRunSteps int `yaml:"max_run_steps"`

	// ToolTimeoutSeconds bounds a single tool execution.
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds"`

	// AllowPartial keeps the 200 contract on /analyze when the search
	// backend is down.
	AllowPartial bool `yaml:"allow_partial"`
}

// DefaultAppConfig returns the built-in defaults.
func DefaultAppConfig() AppConfig {
	svc := DefaultServiceConfig()
	return AppConfig{
		Port:                8082,
		RunMode:             ModeAPI,
		ElasticsearchURL:    "http://elasticsearch:9200",
		KafkaBrokers:        []string{"kafka:29092"},
		KafkaTopic:          "syslog-alerts",
		KafkaGroupID:        "ai-analyst",
		OutputIndex:         "alerts-enriched",
		SearchIndex:         svc.SearchIndex,
		DefaultApprovalMode: svc.DefaultApprovalMode,
		MaxRunSteps:         svc.MaxRunSteps,
		ToolTimeoutSeconds:  int(svc.ToolTimeout / time.Second),
		AllowPartial:        svc.AllowPartial,
	}
}

// LoadAppConfig builds the runtime configuration.
//
// Description:
//
//	Starts from defaults, overlays the YAML file at path if one
//	exists, then applies environment overrides. A missing file is not
//	an error; a malformed one is.
//
// Inputs:
//
//	path - Optional YAML config path. Empty skips the file step.
//
// Outputs:
//
//	AppConfig - The merged configuration.
//	error - Non-nil if the file is unreadable or invalid.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read the config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse the config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *AppConfig) applyEnv() {
	if v := os.Getenv("API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("RUN_MODE"); v != "" {
		c.RunMode = v
	}
	if v := os.Getenv("ELASTICSEARCH_URL"); v != "" {
		c.ElasticsearchURL = v
	}
	if v := os.Getenv("KAFKA_BOOTSTRAP"); v != "" {
		brokers := strings.Split(v, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		c.KafkaBrokers = brokers
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.KafkaTopic = v
	}
	if v := os.Getenv("KAFKA_GROUP_ID"); v != "" {
		c.KafkaGroupID = v
	}
	if v := os.Getenv("OUTPUT_INDEX"); v != "" {
		c.OutputIndex = v
	}
	if v := os.Getenv("SEARCH_INDEX"); v != "" {
		c.SearchIndex = v
	}
	if v := os.Getenv("AGENT_APPROVAL_MODE"); v != "" {
		c.DefaultApprovalMode = v
	}
	if v := os.Getenv("AGENT_MAX_RUN_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRunSteps = n
		}
	}
	if v := os.Getenv("ANALYZE_ALLOW_PARTIAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AllowPartial = b
		}
	}
}

// Validate checks the merged configuration.
func (c *AppConfig) Validate() error {
	switch c.RunMode {
	case ModeAPI, ModeConsumer, ModeBoth:
	default:
		return fmt.Errorf("run_mode must be api, consumer, or both, got %q", c.RunMode)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in (0, 65535], got %d", c.Port)
	}
	svc := c.ServiceConfig()
	return svc.Validate()
}

// ServiceConfig projects the agent-facing subset of the configuration.
func (c *AppConfig) ServiceConfig() ServiceConfig {
	svc := DefaultServiceConfig()
	svc.DefaultApprovalMode = c.DefaultApprovalMode
	if c.MaxRunSteps > 0 {
		svc.MaxRunSteps = c.MaxRunSteps
	}
	if c.ToolTimeoutSeconds > 0 {
		svc.ToolTimeout = time.Duration(c.ToolTimeoutSeconds) * time.Second
	}
	if c.SearchIndex != "" {
		svc.SearchIndex = c.SearchIndex
	}
	svc.AllowPartial = c.AllowPartial
	return svc
}
