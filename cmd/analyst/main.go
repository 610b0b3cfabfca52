// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command analyst starts the Aleutian SOC analyst service.
//
// The binary runs in three modes:
//   - api: HTTP API with the investigation agent and /analyze
//   - consumer: Kafka alert consumer with LLM enrichment
//   - both: API and consumer in one process
//
// Usage:
//
//	go run ./cmd/analyst serve
//	go run ./cmd/analyst serve --mode both --port 8082
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8082/v1/analyst/health
//
//	# Create a session requiring approval before tool calls
//	curl -X POST http://localhost:8082/v1/analyst/sessions \
//	  -H "Content-Type: application/json" \
//	  -d '{"approval_mode": "manual"}'
//
//	# Ask a question and run the loop
//	curl -X POST http://localhost:8082/v1/analyst/sessions/<id>/messages \
//	  -H "Content-Type: application/json" \
//	  -d '{"content": "Any failed logins on web-01 in the last hour?"}'
//	curl -X POST http://localhost:8082/v1/analyst/sessions/<id>/run
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/AleutianSOC/pkg/logging"
	"github.com/AleutianAI/AleutianSOC/services/analyst"
	"github.com/AleutianAI/AleutianSOC/services/analyst/ingest"
	"github.com/AleutianAI/AleutianSOC/services/analyst/llm"
	"github.com/AleutianAI/AleutianSOC/services/analyst/search"
	"github.com/AleutianAI/AleutianSOC/services/analyst/tools"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagConfig string
	flagMode   string
	flagPort   int
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "analyst",
	Short: "Aleutian SOC analyst service",
	Long:  "AI-assisted SOC investigation: agent sessions, alert enrichment, and one-shot log analysis.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analyst service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	serveCmd.Flags().StringVar(&flagMode, "mode", "", "Run mode: api, consumer, or both (overrides config)")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "HTTP listen port (overrides config)")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug mode")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	level := os.Getenv("LOG_LEVEL")
	if flagDebug {
		level = "debug"
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Service: "analyst",
		LogDir:  os.Getenv("LOG_DIR"),
		JSON:    os.Getenv("LOG_JSON") == "true",
	})
	defer logger.Close()
	logger.Install()

	cfg, err := analyst.LoadAppConfig(flagConfig)
	if err != nil {
		return err
	}
	if flagMode != "" {
		cfg.RunMode = flagMode
	}
	if flagPort > 0 {
		cfg.Port = flagPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := llm.NewOpenAIClient()
	if err != nil {
		return fmt.Errorf("failed to create the LLM client: %w", err)
	}

	// The service runs degraded without a search backend rather than
	// refusing to start.
	var searcher tools.Searcher
	var indexer ingest.Indexer
	if cfg.ElasticsearchURL != "" {
		esClient, err := search.NewClient(cfg.ElasticsearchURL)
		if err != nil {
			slog.Warn("Elasticsearch not available, search disabled",
				"url", cfg.ElasticsearchURL, "error", err)
		} else {
			searcher = esClient
			indexer = esClient
		}
	}

	group, ctx := errgroup.WithContext(ctx)

	if cfg.RunMode == analyst.ModeAPI || cfg.RunMode == analyst.ModeBoth {
		svc, err := analyst.NewService(cfg.ServiceConfig(), client, searcher)
		if err != nil {
			return err
		}
		group.Go(func() error {
			return runAPI(ctx, cfg, svc, searcher)
		})
	}

	if cfg.RunMode == analyst.ModeConsumer || cfg.RunMode == analyst.ModeBoth {
		if indexer == nil {
			return fmt.Errorf("consumer mode requires an Elasticsearch backend")
		}
		consumerCfg := ingest.DefaultConfig()
		consumerCfg.Brokers = cfg.KafkaBrokers
		consumerCfg.Topic = cfg.KafkaTopic
		consumerCfg.GroupID = cfg.KafkaGroupID
		consumerCfg.OutputIndex = cfg.OutputIndex
		consumer := ingest.NewConsumer(consumerCfg, indexer, client)
		group.Go(func() error {
			slog.Info("Starting alert consumer",
				"brokers", consumerCfg.Brokers,
				"topic", consumerCfg.Topic,
				"group_id", consumerCfg.GroupID)
			return consumer.Run(ctx)
		})
	}

	return group.Wait()
}

// runAPI serves the HTTP API until ctx is cancelled, then drains.
func runAPI(ctx context.Context, cfg analyst.AppConfig, svc *analyst.Service, searcher tools.Searcher) error {
	if flagDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if flagDebug {
		router.Use(gin.Logger())
	}

	handlers := analyst.NewAgentHandlers(svc)
	analyze := analyst.NewAnalyzeHandlers(svc, searcher)

	v1 := router.Group("/v1")
	analyst.RegisterRoutes(v1, handlers, analyze)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting analyst API server",
			"address", addr,
			"mode", cfg.RunMode,
			"search_enabled", searcher != nil)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down analyst API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
