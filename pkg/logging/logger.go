// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging setup for Aleutian SOC
// components.
//
// Built on log/slog with multi-destination output: stderr for operators
// (text by default) and an optional JSON log file for ingestion. Every
// entry carries a "service" attribute so aggregated logs can be
// filtered by component.
//
// Basic usage:
//
//	logger := logging.New(logging.Config{Service: "analyst"})
//	defer logger.Close()
//	logger.Install()
//
// Install makes the logger the slog default, so package-level
// slog.Info/Warn/Error calls throughout the services flow through it.
//
// This package does NOT redact sensitive data; callers must keep
// tokens and PII out of log attributes.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config configures logger construction. The zero value logs Info and
// above to stderr as text.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string

	// Service is stamped on every entry as the "service" attribute.
	Service string

	// LogDir enables an additional JSON log file named
	// {service}_{YYYY-MM-DD}.log in the given directory. The directory
	// is created if absent. File logging failures are ignored; stderr
	// output always works.
	LogDir string

	// JSON switches stderr output to JSON. File output is always JSON.
	JSON bool
}

// Logger wraps slog with file lifecycle management.
//
// Thread Safety: Logger is safe for concurrent use; Close must not race
// with in-flight logging on the file destination.
type Logger struct {
	slog *slog.Logger
	file *os.File
}

// New creates a logger per the configuration.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(config.Level)}

	var stderrHandler slog.Handler
	if config.JSON {
		stderrHandler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		stderrHandler = slog.NewTextHandler(os.Stderr, opts)
	}
	handlers := []slog.Handler{stderrHandler}

	l := &Logger{}
	if config.LogDir != "" {
		if file := openLogFile(config.LogDir, config.Service); file != nil {
			l.file = file
			handlers = append(handlers, slog.NewJSONHandler(file, opts))
		}
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = &multiHandler{handlers: handlers}
	}
	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	l.slog = slog.New(handler)
	return l
}

// Slog returns the underlying slog logger.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Install makes this logger the process-wide slog default.
func (l *Logger) Install() { slog.SetDefault(l.slog) }

// With returns a child slog logger carrying extra attributes.
func (l *Logger) With(args ...any) *slog.Logger { return l.slog.With(args...) }

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// parseLevel maps a level name onto slog, defaulting to Info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLogFile opens the dated service log file, returning nil on any
// failure so logging degrades to stderr only.
func openLogFile(dir, service string) *os.File {
	if service == "" {
		service = "aleutian"
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil
	}
	return file
}
