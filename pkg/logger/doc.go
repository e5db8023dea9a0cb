// Package logger provides a structured logging interface for linkfeed.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - File output
// - Context support for request tracing
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "linkfeed/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/linkfeed.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Application started")
//	logger.WithField("username", "someuser").Info("Collection started")
//	logger.WithError(err).Error("Failed to download media")
//
// The package also provides a TestLogger that captures log messages in
// memory so tests can assert on logging behavior.
package logger
