// Package logger provides a structured logging interface for xdl.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output alongside the console
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "xdl/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Fetch started")
//	logger.WithField("username", "john_doe").Info("Timeline resolved")
//	logger.WithError(err).Error("Failed to download media")
package logger
