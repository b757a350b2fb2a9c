// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger obtained with Component, so every line
// carries the emitting package (analyzer, fetch, script, server).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	log := logger.Component("fetch")
//	log.Debug("request sent", zap.String("url", u))
package logging
