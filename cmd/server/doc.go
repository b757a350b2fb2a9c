// Package main is the entry point for the rulekit extraction service.
//
// The server exposes the rule engine over JSON:
//   - POST /v1/extract: evaluate one rule against a document
//   - POST /v1/sources/extract: apply a rule set and return records
//   - GET /health, GET /v1/stats, GET /metrics
//
// Configuration:
//   - Environment variables (12-factor, see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000
//	./server -dev -scripts=false
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
