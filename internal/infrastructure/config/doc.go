// Package config provides 12-factor configuration management for rulekit.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, timeouts, body limit)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Engine: Compiled-rule cache, global variable store, regex timeout
//   - Script: Script engine pool and limits
//   - Fetch: Outbound HTTP client used by java.ajax and document loading
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, READ_TIMEOUT, WRITE_TIMEOUT, MAX_BODY_BYTES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - RULE_CACHE_SIZE, GLOBAL_VARS_SIZE, REGEX_TIMEOUT
//   - SCRIPT_ENABLED, SCRIPT_TIMEOUT, SCRIPT_MAX_MEMORY_MB, SCRIPT_POOL_SIZE
//   - FETCH_TIMEOUT, FETCH_RETRIES, FETCH_USER_AGENT, FETCH_RATE_LIMIT
package config
