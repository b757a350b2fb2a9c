/*
Package monitoring provides Prometheus metrics for the extraction service.

# Metrics

  - rulekit_http_*: request count, latency and sizes per route
  - rulekit_extractions_total{op,mode,status} and
    rulekit_extraction_duration_seconds{op}: rule evaluations
  - rulekit_script_evaluations_total{status}: script stages
  - rulekit_fetch_requests_total{status}: outbound fetches
  - rulekit_compiled_rules, rulekit_uptime_seconds

Metrics implements analyzer.Metrics and fetch.Recorder, so one collector
is handed to every analyzer and to the fetch client.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
