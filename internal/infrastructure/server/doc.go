// Package server assembles the rulekit HTTP service: logger, metrics
// registry, tracer, engine, middleware chain and routes.
package server
