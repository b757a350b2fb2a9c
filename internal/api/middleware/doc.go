// Package middleware holds the gin middleware mounted in front of the
// extraction API: CORS, per-IP or global token bucket rate limiting,
// request logging and request body limits.
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.RateLimitFromConfig(cfg.RateLimit)))
package middleware
