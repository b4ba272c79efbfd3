// Package server provides the HTTP server for the newsletter service.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// Routes:
//   - GET /health_check (liveness, empty body)
//   - GET /health/ready (database connectivity)
//   - GET /version
//   - GET /metrics
//   - POST /subscriptions (url-encoded name and email)
//
// middleware is in internal/server/middleware, handlers in internal/server/handlers
package server
