// Package handlers provides the HTTP handlers for the newsletter service:
// the health check, readiness and version endpoints and the subscription form.
package handlers
