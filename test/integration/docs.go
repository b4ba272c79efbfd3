// Package integration contains end-to-end tests for the newsletter server.
//
// These tests drive the server through its public HTTP API and then check the
// database directly to confirm what was persisted. Each test gets its own server
// on a random port and its own freshly migrated database (see internal/testapp),
// so the tests run in parallel.
//
// A postgres server is required:
//
//	DB_HOST=localhost DB_PORT=5432 DB_USER=postgres DB_PASSWORD=password go test -tags=integration ./test/integration
//
// or let the tests start one in docker:
//
//	TEST_POSTGRES_CONTAINER=true go test -tags=integration ./test/integration
package integration
