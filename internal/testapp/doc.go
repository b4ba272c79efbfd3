// Package testapp starts an isolated newsletter server for integration tests.
//
// Every call to Spawn gets
//   - a listener on an OS assigned loopback port
//   - a freshly created postgres database (test_<uuid>) with all migrations applied
//   - the server running in a detached goroutine, sharing the database pool with the test
//   - its own http.Client
//
// The database is dropped and the server stopped by t.Cleanup, including when the
// test fails or panics. Set KEEP_TEST_DATABASES=true to keep the databases for
// inspection and ENABLE_SERVER_LOGS=true to see the server logs:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration
//
// The postgres server is addressed with the usual DB_* variables (see internal/config).
package testapp
