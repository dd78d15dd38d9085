// Package greenflag contains Green-Flag tests that prove the gateway succeeds on
// explicitly allowed requests, end to end over a real DuckDB database.
package greenflag

// This package contains Green-Flag tests organized by endpoint:
// - health_test.go: liveness without credentials or database access
// - query_test.go: whitelisted queries as JSON, pagination and time ranges
// - export_test.go: CSV rendering and single table export
