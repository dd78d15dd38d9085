// Package redflag contains Red-Flag tests that prove the gateway refuses unsafe or
// invalid requests, end to end over a real DuckDB database.
package redflag

// This package contains Red-Flag tests organized by concern:
// - auth_test.go: missing and wrong API keys
// - query_test.go: keys outside the whitelist and hostile parameters
// - table_test.go: table names that are not plain identifiers
