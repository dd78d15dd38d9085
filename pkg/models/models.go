// Package models provides the response bodies of the querygate public API.
package models

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DBPingResponse is the body of /dbping. Version and Now are set on success,
// Error on failure.
type DBPingResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version,omitempty"`
	Now     string `json:"now,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DebugEnvResponse is the body of /debug/env. It names each value after the
// environment variable it is configured by. The password is never included.
type DebugEnvResponse struct {
	Driver      string `json:"DB_DRIVER"`
	Host        string `json:"DB_HOST"`
	Port        string `json:"DB_PORT"`
	Name        string `json:"DB_NAME"`
	User        string `json:"DB_USER"`
	SSLMode     string `json:"SSL_MODE"`
	SSLRootCert string `json:"SSL_ROOT_CERT"`
	Cluster     string `json:"CLUSTER_FLAG"`
	PasswordSet bool   `json:"DB_PASSWORD_SET"`
}
