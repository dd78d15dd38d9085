// Package api defines the public HTTP surface of the querygate gateway.
package api

// API endpoints
const (
	EndpointHealth   = "/health"
	EndpointQuery    = "/query"
	EndpointQueryCSV = "/query.csv"
	EndpointTableCSV = "/table/{name}.csv"
	EndpointDebugEnv = "/debug/env"
	EndpointDBPing   = "/dbping"
)

// Query parameters
const (
	ParamQuery  = "q"
	ParamLimit  = "limit"
	ParamOffset = "offset"
	ParamFrom   = "from"
	ParamTo     = "to"
)

// HTTP headers
const (
	HeaderContentType = "Content-Type"
	HeaderAPIKey      = "X-API-Key"
	HeaderRequestID   = "X-Request-ID"
)

// Content types
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// TablePath returns the export path for a table.
func TablePath(name string) string {
	return "/table/" + name + ".csv"
}
