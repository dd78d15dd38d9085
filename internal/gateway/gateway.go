// Package gateway is the HTTP front of querygate.
//
// Protected endpoints authenticate before reading any parameter, resolve the request
// against the catalog, check out exactly one database connection for the duration of
// the request and release it on every path.
package gateway

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/canonica-labs/querygate/internal/auth"
	"github.com/canonica-labs/querygate/internal/config"
	"github.com/canonica-labs/querygate/internal/database"
	"github.com/canonica-labs/querygate/internal/observability"
	"github.com/canonica-labs/querygate/internal/query"
	"github.com/canonica-labs/querygate/pkg/api"
)

// Config holds the gateway settings that are read on every request.
type Config struct {
	// AuthHeader is the header carrying the API key.
	AuthHeader string

	Limits config.LimitsConfig

	// DebugEndpoints registers /debug/env.
	DebugEndpoints bool

	// Database is echoed by /debug/env without the password.
	Database config.DatabaseConfig
}

// ConfigFrom derives the gateway Config from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		AuthHeader:     cfg.Auth.Header,
		Limits:         cfg.Limits,
		DebugEndpoints: cfg.Server.DebugEndpoints,
		Database:       cfg.Database,
	}
}

// Gateway serves the querygate HTTP API.
type Gateway struct {
	auth     auth.Authenticator
	resolver *query.Resolver
	db       database.Connector
	log      *logrus.Logger
	requests observability.RequestLogger
	cfg      Config
	router   chi.Router
}

// New creates a Gateway. Every dependency is required.
func New(authenticator auth.Authenticator, resolver *query.Resolver, db database.Connector, log *logrus.Logger, cfg Config) (*Gateway, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("gateway: authenticator is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("gateway: resolver is required")
	}
	if db == nil {
		return nil, fmt.Errorf("gateway: database connector is required")
	}
	if log == nil {
		return nil, fmt.Errorf("gateway: logger is required")
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = auth.DefaultHeader
	}
	if cfg.Limits.Max <= 0 {
		d := config.DefaultConfig()
		cfg.Limits = d.Limits
	}

	g := &Gateway{
		auth:     authenticator,
		resolver: resolver,
		db:       db,
		log:      log,
		requests: observability.NewRequestLogger(log),
		cfg:      cfg,
	}
	g.router = g.routes()
	return g, nil
}

func (g *Gateway) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(g.accessLogMiddleware)
	r.Use(g.recoveryMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("Not Found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method Not Allowed"))
	})

	r.Get(api.EndpointHealth, g.handleHealth)
	r.Get(api.EndpointDBPing, g.handleDBPing)
	if g.cfg.DebugEndpoints {
		r.Get(api.EndpointDebugEnv, g.handleDebugEnv)
	}

	r.Group(func(r chi.Router) {
		r.Use(g.requireKey)
		r.Get(api.EndpointQuery, g.handleQuery(formatJSON))
		r.Get(api.EndpointQueryCSV, g.handleQuery(formatCSV))
		r.Get(api.EndpointTableCSV, g.handleTable)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}
