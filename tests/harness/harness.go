// Package harness starts a complete querygate gateway over a seeded DuckDB file
// for the Green-Flag and Red-Flag suites.
package harness

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/canonica-labs/querygate/internal/auth"
	"github.com/canonica-labs/querygate/internal/catalog"
	"github.com/canonica-labs/querygate/internal/config"
	"github.com/canonica-labs/querygate/internal/database"
	"github.com/canonica-labs/querygate/internal/gateway"
	"github.com/canonica-labs/querygate/internal/observability"
	"github.com/canonica-labs/querygate/internal/query"
)

// APIKey is the key every harness gateway accepts.
const APIKey = "harness-key"

// Seed creates public.detail and main.orders. Row 6 sits exactly on
// 2025-02-01 00:00 UTC so range tests can pin both edges of [from, to).
var Seed = []string{
	`CREATE SCHEMA IF NOT EXISTS public`,
	`CREATE TABLE public.detail (id INTEGER, name VARCHAR, updated_at TIMESTAMPTZ)`,
	`INSERT INTO public.detail VALUES
		(1, 'alpha',       TIMESTAMPTZ '2025-01-05 00:00:00+00'),
		(2, 'beta, gamma', TIMESTAMPTZ '2025-01-20 00:00:00+00'),
		(3, 'delta',       TIMESTAMPTZ '2025-02-10 00:00:00+00'),
		(4, 'epsilon',     NULL),
		(5, 'zeta',        TIMESTAMPTZ '2024-12-15 00:00:00+00'),
		(6, 'eta',         TIMESTAMPTZ '2025-02-01 00:00:00+00')`,
	`CREATE TABLE orders (id INTEGER, item VARCHAR)`,
	`INSERT INTO orders VALUES (1, 'apple'), (2, 'pear'), (3, 'plum')`,
}

// Gateway is a running test gateway.
type Gateway struct {
	Server *httptest.Server
	Config *config.Config
	DB     *database.SQLConnector
}

// Start seeds a DuckDB file and serves a gateway over it until the test ends.
func Start(t testing.TB) *Gateway {
	t.Helper()

	path := filepath.Join(t.TempDir(), "querygate.duckdb")
	seed(t, path)

	cfg := config.DefaultConfig()
	cfg.Auth.APIKey = APIKey
	cfg.Database.Driver = database.DriverDuckDB
	cfg.Database.DuckDBPath = path
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid harness config: %v", err)
	}

	db, err := database.Open(database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN(),
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	gw, err := gateway.New(
		auth.NewStaticKeyAuthenticator(cfg.Auth.APIKey),
		query.NewResolver(catalog.Default()),
		db,
		observability.NewNopLogger(),
		gateway.ConfigFrom(cfg),
	)
	if err != nil {
		db.Close()
		t.Fatalf("failed to create gateway: %v", err)
	}

	srv := httptest.NewServer(gw)
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})

	return &Gateway{Server: srv, Config: cfg, DB: db}
}

func seed(t testing.TB, path string) {
	t.Helper()

	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("failed to open seed database: %v", err)
	}
	defer db.Close()

	for _, stmt := range Seed {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   string
}

// Get requests path, sending key in X-API-Key when it is not empty.
func (g *Gateway) Get(t testing.TB, path, key string) Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, g.Server.URL+path, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := g.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: string(body)}
}
