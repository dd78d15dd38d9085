// Package database is the gateway's only way to reach the database.
//
// A Connector hands out one Conn per request; the caller must Close it on every path.
// Drivers are the standard database/sql ones: lib/pq for PostgreSQL-compatible servers
// (CockroachDB included) and go-duckdb for local files.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"sync"
	"time"

	_ "github.com/lib/pq"               // PostgreSQL wire protocol driver
	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// DefaultPingQuery reports the server version and clock.
const DefaultPingQuery = "SELECT version() AS version, now() AS now"

// ResultSet is a fully read query result.
type ResultSet struct {
	// Columns are in the order the driver reported them.
	Columns []string

	// Rows hold one value per column.
	Rows [][]any
}

// RowCount returns the number of rows.
func (rs *ResultSet) RowCount() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Conn is a single checked-out database connection.
type Conn interface {
	// Query runs sql with positional args and reads every row.
	Query(ctx context.Context, sql string, args ...any) (*ResultSet, error)

	// Close returns the connection to the pool.
	Close() error
}

// Connector hands out connections.
type Connector interface {
	// Connect checks out one connection. The caller owns it until Close.
	Connect(ctx context.Context) (Conn, error)

	// Ping resolves the database host and asks the server for its version and time.
	Ping(ctx context.Context) (*PingResult, error)

	// Close releases the pool.
	Close() error
}

// PingResult is the outcome of a successful Ping.
type PingResult struct {
	Version string
	Now     string
	// Addrs are the addresses the host resolved to. Empty for file databases.
	Addrs []string
}

// Options configures an SQLConnector.
type Options struct {
	// Driver is DriverPostgres or DriverDuckDB.
	Driver string

	// DSN is passed to sql.Open unchanged.
	DSN string

	// Host is resolved by Ping before connecting. Empty skips the DNS step.
	Host string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// PingQuery overrides DefaultPingQuery. It must return two columns.
	PingQuery string
}

// SQLConnector implements Connector over a *sql.DB pool.
type SQLConnector struct {
	mu        sync.RWMutex
	db        *sql.DB
	host      string
	pingQuery string
	closed    bool
}

// Open creates a connector. No connection is made until the first Connect or Ping.
func Open(opts Options) (*SQLConnector, error) {
	if opts.Driver == "" {
		return nil, fmt.Errorf("database: driver is required")
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", opts.Driver, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingQuery := opts.PingQuery
	if pingQuery == "" {
		pingQuery = DefaultPingQuery
	}

	return &SQLConnector{
		db:        db,
		host:      opts.Host,
		pingQuery: pingQuery,
	}, nil
}

// Connect checks out one connection from the pool.
func (c *SQLConnector) Connect(ctx context.Context) (Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("database: connector is closed")
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}
	return &sqlConn{conn: conn}, nil
}

// Ping resolves the configured host, then runs the ping query on a fresh checkout.
func (c *SQLConnector) Ping(ctx context.Context) (*PingResult, error) {
	result := &PingResult{}

	if c.host != "" {
		addrs, err := net.DefaultResolver.LookupHost(ctx, c.host)
		if err != nil {
			return nil, fmt.Errorf("database: resolve %s: %w", c.host, err)
		}
		result.Addrs = addrs
	}

	conn, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rs, err := conn.Query(ctx, c.pingQuery)
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 || len(rs.Rows[0]) < 2 {
		return nil, fmt.Errorf("database: ping query returned no row")
	}

	result.Version = fmt.Sprint(rs.Rows[0][0])
	result.Now = formatValue(rs.Rows[0][1])
	return result, nil
}

// Stats returns pool statistics.
func (c *SQLConnector) Stats() sql.DBStats {
	return c.db.Stats()
}

// Close closes the pool. Close is idempotent.
func (c *SQLConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

type sqlConn struct {
	conn *sql.Conn
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("database: context error: %w", err)
	}

	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database: query failed: %w", err)
	}
	defer rows.Close()

	return collect(ctx, rows)
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}

// collect reads every row. Byte slices become strings so text columns that a driver
// reports as raw bytes serialize as text.
func collect(ctx context.Context, rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("database: failed to get columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("database: context error during row iteration: %w", err)
		}

		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("database: failed to scan row: %w", err)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		resultRows = append(resultRows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: error during row iteration: %w", err)
	}

	return &ResultSet{Columns: columns, Rows: resultRows}, nil
}

func formatValue(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
