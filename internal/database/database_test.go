package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T, host string) *SQLConnector {
	t.Helper()

	c, err := Open(Options{
		Driver:       "sqlite",
		DSN:          ":memory:",
		Host:         host,
		MaxOpenConns: 2,
		PingQuery:    "SELECT sqlite_version() AS version, '2025-01-01T00:00:00Z' AS now",
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestQuery_CollectsColumnsInOrder(t *testing.T) {
	c := openSQLite(t, "")
	ctx := context.Background()

	conn, err := c.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close()

	rs, err := conn.Query(ctx, "SELECT 1 AS id, 'a' AS name UNION ALL SELECT 2, 'b, c'")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, rs.Columns)
	assert.Equal(t, [][]any{{int64(1), "a"}, {int64(2), "b, c"}}, rs.Rows)
	assert.Equal(t, 2, rs.RowCount())
}

func TestQuery_PositionalArgs(t *testing.T) {
	c := openSQLite(t, "")
	ctx := context.Background()

	conn, err := c.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close()

	rs, err := conn.Query(ctx, "SELECT ? AS v", "hello")
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "hello", rs.Rows[0][0])
}

func TestQuery_EmptyResultKeepsColumns(t *testing.T) {
	c := openSQLite(t, "")
	ctx := context.Background()

	conn, err := c.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close()

	rs, err := conn.Query(ctx, "SELECT 1 AS id WHERE 1 = 0")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, rs.Columns)
	assert.Empty(t, rs.Rows)
	assert.NotNil(t, rs.Rows)
}

// Red-Flag: a failing statement surfaces as an error, never as an empty result.
func TestQuery_Error(t *testing.T) {
	c := openSQLite(t, "")
	ctx := context.Background()

	conn, err := c.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close()

	rs, err := conn.Query(ctx, "SELECT * FROM missing_table")
	assert.Nil(t, rs)
	assert.Error(t, err)
}

func TestQuery_CanceledContext(t *testing.T) {
	c := openSQLite(t, "")

	conn, err := c.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = conn.Query(ctx, "SELECT 1")
	assert.Error(t, err)
}

// Green-Flag: a closed Conn goes back to the pool on success and on error.
func TestConnect_ReleasedOnClose(t *testing.T) {
	c := openSQLite(t, "")
	ctx := context.Background()

	for _, q := range []string{"SELECT 1", "SELECT * FROM missing_table"} {
		conn, err := c.Connect(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Stats().InUse)

		_, _ = conn.Query(ctx, q)
		require.NoError(t, conn.Close())
		assert.Equal(t, 0, c.Stats().InUse)
	}
}

func TestConnect_AfterClose(t *testing.T) {
	c := openSQLite(t, "")
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Connect(context.Background())
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	c := openSQLite(t, "")

	res, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Version)
	assert.Equal(t, "2025-01-01T00:00:00Z", res.Now)
	assert.Empty(t, res.Addrs)
	assert.Equal(t, 0, c.Stats().InUse)
}

func TestPing_ResolvesHost(t *testing.T) {
	c := openSQLite(t, "localhost")

	res, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Addrs)
}

// Red-Flag: an unresolvable host fails before any connection is attempted.
func TestPing_UnresolvableHost(t *testing.T) {
	c := openSQLite(t, "querygate-db.invalid")

	_, err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve querygate-db.invalid")
	assert.Equal(t, 0, c.Stats().OpenConnections)
}

func TestOpen_RequiresDriver(t *testing.T) {
	_, err := Open(Options{DSN: ":memory:"})
	assert.Error(t, err)
}
