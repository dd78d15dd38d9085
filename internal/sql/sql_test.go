package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind_PositionalInOrderOfFirstUse(t *testing.T) {
	b, err := Bind(
		"SELECT * FROM t WHERE (@from IS NULL OR c >= @from) AND c < @to LIMIT @limit OFFSET @offset",
		map[string]any{"from": "2025-01-01", "to": nil, "limit": 10, "offset": 0},
	)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM t WHERE ($1 IS NULL OR c >= $1) AND c < $2 LIMIT $3 OFFSET $4", b.SQL)
	assert.Equal(t, []any{"2025-01-01", nil, 10, 0}, b.Args)
}

func TestBind_NoPlaceholders(t *testing.T) {
	b, err := Bind("SELECT now() AS server_time", map[string]any{"limit": 5})
	require.NoError(t, err)

	assert.Equal(t, "SELECT now() AS server_time", b.SQL)
	assert.Empty(t, b.Args)
}

func TestBind_MissingValue(t *testing.T) {
	_, err := Bind("SELECT 1 LIMIT @limit", map[string]any{})
	assert.Error(t, err)
}

func TestStripLimitClause(t *testing.T) {
	in := "SELECT *\nFROM public.detail\nORDER BY 1\nLIMIT @limit OFFSET @offset"

	out := StripLimitClause(in)
	assert.Equal(t, "SELECT *\nFROM public.detail\nORDER BY 1", out)
	assert.NotContains(t, out, "LIMIT")
	assert.NotContains(t, out, "OFFSET")
	assert.Equal(t, 1, CountLimitClauses(in))
	assert.Equal(t, 0, CountLimitClauses(out))
}

func TestNamedParams(t *testing.T) {
	assert.Equal(t, []string{"from", "from", "limit"}, NamedParams("@from @from LIMIT @limit"))
	assert.Empty(t, NamedParams("SELECT 1"))
}

func TestParseSelect_TableExport(t *testing.T) {
	stmt, err := NewParser().ParseSelect("SELECT * FROM orders_2024 ORDER BY 1 LIMIT @limit OFFSET @offset")
	require.NoError(t, err)

	assert.Equal(t, []string{"orders_2024"}, stmt.Tables)
	assert.True(t, stmt.HasLimit)
}

func TestParseSelect_Unbounded(t *testing.T) {
	stmt, err := NewParser().ParseSelect("SELECT * FROM orders ORDER BY 1")
	require.NoError(t, err)

	assert.Equal(t, []string{"orders"}, stmt.Tables)
	assert.False(t, stmt.HasLimit)
}

// Red-Flag: anything other than one plain SELECT must be rejected.
func TestParseSelect_Rejects(t *testing.T) {
	for _, q := range []string{
		"",
		"DROP TABLE x",
		"DELETE FROM orders",
		"SELECT * FROM orders; DROP TABLE x",
		"SELECT * FROM (SELECT 1) AS t",
		"SELECT * FROM a UNION SELECT * FROM b",
	} {
		t.Run(q, func(t *testing.T) {
			_, err := NewParser().ParseSelect(q)
			assert.Error(t, err)
		})
	}
}
