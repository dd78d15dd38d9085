package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonica-labs/querygate/internal/database"
)

func TestWriteCSV_QuotesSeparators(t *testing.T) {
	rs := &database.ResultSet{
		Columns: []string{"id", "name"},
		Rows:    [][]any{{int64(1), "a"}, {int64(2), "b, c"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rs))

	assert.Equal(t, "id,name\r\n1,a\r\n2,\"b, c\"\r\n", buf.String())
}

// Green-Flag: the header follows the driver's column order, not the map order of a row.
func TestWriteCSV_ColumnOrder(t *testing.T) {
	rs := &database.ResultSet{
		Columns: []string{"z", "a", "m"},
		Rows:    [][]any{{"1", "2", "3"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rs))

	assert.Equal(t, "z,a,m\r\n1,2,3\r\n", buf.String())
}

func TestWriteCSV_ValueRendering(t *testing.T) {
	ts := time.Date(2025, 2, 1, 12, 30, 0, 0, time.UTC)
	rs := &database.ResultSet{
		Columns: []string{"nil", "bool", "float", "bytes", "time", "quote", "newline"},
		Rows:    [][]any{{nil, true, 1.5, []byte("raw"), ts, `say "hi"`, "a\nb"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rs))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"", "true", "1.5", "raw", "2025-02-01T12:30:00Z", `say "hi"`, "a\nb"}, records[1])
}

func TestWriteCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &database.ResultSet{Columns: []string{"id"}}))

	assert.Equal(t, "id\r\n", buf.String())
}

// Green-Flag: large exports are written in full.
func TestWriteCSV_NoTruncation(t *testing.T) {
	const n = 5001
	rs := &database.ResultSet{Columns: []string{"n"}}
	for i := 0; i < n; i++ {
		rs.Rows = append(rs.Rows, []any{int64(i)})
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rs))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	assert.Len(t, lines, n+1)
	assert.Equal(t, strconv.Itoa(n-1), lines[n])
}

func TestWriteJSON_Objects(t *testing.T) {
	rs := &database.ResultSet{
		Columns: []string{"id", "name"},
		Rows:    [][]any{{int64(1), "a"}, {int64(2), nil}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rs))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]any{
		{"id": float64(1), "name": "a"},
		{"id": float64(2), "name": nil},
	}, got)
}

func TestWriteJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, &database.ResultSet{Columns: []string{"id"}}))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

type point struct{ X, Y int }

// Red-Flag: values without a JSON form are stringified instead of failing the response.
func TestWriteJSON_ComplexValues(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rs := &database.ResultSet{
		Columns: []string{"nan", "inf", "bytes", "time", "complex", "struct"},
		Rows:    [][]any{{math.NaN(), math.Inf(1), []byte("x"), ts, complex(1, 2), point{1, 2}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rs))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "NaN", got[0]["nan"])
	assert.Equal(t, "+Inf", got[0]["inf"])
	assert.Equal(t, "x", got[0]["bytes"])
	assert.Equal(t, "2025-01-01T00:00:00Z", got[0]["time"])
	assert.Equal(t, "(1+2i)", got[0]["complex"])
	assert.Equal(t, "{1 2}", got[0]["struct"])
}
