// Package render serializes result sets as JSON or CSV.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/canonica-labs/querygate/internal/database"
)

// WriteJSON writes rs as an array of objects, one per row. An empty result is [].
func WriteJSON(w io.Writer, rs *database.ResultSet) error {
	objects := make([]map[string]any, 0, rowCount(rs))
	if rs != nil {
		for _, row := range rs.Rows {
			obj := make(map[string]any, len(rs.Columns))
			for i, col := range rs.Columns {
				var v any
				if i < len(row) {
					v = jsonValue(row[i])
				}
				obj[col] = v
			}
			objects = append(objects, obj)
		}
	}

	if err := json.NewEncoder(w).Encode(objects); err != nil {
		return fmt.Errorf("render: encode json: %w", err)
	}
	return nil
}

// jsonValue maps a driver value onto something encoding/json accepts.
// Anything without a native JSON form becomes its fmt representation.
func jsonValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Sprint(x)
		}
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Sprint(x)
		}
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case json.RawMessage:
		if json.Valid(x) {
			return x
		}
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSV writes a header of rs.Columns followed by one record per row.
// Records end in CRLF and fields are quoted only when needed.
func WriteCSV(w io.Writer, rs *database.ResultSet) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if rs == nil || len(rs.Columns) == 0 {
		return nil
	}
	if err := cw.Write(rs.Columns); err != nil {
		return fmt.Errorf("render: write csv header: %w", err)
	}

	record := make([]string, len(rs.Columns))
	for _, row := range rs.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = csvValue(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("render: write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("render: flush csv: %w", err)
	}
	return nil
}

func csvValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func rowCount(rs *database.ResultSet) int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}
