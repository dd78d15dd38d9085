// Package pagination derives a safe limit/offset window from client-supplied strings.
//
// Normalization never fails: malformed input falls back to defaults so a spreadsheet
// with a stray value in its URL still gets data.
package pagination

import (
	"strconv"
	"strings"
)

// All is the limit token that removes the row cap.
const All = "all"

// Defaults shared by the gateway and the CLI.
const (
	DefaultJSONLimit = 100
	DefaultCSVLimit  = 1000
	MaxLimit         = 5000
)

// Window is a normalized pagination request.
type Window struct {
	// Limit is the row cap. Meaningless when Unbounded is set.
	Limit int
	// Offset is never negative.
	Offset int
	// Unbounded means no LIMIT/OFFSET clause at all.
	Unbounded bool
}

// Normalize parses rawLimit and rawOffset. Empty strings mean the parameter was absent.
//
// A limit of "all" (any case) yields an unbounded window with offset 0. Otherwise an
// unparsable limit becomes defaultLimit and a limit above maxLimit is clamped down;
// zero and negative limits are kept as-is. An unparsable offset becomes 0 and a
// negative offset is raised to 0.
func Normalize(rawLimit, rawOffset string, defaultLimit, maxLimit int) Window {
	if strings.EqualFold(strings.TrimSpace(rawLimit), All) {
		return Window{Unbounded: true}
	}

	limit, err := strconv.Atoi(strings.TrimSpace(rawLimit))
	if err != nil {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset, err := strconv.Atoi(strings.TrimSpace(rawOffset))
	if err != nil || offset < 0 {
		offset = 0
	}

	return Window{Limit: limit, Offset: offset}
}

// String renders the window for logs.
func (w Window) String() string {
	if w.Unbounded {
		return "limit=all"
	}
	return "limit=" + strconv.Itoa(w.Limit) + " offset=" + strconv.Itoa(w.Offset)
}
