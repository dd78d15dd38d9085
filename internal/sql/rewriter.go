// Package sql provides the statement plumbing shared by the catalog and the resolver:
// named placeholder binding, pagination clause removal and a read-only statement check.
package sql

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	// NamedParamPattern matches a named placeholder such as @limit.
	NamedParamPattern = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)

	// LimitClausePattern matches a "LIMIT @limit OFFSET @offset" pagination clause
	// including the whitespace in front of it.
	LimitClausePattern = regexp.MustCompile(`(?is)\s+LIMIT\s+@limit\s+OFFSET\s+@offset\b`)
)

// NamedParams returns the placeholder names in order of appearance, repeats included.
func NamedParams(template string) []string {
	matches := NamedParamPattern.FindAllStringSubmatch(template, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// CountLimitClauses returns how many pagination clauses template contains.
func CountLimitClauses(template string) int {
	return len(LimitClausePattern.FindAllStringIndex(template, -1))
}

// StripLimitClause removes the pagination clause so the statement has no row cap.
func StripLimitClause(template string) string {
	return LimitClausePattern.ReplaceAllString(template, "")
}

// Bound is a statement with positional placeholders and its arguments in order.
type Bound struct {
	SQL  string
	Args []any
}

// Bind rewrites @name placeholders into $1..$n. Every distinct name gets one index,
// so repeated uses share an argument. A placeholder without a value is an error.
func Bind(template string, values map[string]any) (*Bound, error) {
	index := make(map[string]int)
	args := make([]any, 0, len(values))
	var missing string

	out := NamedParamPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1:]
		if i, ok := index[name]; ok {
			return "$" + strconv.Itoa(i)
		}
		v, ok := values[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		args = append(args, v)
		index[name] = len(args)
		return "$" + strconv.Itoa(len(args))
	})
	if missing != "" {
		return nil, fmt.Errorf("sql: no value bound for @%s", missing)
	}

	return &Bound{SQL: out, Args: args}, nil
}
