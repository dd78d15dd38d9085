package sql

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Statement is the parsed shape of a generated query.
type Statement struct {
	// SQL is the statement as checked, with @name placeholders.
	SQL string

	// Tables are the tables referenced in FROM clauses.
	Tables []string

	// HasLimit reports whether the statement carries a LIMIT clause.
	HasLimit bool
}

// Parser checks generated statements with a full SQL grammar.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseSelect parses sql and requires it to be exactly one plain SELECT.
// Placeholders may be written as @name; they are checked as bind variables.
func (p *Parser) ParseSelect(sql string) (*Statement, error) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil, fmt.Errorf("sql: empty statement")
	}

	// The grammar spells bind variables :name.
	stmt, err := sqlparser.Parse(NamedParamPattern.ReplaceAllString(sql, ":$1"))
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, fmt.Errorf("sql: expected a single SELECT, got %T", stmt)
	}

	tables := []string{}
	err = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.AliasedTableExpr:
			if tn, ok := n.Expr.(sqlparser.TableName); ok && !tn.IsEmpty() {
				name := tn.Name.String()
				if !tn.Qualifier.IsEmpty() {
					name = tn.Qualifier.String() + "." + name
				}
				tables = append(tables, name)
			}
		case *sqlparser.Subquery:
			return false, fmt.Errorf("sql: subqueries are not allowed")
		}
		return true, nil
	}, sel)
	if err != nil {
		return nil, err
	}

	return &Statement{
		SQL:      sql,
		Tables:   tables,
		HasLimit: sel.Limit != nil,
	}, nil
}
