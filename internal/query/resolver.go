// Package query turns a client request into a statement ready for the database.
//
// The resolver never executes SQL. Its output is a parameterized statement whose only
// client-controlled text is, on the table export path, an identifier that has passed
// the allow-pattern and a full parse.
package query

import (
	"fmt"
	"regexp"

	"github.com/canonica-labs/querygate/internal/catalog"
	"github.com/canonica-labs/querygate/internal/errors"
	"github.com/canonica-labs/querygate/internal/pagination"
	"github.com/canonica-labs/querygate/internal/sql"
)

// IdentifierPattern is the allow-pattern for exported table names.
var IdentifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidIdentifier reports whether name may be used as a table name.
func ValidIdentifier(name string) bool {
	return IdentifierPattern.MatchString(name)
}

// tableExportTemplate is the statement every table export runs. %s is the table name.
const tableExportTemplate = "SELECT * FROM %s ORDER BY 1 LIMIT @limit OFFSET @offset"

// Request is a catalog query request.
type Request struct {
	// Key is the catalog key. The caller applies catalog.DefaultKey when q is absent.
	Key    string
	Window pagination.Window
	// From and To are the raw range bounds; empty means absent.
	From string
	To   string
}

// Resolved is a statement ready to execute.
type Resolved struct {
	// Key is set for catalog queries, Table for table exports.
	Key   string
	Table string

	SQL  string
	Args []any

	// Params are the named values that were bound, for logging.
	Params map[string]any
}

// Resolver resolves requests against a catalog.
type Resolver struct {
	catalog *catalog.Catalog
	parser  *sql.Parser
}

// NewResolver creates a Resolver over c.
func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{
		catalog: c,
		parser:  sql.NewParser(),
	}
}

// Resolve looks req.Key up in the catalog and binds the request values.
func (r *Resolver) Resolve(req Request) (*Resolved, error) {
	def, err := r.catalog.Lookup(req.Key)
	if err != nil {
		return nil, err
	}

	params := make(map[string]any, 4)
	if def.Paginated() {
		bindWindow(params, req.Window)
	}
	if def.Params.Has(catalog.ParamFrom) {
		params["from"] = nullable(req.From)
	}
	if def.Params.Has(catalog.ParamTo) {
		params["to"] = nullable(req.To)
	}

	template := def.Template
	if def.Paginated() && req.Window.Unbounded {
		template = sql.StripLimitClause(template)
	}

	bound, err := sql.Bind(template, params)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("query: bind %s: %w", def.Key, err))
	}

	return &Resolved{
		Key:    string(def.Key),
		SQL:    bound.SQL,
		Args:   bound.Args,
		Params: params,
	}, nil
}

// ResolveTable builds the export statement for a single table.
func (r *Resolver) ResolveTable(name string, w pagination.Window) (*Resolved, error) {
	if !ValidIdentifier(name) {
		return nil, errors.NewInvalidIdentifier(name, "name does not match "+IdentifierPattern.String())
	}

	template := fmt.Sprintf(tableExportTemplate, name)
	// The parser's grammar reserves words that are plain table names in PostgreSQL
	// (key, tables, schema), so the checked copy quotes the name. The executed
	// statement keeps it bare.
	checked := fmt.Sprintf(tableExportTemplate, "`"+name+"`")

	params := make(map[string]any, 2)
	if w.Unbounded {
		template = sql.StripLimitClause(template)
		checked = sql.StripLimitClause(checked)
	} else {
		bindWindow(params, w)
	}

	stmt, err := r.parser.ParseSelect(checked)
	if err != nil {
		return nil, errors.NewInvalidIdentifier(name, err.Error())
	}
	if len(stmt.Tables) != 1 || stmt.Tables[0] != name {
		return nil, errors.NewInvalidIdentifier(name, fmt.Sprintf("statement reads %v", stmt.Tables))
	}
	if stmt.HasLimit == w.Unbounded {
		return nil, errors.NewInternal(fmt.Errorf("query: table %s: limit clause does not match %s", name, w))
	}

	bound, err := sql.Bind(template, params)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("query: bind table %s: %w", name, err))
	}

	return &Resolved{
		Table:  name,
		SQL:    bound.SQL,
		Args:   bound.Args,
		Params: params,
	}, nil
}

// bindWindow sets limit and offset unless the window is unbounded. Negative limits
// are bound as 0: the database answers LIMIT 0 with no rows but rejects LIMIT -1.
func bindWindow(params map[string]any, w pagination.Window) {
	if w.Unbounded {
		return
	}
	limit := w.Limit
	if limit < 0 {
		limit = 0
	}
	params["limit"] = limit
	params["offset"] = w.Offset
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
