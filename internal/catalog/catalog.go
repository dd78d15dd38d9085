// Package catalog holds the whitelist of SQL templates querygate may run.
//
// The catalog is closed: keys are a fixed enum, templates are fixed at build time, and
// a Catalog value is immutable once constructed. Templates reference request values only
// through the named placeholders @limit, @offset, @from and @to.
package catalog

import (
	"fmt"
	"strings"

	"github.com/canonica-labs/querygate/internal/errors"
	"github.com/canonica-labs/querygate/internal/sql"
)

// Key identifies a catalog entry.
type Key string

const (
	KeyNow         Key = "now"
	KeyTables      Key = "tables"
	KeyDetailAll   Key = "detail_all"
	KeyDetailRange Key = "detail_range"
)

// DefaultKey is used when a request omits the key entirely.
const DefaultKey = KeyNow

// ParseKey maps s onto the closed key set. Matching is exact and case-sensitive.
func ParseKey(s string) (Key, bool) {
	switch Key(s) {
	case KeyNow:
		return KeyNow, true
	case KeyTables:
		return KeyTables, true
	case KeyDetailAll:
		return KeyDetailAll, true
	case KeyDetailRange:
		return KeyDetailRange, true
	default:
		return "", false
	}
}

// Param is a placeholder a template may bind.
type Param uint8

const (
	ParamLimit Param = 1 << iota
	ParamOffset
	ParamFrom
	ParamTo
)

var paramNames = []struct {
	param Param
	name  string
}{
	{ParamLimit, "limit"},
	{ParamOffset, "offset"},
	{ParamFrom, "from"},
	{ParamTo, "to"},
}

// ParamByName returns the Param for a placeholder name.
func ParamByName(name string) (Param, bool) {
	for _, p := range paramNames {
		if p.name == name {
			return p.param, true
		}
	}
	return 0, false
}

// Name returns the placeholder name of p.
func (p Param) Name() string {
	for _, pn := range paramNames {
		if pn.param == p {
			return pn.name
		}
	}
	return ""
}

// ParamSet is a set of Params.
type ParamSet uint8

// Has reports whether p is in the set.
func (s ParamSet) Has(p Param) bool {
	return s&ParamSet(p) != 0
}

// Names returns the placeholder names in the set, in declaration order.
func (s ParamSet) Names() []string {
	names := make([]string, 0, len(paramNames))
	for _, p := range paramNames {
		if s.Has(p.param) {
			names = append(names, p.name)
		}
	}
	return names
}

// Definition is one whitelisted query.
type Definition struct {
	Key         Key
	Description string
	Template    string
	Params      ParamSet
}

// Paginated reports whether the template binds limit and offset.
func (d Definition) Paginated() bool {
	return d.Params.Has(ParamLimit) && d.Params.Has(ParamOffset)
}

// validate checks that the template uses exactly the declared placeholders.
func (d Definition) validate() error {
	if _, ok := ParseKey(string(d.Key)); !ok {
		return fmt.Errorf("catalog: unknown key %q", d.Key)
	}
	if strings.TrimSpace(d.Template) == "" {
		return fmt.Errorf("catalog: %s: empty template", d.Key)
	}

	var used ParamSet
	for _, name := range sql.NamedParams(d.Template) {
		p, ok := ParamByName(name)
		if !ok {
			return fmt.Errorf("catalog: %s: placeholder @%s is not allowed", d.Key, name)
		}
		used |= ParamSet(p)
	}
	if used != d.Params {
		return fmt.Errorf("catalog: %s: declares %v but template uses %v", d.Key, d.Params.Names(), used.Names())
	}

	if d.Params.Has(ParamLimit) != d.Params.Has(ParamOffset) {
		return fmt.Errorf("catalog: %s: limit and offset must be declared together", d.Key)
	}
	if d.Paginated() && sql.CountLimitClauses(d.Template) != 1 {
		return fmt.Errorf("catalog: %s: pagination must use a single LIMIT @limit OFFSET @offset clause", d.Key)
	}
	return nil
}

// Catalog is an immutable set of Definitions.
type Catalog struct {
	defs  map[Key]Definition
	order []Key
}

// New builds a catalog from defs, validating each template.
func New(defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make(map[Key]Definition, len(defs)),
		order: make([]Key, 0, len(defs)),
	}
	for _, d := range defs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.defs[d.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate key %q", d.Key)
		}
		c.defs[d.Key] = d
		c.order = append(c.order, d.Key)
	}
	return c, nil
}

// Lookup resolves key against the whitelist.
func (c *Catalog) Lookup(key string) (Definition, error) {
	k, ok := ParseKey(key)
	if ok {
		if d, found := c.defs[k]; found {
			return d, nil
		}
	}
	return Definition{}, errors.NewQueryNotAllowed(key, c.KeyNames())
}

// Keys returns the catalog keys in declaration order.
func (c *Catalog) Keys() []Key {
	out := make([]Key, len(c.order))
	copy(out, c.order)
	return out
}

// KeyNames returns the catalog keys as strings in declaration order.
func (c *Catalog) KeyNames() []string {
	out := make([]string, len(c.order))
	for i, k := range c.order {
		out[i] = string(k)
	}
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Entry is the serializable view of a Definition.
type Entry struct {
	Key         string   `json:"key" yaml:"key"`
	Description string   `json:"description" yaml:"description"`
	Params      []string `json:"params" yaml:"params"`
	SQL         string   `json:"sql" yaml:"sql"`
}

// Export returns every definition in declaration order.
func (c *Catalog) Export() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, k := range c.order {
		d := c.defs[k]
		out = append(out, Entry{
			Key:         string(d.Key),
			Description: d.Description,
			Params:      d.Params.Names(),
			SQL:         strings.TrimSpace(d.Template),
		})
	}
	return out
}
