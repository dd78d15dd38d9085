package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an output encoding for catalog exports.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json, yaml and yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("catalog: unsupported format %q (use text, json or yaml)", s)
	}
}

// Write renders the catalog export to w.
func (c *Catalog) Write(w io.Writer, format Format) error {
	entries := c.Export()

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("catalog: yaml encode: %w", err)
		}
		return enc.Close()

	default:
		for _, e := range entries {
			params := "-"
			if len(e.Params) > 0 {
				params = strings.Join(e.Params, ",")
			}
			if _, err := fmt.Fprintf(w, "%-14s %-22s %s\n", e.Key, params, e.Description); err != nil {
				return err
			}
		}
		return nil
	}
}
