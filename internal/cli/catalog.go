package cli

import (
	"github.com/spf13/cobra"

	"github.com/canonica-labs/querygate/internal/catalog"
	"github.com/canonica-labs/querygate/internal/errors"
)

func (c *CLI) newCatalogCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the whitelisted queries",
		Long: `List every query key the gateway accepts, with the placeholders it binds.

Formats:
  text   one line per key (default)
  json   full entries including SQL
  yaml   full entries including SQL`,
		Example: `  querygate catalog
  querygate catalog --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.jsonOutput {
				format = string(catalog.FormatJSON)
			}
			return c.runCatalog(format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml")

	return cmd
}

func (c *CLI) runCatalog(format string) error {
	f, err := catalog.ParseFormat(format)
	if err != nil {
		return errors.NewBadRequest(err.Error(), "use text, json or yaml")
	}
	return catalog.Default().Write(c.out, f)
}
