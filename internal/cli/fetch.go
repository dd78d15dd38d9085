package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/querygate/internal/errors"
	"github.com/canonica-labs/querygate/internal/pagination"
)

// FetchOptions configures the fetch command.
type FetchOptions struct {
	Key    string
	Table  string
	CSV    bool
	Limit  string
	Offset int
	From   string
	To     string
	Output string
}

func (c *CLI) newFetchCmd() *cobra.Command {
	opts := &FetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch [key]",
		Short: "Download a whitelisted query from a running gateway",
		Long: `Download the result of a whitelisted query, or a single table as CSV,
from the gateway at --endpoint using the configured API key.

The body is written unchanged to stdout or --output.`,
		Example: `  querygate fetch now
  querygate fetch detail_all --csv --limit all -o detail.csv
  querygate fetch detail_range --from 2025-01-01 --to 2025-02-01
  querygate fetch --table orders --limit 500 --offset 1000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Key = args[0]
			}
			return c.runFetch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "export a single table as CSV")
	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "request CSV instead of JSON")
	cmd.Flags().StringVar(&opts.Limit, "limit", "", "row limit, or \"all\"")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().StringVar(&opts.From, "from", "", "range start, inclusive (detail_range)")
	cmd.Flags().StringVar(&opts.To, "to", "", "range end, exclusive (detail_range)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func (c *CLI) runFetch(cmd *cobra.Command, opts *FetchOptions) error {
	if opts.Limit != "" && opts.Limit != pagination.All {
		if _, err := strconv.Atoi(opts.Limit); err != nil {
			return errors.NewBadRequest(
				fmt.Sprintf("invalid --limit %q", opts.Limit),
				fmt.Sprintf("use a number or %q", pagination.All),
			)
		}
	}
	if opts.Offset < 0 {
		return errors.NewBadRequest(fmt.Sprintf("invalid --offset %d", opts.Offset), "use zero or a positive number")
	}

	var w io.Writer = c.out
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	client := c.newGatewayClient()
	c.debugf("fetching from %s\n", client.Endpoint())

	n, err := client.Fetch(cmd.Context(), FetchRequest{
		Key:    opts.Key,
		Table:  opts.Table,
		CSV:    opts.CSV || opts.Table != "",
		Limit:  opts.Limit,
		Offset: opts.Offset,
		From:   opts.From,
		To:     opts.To,
	}, w)
	if err != nil {
		return err
	}

	if opts.Output != "" {
		c.printf("Wrote %d bytes to %s\n", n, opts.Output)
	}
	return nil
}
