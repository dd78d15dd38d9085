// Package cli provides the command-line interface for querygate.
// The same binary runs the gateway (serve) and talks to a running one (fetch, doctor).
package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/querygate/internal/config"
	"github.com/canonica-labs/querygate/internal/errors"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitValidation  = 1
	ExitAuth        = 2
	ExitUnavailable = 3
	ExitInternal    = 4
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	out    io.Writer
	errOut io.Writer

	// Global flags
	configPath string
	endpoint   string
	apiKey     string
	jsonOutput bool
	quiet      bool
	debug      bool
}

// New creates a new CLI instance writing to the process stdout and stderr.
func New() *CLI {
	return NewWithOutput(os.Stdout, os.Stderr)
}

// NewWithOutput creates a CLI writing to out and errOut.
func NewWithOutput(out, errOut io.Writer) *CLI {
	cli := &CLI{out: out, errOut: errOut}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

// SetArgs replaces the command-line arguments.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// Execute runs the CLI and returns the process exit code.
func (c *CLI) Execute() int {
	err := c.rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	c.errorf("Error: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	if stderrors.Is(err, ErrGatewayUnavailable) {
		return ExitUnavailable
	}
	switch errors.KindOf(err) {
	case errors.KindBadRequest:
		return ExitValidation
	case errors.KindUnauthorized:
		return ExitAuth
	default:
		return ExitInternal
	}
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "querygate",
		Short: "querygate - whitelisted read-only SQL over HTTP",
		Long: `querygate exposes a fixed set of read-only database queries to spreadsheet
tools as JSON or CSV, guarded by a static API key.

It provides:
  • a closed catalog of SQL templates selected by key
  • limit/offset pagination with a hard row cap
  • CSV export of single tables
  • diagnostics for the database connection`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)
	cmd.Version = Version
	cmd.SetVersionTemplate(GetVersionString() + "\n")

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./querygate.yaml or ~/.querygate/querygate.yaml)")
	cmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "gateway endpoint")
	cmd.PersistentFlags().StringVar(&c.apiKey, "api-key", "", "API key (overrides config)")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose debug logs")

	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newCatalogCmd())
	cmd.AddCommand(c.newFetchCmd())
	cmd.AddCommand(c.newDoctorCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	// Override with flags
	if c.endpoint != "" {
		c.cfg.Endpoint = c.endpoint
	}
	if c.apiKey != "" {
		c.cfg.Auth.APIKey = c.apiKey
	}
	if c.debug {
		c.cfg.Logging.Level = "debug"
	}

	return nil
}

// Helper functions for output

func (c *CLI) printf(format string, args ...interface{}) {
	if !c.quiet {
		fmt.Fprintf(c.out, format, args...)
	}
}

func (c *CLI) println(args ...interface{}) {
	if !c.quiet {
		fmt.Fprintln(c.out, args...)
	}
}

func (c *CLI) errorf(format string, args ...interface{}) {
	fmt.Fprintf(c.errOut, format, args...)
}

func (c *CLI) debugf(format string, args ...interface{}) {
	if c.debug {
		fmt.Fprintf(c.errOut, "[DEBUG] "+format, args...)
	}
}

func (c *CLI) outputJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newGatewayClient creates a new gateway client with current config.
func (c *CLI) newGatewayClient() *GatewayClient {
	return NewGatewayClient(c.cfg.Endpoint, c.cfg.Auth.APIKey, c.cfg.Auth.Header)
}
