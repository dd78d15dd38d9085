package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/querygate/internal/auth"
	"github.com/canonica-labs/querygate/internal/database"
)

const doctorTimeout = 5 * time.Second

func (c *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run connection diagnostics",
		Long: `Run connection diagnostics.

Checks:
  - configuration is complete
  - an API key is set
  - the database host resolves and answers a ping
  - the gateway at --endpoint is healthy
  - the gateway can reach its own database`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(cmd.Context())
		},
	}
}

func (c *CLI) runDoctor(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []DiagnosticCheck{
		c.checkConfig(),
		c.checkAPIKey(),
		c.checkDatabase(ctx),
		c.checkGateway(ctx),
		c.checkGatewayDatabase(ctx),
	}

	allPassed := true
	for _, check := range checks {
		if !check.Passed {
			allPassed = false
		}
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"checks":     checks,
			"all_passed": allPassed,
		})
	}

	c.println("querygate diagnostics")
	c.println("=====================")
	c.println("")
	for _, check := range checks {
		c.printCheck(check)
	}
	c.println("")

	if allPassed {
		c.println("✓ All checks passed")
	} else {
		c.println("✗ Some checks failed - see above for details")
	}

	return nil
}

// DiagnosticCheck represents a single diagnostic check result.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	status := "✗"
	if check.Passed {
		status = "✓"
	}
	c.printf("%s %s: %s\n", status, check.Name, check.Message)
	if check.Details != "" && !check.Passed {
		c.printf("  → %s\n", check.Details)
	}
}

func (c *CLI) checkConfig() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Configuration"}

	if err := c.cfg.Validate(); err != nil {
		check.Message = "Invalid configuration"
		check.Details = err.Error()
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Driver: %s", c.cfg.Database.Driver)
	return check
}

func (c *CLI) checkAPIKey() DiagnosticCheck {
	check := DiagnosticCheck{Name: "API Key"}

	if !auth.NewStaticKeyAuthenticator(c.cfg.Auth.APIKey).Configured() {
		check.Message = "No API key configured"
		check.Details = "Set API_KEY; without it every protected request is rejected"
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Key present, sent in %s", c.cfg.Auth.Header)
	return check
}

func (c *CLI) checkDatabase(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Database"}

	opts := database.Options{
		Driver:       c.cfg.Database.Driver,
		DSN:          c.cfg.Database.DSN(),
		MaxOpenConns: 1,
	}
	if c.cfg.Database.Driver == database.DriverPostgres {
		opts.Host = c.cfg.Database.Host
	}

	db, err := database.Open(opts)
	if err != nil {
		check.Message = "Cannot open database"
		check.Details = err.Error()
		return check
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	res, err := db.Ping(ctx)
	if err != nil {
		check.Message = "Ping failed"
		check.Details = err.Error()
		return check
	}

	check.Passed = true
	check.Message = res.Version
	if len(res.Addrs) > 0 {
		check.Message = fmt.Sprintf("%s (%s)", res.Version, strings.Join(res.Addrs, ", "))
	}
	return check
}

func (c *CLI) checkGateway(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Gateway"}

	if c.cfg.Endpoint == "" {
		check.Message = "No endpoint configured"
		check.Details = "Set endpoint in config or use --endpoint flag"
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	healthy, err := c.newGatewayClient().CheckHealth(ctx)
	if err != nil {
		check.Message = "Cannot connect to gateway"
		check.Details = err.Error()
		return check
	}
	if !healthy {
		check.Message = fmt.Sprintf("%s is not healthy", c.cfg.Endpoint)
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Connected to %s", c.cfg.Endpoint)
	return check
}

func (c *CLI) checkGatewayDatabase(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Gateway Database"}

	if c.cfg.Endpoint == "" {
		check.Message = "No endpoint configured"
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	ping, err := c.newGatewayClient().DBPing(ctx)
	if err != nil {
		check.Message = "Cannot query /dbping"
		check.Details = err.Error()
		return check
	}
	if !ping.OK {
		check.Message = "Gateway cannot reach its database"
		check.Details = ping.Error
		return check
	}

	check.Passed = true
	check.Message = ping.Version
	return check
}
