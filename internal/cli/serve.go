package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/canonica-labs/querygate/internal/auth"
	"github.com/canonica-labs/querygate/internal/catalog"
	"github.com/canonica-labs/querygate/internal/config"
	"github.com/canonica-labs/querygate/internal/database"
	"github.com/canonica-labs/querygate/internal/errors"
	"github.com/canonica-labs/querygate/internal/gateway"
	"github.com/canonica-labs/querygate/internal/observability"
	"github.com/canonica-labs/querygate/internal/query"
)

func (c *CLI) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Long: `Run the querygate HTTP gateway.

The gateway listens on server.addr (or PORT) and serves:
  /health            liveness, no auth
  /query             whitelisted query as JSON
  /query.csv         whitelisted query as CSV
  /table/{name}.csv  single table export as CSV
  /dbping            database diagnostics
  /debug/env         effective database settings (when enabled)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.cfg.Validate(); err != nil {
		return &errors.GatewayError{
			Kind:       errors.KindBadRequest,
			Message:    "invalid configuration",
			Suggestion: "run 'querygate doctor' for details",
			Cause:      err,
		}
	}

	log, err := observability.NewLogger(c.cfg.Logging, c.errOut)
	if err != nil {
		return err
	}

	gw, db, err := buildGateway(c.cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	// A failed ping is logged, not fatal. /health must come up without the database.
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	res, attempts := database.PingWithRetry(pingCtx, db, database.DefaultRetryConfig())
	cancel()
	if res == nil {
		log.WithError(attempts.LastError).WithField("attempts", attempts.Attempts).Warn("database not reachable at startup")
	} else {
		log.WithFields(logrus.Fields{
			"version":  res.Version,
			"addrs":    res.Addrs,
			"attempts": attempts.Attempts,
		}).Info("database reachable")
	}

	server := &http.Server{
		Addr:         c.cfg.Server.ListenAddr(),
		Handler:      gw,
		ReadTimeout:  c.cfg.Server.ReadTimeout,
		WriteTimeout: c.cfg.Server.WriteTimeout,
		IdleTimeout:  c.cfg.Server.IdleTimeout,
	}

	// Handle graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()

		log.Info("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown error")
		}
		close(done)
	}()

	log.WithFields(logrus.Fields{
		"addr":    server.Addr,
		"version": Version,
		"commit":  GitCommit,
		"driver":  c.cfg.Database.Driver,
	}).Info("querygate starting")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	log.Info("gateway stopped")
	return nil
}

// buildGateway wires the catalog, resolver, authenticator and connection pool.
// The caller owns the returned connector.
func buildGateway(cfg *config.Config, log *logrus.Logger) (*gateway.Gateway, *database.SQLConnector, error) {
	opts := database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	if cfg.Database.Driver == database.DriverPostgres {
		opts.Host = cfg.Database.Host
	}

	db, err := database.Open(opts)
	if err != nil {
		return nil, nil, err
	}

	authenticator := auth.NewStaticKeyAuthenticator(cfg.Auth.APIKey)
	if !authenticator.Configured() {
		log.Warn("no API key configured; every protected request will be rejected")
	}

	gw, err := gateway.New(
		authenticator,
		query.NewResolver(catalog.Default()),
		db,
		log,
		gateway.ConfigFrom(cfg),
	)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	return gw, db, nil
}
