// Package config provides configuration loading for the querygate gateway and CLI.
//
// Sources, highest precedence first: flags (bound by the CLI), environment, config file,
// defaults. A .env file in the working directory is loaded into the environment first;
// variables already set are not overridden.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable without a legacy name.
const EnvPrefix = "QUERYGATE"

// DefaultEnvFile is the dotenv file read by Load.
const DefaultEnvFile = ".env"

// Config holds the application configuration.
type Config struct {
	// Endpoint is the gateway URL used by client commands.
	Endpoint string `mapstructure:"endpoint"`

	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

// AuthConfig holds the static API key and the header it is read from.
type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
	Header string `mapstructure:"header"`
}

// DatabaseConfig holds the connection parameters.
type DatabaseConfig struct {
	// Driver is "postgres" or "duckdb".
	Driver string `mapstructure:"driver"`

	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Name        string `mapstructure:"name"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	SSLMode     string `mapstructure:"sslmode"`
	SSLRootCert string `mapstructure:"sslrootcert"`

	// Cluster is the CockroachDB routing tag, sent as options=--cluster=<tag>.
	Cluster string `mapstructure:"cluster"`

	// DuckDBPath is the database file for the duckdb driver.
	DuckDBPath string `mapstructure:"duckdb_path"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LimitsConfig holds the pagination defaults.
type LimitsConfig struct {
	JSONDefault int `mapstructure:"json_default"`
	CSVDefault  int `mapstructure:"csv_default"`
	Max         int `mapstructure:"max"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Addr is the listen address. When empty, ":<Port>" is used.
	Addr string `mapstructure:"addr"`
	Port int    `mapstructure:"port"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// DebugEndpoints enables /debug/env.
	DebugEndpoints bool `mapstructure:"debug_endpoints"`
}

// ListenAddr returns the address the server binds.
func (s ServerConfig) ListenAddr() string {
	if s.Addr != "" {
		return s.Addr
	}
	return ":" + strconv.Itoa(s.Port)
}

// legacyEnv maps config keys onto the environment names of existing deployments.
// The QUERYGATE_ name is always accepted too and wins when both are set.
var legacyEnv = map[string]string{
	"auth.api_key":         "API_KEY",
	"auth.header":          "API_KEY_HEADER",
	"database.driver":      "DB_DRIVER",
	"database.host":        "DB_HOST",
	"database.port":        "DB_PORT",
	"database.name":        "DB_NAME",
	"database.user":        "DB_USER",
	"database.password":    "DB_PASSWORD",
	"database.sslmode":     "SSL_MODE",
	"database.sslrootcert": "SSL_ROOT_CERT",
	"database.cluster":     "CLUSTER_FLAG",
	"database.duckdb_path": "DUCKDB_PATH",
	"server.addr":          "LISTEN_ADDR",
	"server.port":          "PORT",
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://localhost:8080",
		Auth: AuthConfig{
			Header: "X-API-Key",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Port:            26257,
			SSLMode:         "verify-full",
			DuckDBPath:      ":memory:",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Limits: LimitsConfig{
			JSONDefault: 100,
			CSVDefault:  1000,
			Max:         5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			DebugEndpoints:  true,
		},
	}
}

// Load reads .env, the config file and the environment.
func Load(configPath string) (*Config, error) {
	return LoadFiles(configPath, DefaultEnvFile)
}

// LoadFiles is Load with an explicit dotenv file. An empty envFile skips dotenv loading.
func LoadFiles(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading %s: %w", envFile, err)
		}
	}

	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".querygate"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("querygate")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// newViper returns a viper instance with defaults and environment bindings.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, prefixed, legacy)
	}
	return v
}

// unmarshal decodes the configuration held by v. Commands that serve or diagnose
// call Validate on the result.
func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.header", d.Auth.Header)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.sslrootcert", "")
	v.SetDefault("database.cluster", "")
	v.SetDefault("database.duckdb_path", d.Database.DuckDBPath)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("limits.json_default", d.Limits.JSONDefault)
	v.SetDefault("limits.csv_default", d.Limits.CSVDefault)
	v.SetDefault("limits.max", d.Limits.Max)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("server.addr", "")
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.debug_endpoints", d.Server.DebugEndpoints)
}

// Validate checks values that would otherwise fail at request time.
// An empty API key is allowed; every protected request is then rejected.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.Header) == "" {
		return fmt.Errorf("config: auth.header must not be empty")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required for the postgres driver (set DB_HOST)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range", c.Database.Port)
		}
	case "duckdb":
	default:
		return fmt.Errorf("config: unknown database.driver %q (use postgres or duckdb)", c.Database.Driver)
	}

	l := c.Limits
	if l.Max <= 0 || l.JSONDefault <= 0 || l.CSVDefault <= 0 {
		return fmt.Errorf("config: limits must be positive")
	}
	if l.JSONDefault > l.Max || l.CSVDefault > l.Max {
		return fmt.Errorf("config: default limits must not exceed limits.max (%d)", l.Max)
	}
	return nil
}

// DSN returns the data source name for the configured driver. PostgreSQL DSNs use the
// libpq keyword/value form.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "duckdb" {
		return d.DuckDBPath
	}

	var b strings.Builder
	add := func(key, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(quoteDSNValue(value))
	}

	add("host", d.Host)
	add("port", strconv.Itoa(d.Port))
	add("dbname", d.Name)
	add("user", d.User)
	add("password", d.Password)
	add("sslmode", d.SSLMode)
	add("sslrootcert", d.SSLRootCert)
	if d.Cluster != "" {
		add("options", "--cluster="+d.Cluster)
	}
	return b.String()
}

// quoteDSNValue quotes a keyword/value DSN value when it contains spaces, quotes or
// backslashes.
func quoteDSNValue(s string) string {
	if !strings.ContainsAny(s, " '\\\t\n") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
