// Package config resolves the service settings from command-line flags, the
// environment and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// ErrInvalid is returned for settings that cannot be used to start the service.
var ErrInvalid = errors.New("invalid configuration")

const (
	// DefaultBind is the HTTP listen address used when nothing else is configured.
	DefaultBind = "127.0.0.1:1929"
	// DefaultUpdater is the update procedure executable looked up on PATH.
	DefaultUpdater = "proxylookup-update"

	envPrefix = "PROXYLOOKUP_"
)

// Flag names.
const (
	FlagBind           = "bind"
	FlagDB             = "db"
	FlagUpdateInterval = "update-interval"
	FlagUpdater        = "updater"
	FlagGRPCBind       = "grpc-bind"
	FlagMetrics        = "metrics"
	FlagWatch          = "watch"
)

// Config is the resolved service configuration.
type Config struct {
	// Bind is the HTTP listen address used when no socket is inherited.
	Bind string
	// DBPath is the database file or directory.
	DBPath string
	// UpdateInterval is the period between update runs. Zero disables updates.
	UpdateInterval time.Duration
	// Updater is the update procedure executable.
	Updater string
	// GRPCBind is the gRPC listen address. Empty disables the gRPC surface.
	GRPCBind string
	// Metrics toggles the /metrics endpoint.
	Metrics bool
	// Watch hands off when the database file is replaced by an outside process.
	Watch bool
}

// RegisterFlags adds the configuration flags to cmd.
func RegisterFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String(FlagBind, DefaultBind, "listen on this address when no socket is inherited")
	fs.String(FlagDB, "", "database file or directory to serve")
	fs.String(FlagUpdateInterval, "", "run the updater at this interval, e.g. 24h (disabled when empty)")
	fs.String(FlagUpdater, DefaultUpdater, "update procedure executable")
	fs.String(FlagGRPCBind, "", "serve the gRPC API on this address (disabled when empty)")
	fs.Bool(FlagMetrics, true, "expose Prometheus metrics on /metrics")
	fs.Bool(FlagWatch, false, "restart when the database file is replaced by another process")
}

// EnvName returns the environment variable overriding flag.
func EnvName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// Load resolves the configuration for cmd. args are the positional arguments,
// of which at most one is accepted as the database path. lookupEnv is usually
// os.LookupEnv.
func Load(cmd *cobra.Command, args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	r := resolver{cmd: cmd, lookupEnv: lookupEnv}

	cfg := &Config{
		Bind:     r.string(FlagBind),
		Updater:  r.string(FlagUpdater),
		GRPCBind: r.string(FlagGRPCBind),
	}

	db, err := r.dbPath(args)
	if err != nil {
		return nil, err
	}
	cfg.DBPath = db

	if cfg.Metrics, err = r.bool(FlagMetrics); err != nil {
		return nil, err
	}
	if cfg.Watch, err = r.bool(FlagWatch); err != nil {
		return nil, err
	}
	if raw := r.string(FlagUpdateInterval); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalid, FlagUpdateInterval, raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, FlagUpdateInterval, raw)
		}
		cfg.UpdateInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: a database path is required", ErrInvalid)
	}
	if err := validateAddress(FlagBind, c.Bind); err != nil {
		return err
	}
	if c.GRPCBind != "" {
		if err := validateAddress(FlagGRPCBind, c.GRPCBind); err != nil {
			return err
		}
	}
	if c.UpdateInterval < 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, FlagUpdateInterval)
	}
	if c.UpdateInterval > 0 && c.Updater == "" {
		return fmt.Errorf("%w: %s is required with %s", ErrInvalid, FlagUpdater, FlagUpdateInterval)
	}
	if c.Watch && c.UpdateInterval > 0 {
		return fmt.Errorf("%w: %s cannot be combined with %s", ErrInvalid, FlagWatch, FlagUpdateInterval)
	}
	return nil
}

// LogLevel converts a LOG_LEVEL value to a slog.Level, defaulting to info.
func LogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func validateAddress(name, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalid, name, addr, err)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("%w: %s %q: invalid port", ErrInvalid, name, addr)
	}
	return nil
}

type resolver struct {
	cmd       *cobra.Command
	lookupEnv func(string) (string, bool)
}

func (r resolver) env(name string) string {
	if r.lookupEnv == nil {
		return ""
	}
	v, _ := r.lookupEnv(name)
	return strings.TrimSpace(v)
}

func (r resolver) string(flag string) string {
	fs := r.cmd.Flags()
	if !fs.Changed(flag) {
		if v := r.env(EnvName(flag)); v != "" {
			return v
		}
	}
	v, _ := fs.GetString(flag)
	return v
}

func (r resolver) bool(flag string) (bool, error) {
	fs := r.cmd.Flags()
	if !fs.Changed(flag) {
		if v := r.env(EnvName(flag)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return false, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvName(flag), v, err)
			}
			return b, nil
		}
	}
	v, _ := fs.GetBool(flag)
	return v, nil
}

func (r resolver) dbPath(args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("%w: expected at most one database path, got %d", ErrInvalid, len(args))
	}
	if len(args) == 1 {
		if r.cmd.Flags().Changed(FlagDB) {
			return "", fmt.Errorf("%w: database path given both as argument and --%s", ErrInvalid, FlagDB)
		}
		return args[0], nil
	}
	return r.string(FlagDB), nil
}
