package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "proxylookup"}
	RegisterFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(flags))
	return cmd
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cmd := newCommand(t)

	cfg, err := Load(cmd, []string{"/var/lib/proxy.mmdb"}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultBind, cfg.Bind)
	assert.Equal(t, "/var/lib/proxy.mmdb", cfg.DBPath)
	assert.Equal(t, DefaultUpdater, cfg.Updater)
	assert.Zero(t, cfg.UpdateInterval)
	assert.Empty(t, cfg.GRPCBind)
	assert.True(t, cfg.Metrics)
	assert.False(t, cfg.Watch)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	cmd := newCommand(t)

	cfg, err := Load(cmd, nil, env(map[string]string{
		"PROXYLOOKUP_BIND":            "0.0.0.0:8080",
		"PROXYLOOKUP_DB":              "/srv/db",
		"PROXYLOOKUP_UPDATE_INTERVAL": "6h",
		"PROXYLOOKUP_UPDATER":         "/usr/local/bin/fetch",
		"PROXYLOOKUP_GRPC_BIND":       ":9090",
		"PROXYLOOKUP_METRICS":         "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Bind)
	assert.Equal(t, "/srv/db", cfg.DBPath)
	assert.Equal(t, 6*time.Hour, cfg.UpdateInterval)
	assert.Equal(t, "/usr/local/bin/fetch", cfg.Updater)
	assert.Equal(t, ":9090", cfg.GRPCBind)
	assert.False(t, cfg.Metrics)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	cmd := newCommand(t, "--bind", "127.0.0.1:2000", "--db", "/flag.mmdb", "--metrics=true", "--update-interval", "30m")

	cfg, err := Load(cmd, nil, env(map[string]string{
		"PROXYLOOKUP_BIND":            "0.0.0.0:8080",
		"PROXYLOOKUP_DB":              "/env.mmdb",
		"PROXYLOOKUP_METRICS":         "false",
		"PROXYLOOKUP_UPDATE_INTERVAL": "6h",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:2000", cfg.Bind)
	assert.Equal(t, "/flag.mmdb", cfg.DBPath)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, 30*time.Minute, cfg.UpdateInterval)
}

func TestLoad_PositionalOverridesEnvironment(t *testing.T) {
	cmd := newCommand(t)

	cfg, err := Load(cmd, []string{"/arg.mmdb"}, env(map[string]string{"PROXYLOOKUP_DB": "/env.mmdb"}))
	require.NoError(t, err)
	assert.Equal(t, "/arg.mmdb", cfg.DBPath)
}

func TestLoad_WatchFromEnvironment(t *testing.T) {
	cmd := newCommand(t)

	cfg, err := Load(cmd, []string{"/db"}, env(map[string]string{"PROXYLOOKUP_WATCH": "1"}))
	require.NoError(t, err)
	assert.True(t, cfg.Watch)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		args  []string
		env   map[string]string
	}{
		{name: "missing db"},
		{name: "too many args", args: []string{"/a", "/b"}},
		{name: "db flag and arg", flags: []string{"--db", "/a"}, args: []string{"/b"}},
		{name: "bind without port", flags: []string{"--bind", "localhost"}, args: []string{"/db"}},
		{name: "bind bad port", flags: []string{"--bind", "localhost:http-alt"}, args: []string{"/db"}},
		{name: "grpc bind bad", flags: []string{"--grpc-bind", "nowhere"}, args: []string{"/db"}},
		{name: "unparsable interval", flags: []string{"--update-interval", "daily"}, args: []string{"/db"}},
		{name: "zero interval", flags: []string{"--update-interval", "0s"}, args: []string{"/db"}},
		{name: "negative interval", env: map[string]string{"PROXYLOOKUP_UPDATE_INTERVAL": "-1h"}, args: []string{"/db"}},
		{name: "bad metrics env", env: map[string]string{"PROXYLOOKUP_METRICS": "sometimes"}, args: []string{"/db"}},
		{name: "empty updater with interval", flags: []string{"--update-interval", "1h", "--updater", ""}, args: []string{"/db"}},
		{name: "watch with interval", flags: []string{"--watch", "--update-interval", "1h"}, args: []string{"/db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCommand(t, tt.flags...)
			_, err := Load(cmd, tt.args, env(tt.env))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "PROXYLOOKUP_UPDATE_INTERVAL", EnvName(FlagUpdateInterval))
	assert.Equal(t, "PROXYLOOKUP_GRPC_BIND", EnvName(FlagGRPCBind))
	assert.Equal(t, "PROXYLOOKUP_BIND", EnvName(FlagBind))
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LogLevel(tt.input), "LogLevel(%q)", tt.input)
	}
}
