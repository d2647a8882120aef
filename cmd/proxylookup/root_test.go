package main

import (
	"path/filepath"
	"testing"

	"github.com/TomasB/proxylookup/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Flags(t *testing.T) {
	cmd := newRootCommand()

	for _, name := range []string{
		config.FlagBind, config.FlagDB, config.FlagUpdateInterval, config.FlagUpdater,
		config.FlagGRPCBind, config.FlagMetrics, config.FlagWatch,
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestRootCommand_RequiresDatabase(t *testing.T) {
	t.Setenv(config.EnvName(config.FlagDB), "")

	cmd := newRootCommand()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRootCommand_BootstrapFailureAbortsStartup(t *testing.T) {
	dir := t.TempDir()

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--updater", filepath.Join(dir, "missing-updater"), "--metrics=false", dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrap update")
}
