package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommand_FlagsAndDefaults(t *testing.T) {
	owner := rootCmd.PersistentFlags().Lookup("owner")
	require.NotNil(t, owner)
	require.Equal(t, "o", owner.Shorthand)
	require.Equal(t, "", owner.DefValue)

	token := rootCmd.PersistentFlags().Lookup("token")
	require.NotNil(t, token)
	require.Equal(t, "t", token.Shorthand)
	require.Equal(t, "", token.DefValue)

	dryRun := rootCmd.Flags().Lookup("dry-run")
	require.NotNil(t, dryRun)
	require.Equal(t, "n", dryRun.Shorthand)
	require.Equal(t, "false", dryRun.DefValue)

	force := rootCmd.Flags().Lookup("force")
	require.NotNil(t, force)
	require.Equal(t, "f", force.Shorthand)
	require.Equal(t, "false", force.DefValue)

	batchSize := rootCmd.Flags().Lookup("batch-size")
	require.NotNil(t, batchSize)
	require.Equal(t, "25", batchSize.DefValue)

	maxParallel := rootCmd.Flags().Lookup("max-parallel")
	require.NotNil(t, maxParallel)
	require.Equal(t, "p", maxParallel.Shorthand)
	require.Equal(t, "5", maxParallel.DefValue)

	readme := rootCmd.Flags().Lookup("readme")
	require.NotNil(t, readme)
	require.Equal(t, "README.md", readme.DefValue)

	timeout := rootCmd.Flags().Lookup("timeout")
	require.NotNil(t, timeout)
	require.Equal(t, "30m0s", timeout.DefValue)
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	require.True(t, names["list"])
	require.True(t, names["version"])
}
