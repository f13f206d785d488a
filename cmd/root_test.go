package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subcommandNames(c *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, sub := range c.Commands() {
		names[sub.Name()] = true
	}
	return names
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(rootCmd)
	for _, name := range []string{"build", "geo", "publish", "status", "store"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "geopanel", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestBuildCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(buildCmd)
	for _, name := range []string{"crosswalk", "hhi", "footprint", "panel"} {
		assert.True(t, names[name], "build should have subcommand %q", name)
	}
}

func TestBuildFootprintCommand_Flags(t *testing.T) {
	for _, name := range []string{"spells", "metros", "test_rows", "chunk_rows", "out-dir"} {
		assert.NotNil(t, buildFootprintCmd.Flags().Lookup(name), "footprint should have --%s flag", name)
	}
	assert.Equal(t, "0", buildFootprintCmd.Flags().Lookup("test_rows").DefValue)
}

func TestBuildHHICommand_Flags(t *testing.T) {
	flag := buildHHICmd.Flags().Lookup("mode")
	require.NotNil(t, flag)
	assert.Equal(t, "weighted", flag.DefValue)
}

func TestBuildPanelCommand_Flags(t *testing.T) {
	flag := buildPanelCmd.Flags().Lookup("level")
	require.NotNil(t, flag)
	assert.Equal(t, "firm", flag.DefValue)
	assert.NotNil(t, buildPanelCmd.Flags().Lookup("hhi-mode"))
	assert.NotNil(t, buildPanelCmd.Flags().Lookup("attributes"))
}

func TestBuildPanelCommand_RejectsUnknownLevel(t *testing.T) {
	setupProject(t)
	flags := buildPanelCmd.Flags()
	require.NoError(t, flags.Set("level", "county"))
	t.Cleanup(func() {
		_ = flags.Set("level", "firm")
		flags.Lookup("level").Changed = false
	})

	err := buildPanelCmd.RunE(buildPanelCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown level")
}

func TestGeoCentroidsCommand_RequiredFlags(t *testing.T) {
	flag := geoCentroidsCmd.Flags().Lookup("shapefile")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestPublishCommand_Args(t *testing.T) {
	assert.Error(t, publishCmd.Args(publishCmd, nil))
	assert.NoError(t, publishCmd.Args(publishCmd, []string{"panel_firm_half"}))
}

func TestPublishCommand_RequiresDatabaseURL(t *testing.T) {
	setupProject(t)
	publishCmd.SetContext(t.Context())

	err := publishCmd.RunE(publishCmd, []string{"panel_firm_half"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database url is empty")
}
