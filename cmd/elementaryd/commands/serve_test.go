package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := NewServeCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := NewServeCommand()

	for _, name := range []string{"config", "diagnostics-addr", "session-log", "debug"} {
		flag := cmd.Flags().Lookup(name)
		require.NotNilf(t, flag, "flag %q should be registered", name)
	}

	assert.Equal(t, ":9091", cmd.Flags().Lookup("diagnostics-addr").DefValue)
	assert.Equal(t, "false", cmd.Flags().Lookup("debug").DefValue)
}

func TestRenderGraphCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := NewRenderGraphCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "render-graph", cmd.Use)
}

func TestStatsCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := NewStatsCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "stats", cmd.Use)
}
