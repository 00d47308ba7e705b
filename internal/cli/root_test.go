package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "roadsnap", cmd.Use)
	assert.Contains(t, cmd.Long, "snaps nearby line endpoints")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"import", "snap", "export", "status"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())

			db := sub.Flags().Lookup("db")
			require.NotNil(t, db, "command %s needs --db", name)
			assert.Equal(t, "", db.DefValue)
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestSnapCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	snap, _, err := cmd.Find([]string{"snap"})
	require.NoError(t, err)

	tests := map[string]string{
		"radius":        "4",
		"min-length":    "4",
		"max-neighbors": "6",
		"reload-status": "false",
		"metrics-file":  "",
	}
	for name, def := range tests {
		f := snap.Flags().Lookup(name)
		require.NotNil(t, f, "missing --%s", name)
		assert.Equal(t, def, f.DefValue, "--%s default", name)
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"status", "--db", "x.db", "--format", "yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
}
