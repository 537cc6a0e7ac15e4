package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/learntools/internal/testutil"
)

func TestToolsCommand(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := testutil.SetupTestConfig(t, tmpDir)

	out, err := execute(t, "tools", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Built-in tools (10):")
	assert.Contains(t, out, "juiste-volgorde")
	assert.Contains(t, out, "Geen tools gevonden.")

	testutil.CreateToolType(t, filepath.Join(tmpDir, "types"), "tijdlijn-plus", "v2")

	out, err = execute(t, "tools", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Installed tool types (1):")
	assert.Contains(t, out, "Tijdlijn Plus")
	assert.Contains(t, out, "/types/tijdlijn-plus/v2/")

	out, err = execute(t, "tools", "--config", cfgPath, "--json")
	require.NoError(t, err)
	var list toolList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list.Builtin, 10)
	require.Len(t, list.Installed, 1)
	assert.Equal(t, "tijdlijn-plus", list.Installed[0].ID)
	assert.Equal(t, "v2", list.Installed[0].Version)
}
