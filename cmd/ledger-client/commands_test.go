package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	registerCommands(r)

	cmds := r.List()
	require.NotEmpty(t, cmds)
	for i := 1; i < len(cmds); i++ {
		assert.Less(t, cmds[i-1].Name(), cmds[i].Name())
	}

	cmd, ok := r.Get("claim-bp")
	require.True(t, ok)
	err := cmd.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, errUsage)

	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount("150")
	require.NoError(t, err)
	assert.Equal(t, int64(150), amount)

	_, err = parseAmount("lots")
	assert.ErrorIs(t, err, errUsage)
}

func TestReadSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session_id":"s-1","account_exp":40,"currency":{"gold":10}}`), 0o600))

	summary, err := readSummary(path)
	require.NoError(t, err)
	assert.Equal(t, "s-1", summary.SessionID)
	assert.Equal(t, int64(40), summary.AccountExp)
	assert.Equal(t, int64(10), summary.Currency["gold"])

	_, err = readSummary(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, errUsage)
}
