package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEnv_MissingVersion(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ENV_SCHEMA_VERSION", "")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_SCHEMA_VERSION is not set")
}

func TestValidateEnv_VersionMismatch(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", "0.9")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_SCHEMA_VERSION mismatch")
	assert.Contains(t, err.Error(), "expected 1.0, got 0.9")
}

func TestValidateEnv_MissingRequired(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required environment variables")
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestValidateEnv_MemoryBackendSkipsDatabase(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("LEDGER_BACKEND", BackendMemory)
	t.Setenv("API_KEY", "key")
	t.Setenv("SESSION_SECRET", testSecret)

	assert.NoError(t, ValidateEnv())
}

func TestValidateEnvWithWarnings_InsecureDefaults(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("DB_PASSWORD", ExamplePassword)
	t.Setenv("API_KEY", ExampleAPIKey)
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("DB_USER", "user")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_NAME", "db")

	warnings, err := ValidateEnvWithWarnings()
	require.NoError(t, err, "Should not error even with warnings")
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "DB_PASSWORD")
	assert.Contains(t, warnings[1], "API_KEY")
}
