package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withEnv replaces the environment lookup for the duration of a test.
func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := osLookupEnv
	osLookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { osLookupEnv = original })
}

func TestResolveTargetPlainVariables(t *testing.T) {
	withEnv(t, map[string]string{
		"DATABRICKS_HOST":  "https://adb-123.azuredatabricks.net/",
		"DATABRICKS_TOKEN": "dapi-secret",
	})

	target, err := ResolveTarget(EnvTest)
	require.NoError(t, err)
	assert.Equal(t, EnvTest, target.Environment)
	assert.Equal(t, "https://adb-123.azuredatabricks.net", target.Host, "trailing slash should be trimmed")
	assert.Equal(t, "dapi-secret", target.Token)
}

func TestResolveTargetSuffixedVariables(t *testing.T) {
	withEnv(t, map[string]string{
		"DATABRICKS_HOST_PROD":  "https://adb-prod.azuredatabricks.net",
		"DATABRICKS_TOKEN_PROD": "dapi-prod",
		"DATABRICKS_HOST_DEV":   "https://adb-dev.azuredatabricks.net",
		"DATABRICKS_TOKEN_DEV":  "dapi-dev",
	})

	target, err := ResolveTarget(EnvProd)
	require.NoError(t, err)
	assert.Equal(t, "https://adb-prod.azuredatabricks.net", target.Host)
	assert.Equal(t, "dapi-prod", target.Token)
}

func TestResolveTargetPlainTakesPrecedence(t *testing.T) {
	withEnv(t, map[string]string{
		"DATABRICKS_HOST":      "https://adb-scoped.azuredatabricks.net",
		"DATABRICKS_TOKEN":     "dapi-scoped",
		"DATABRICKS_HOST_DEV":  "https://adb-dev.azuredatabricks.net",
		"DATABRICKS_TOKEN_DEV": "dapi-dev",
	})

	target, err := ResolveTarget(EnvDev)
	require.NoError(t, err)
	assert.Equal(t, "https://adb-scoped.azuredatabricks.net", target.Host)
	assert.Equal(t, "dapi-scoped", target.Token)
}

func TestResolveTargetMissingHost(t *testing.T) {
	withEnv(t, map[string]string{
		"DATABRICKS_TOKEN": "dapi-secret",
	})

	_, err := ResolveTarget(EnvDev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing workspace host")
	assert.Contains(t, err.Error(), "DATABRICKS_HOST_DEV")
}

func TestResolveTargetMissingToken(t *testing.T) {
	withEnv(t, map[string]string{
		"DATABRICKS_HOST_TEST": "https://adb-test.azuredatabricks.net",
	})

	_, err := ResolveTarget(EnvTest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing access token")
	assert.Contains(t, err.Error(), "DATABRICKS_TOKEN_TEST")
}

func TestResolveTargetEmptyValueTreatedAsMissing(t *testing.T) {
	withEnv(t, map[string]string{
		"DATABRICKS_HOST":  "",
		"DATABRICKS_TOKEN": "dapi-secret",
	})

	_, err := ResolveTarget(EnvDev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing workspace host")
}
