package config

import (
	"fmt"
	"os"
	"strings"
)

// For mocking in tests
var osLookupEnv = os.LookupEnv

const (
	hostEnvVar  = "DATABRICKS_HOST"
	tokenEnvVar = "DATABRICKS_TOKEN"
)

// ResolveTarget builds the Target for an environment from process environment
// variables. Inside an environment-scoped execution context (e.g. a GitHub
// Actions environment) the plain DATABRICKS_HOST / DATABRICKS_TOKEN pair is
// used; outside of it the per-environment suffixed variants
// (DATABRICKS_HOST_DEV, DATABRICKS_TOKEN_PROD, ...) take over.
// A missing credential is a fatal precondition failure for deployment.
func ResolveTarget(env Environment) (Target, error) {
	host, hostVar := lookupWithSuffix(hostEnvVar, env)
	token, tokenVar := lookupWithSuffix(tokenEnvVar, env)

	if host == "" {
		return Target{}, fmt.Errorf("missing workspace host for environment %s: set %s or %s", env, hostEnvVar, hostVar)
	}
	if token == "" {
		return Target{}, fmt.Errorf("missing access token for environment %s: set %s or %s", env, tokenEnvVar, tokenVar)
	}

	return Target{
		Environment: env,
		Host:        strings.TrimRight(host, "/"),
		Token:       token,
	}, nil
}

// lookupWithSuffix returns the value of the plain variable if set, otherwise
// of the environment-suffixed variant. The second return value is the
// suffixed name, for use in error messages.
func lookupWithSuffix(name string, env Environment) (string, string) {
	suffixed := name + "_" + strings.ToUpper(string(env))
	if v, ok := osLookupEnv(name); ok && v != "" {
		return v, suffixed
	}
	if v, ok := osLookupEnv(suffixed); ok && v != "" {
		return v, suffixed
	}
	return "", suffixed
}
