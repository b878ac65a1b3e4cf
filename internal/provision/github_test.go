package provision

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ghCall records one invocation of the gh CLI.
type ghCall struct {
	stdin string
	args  []string
}

type fakeGH struct {
	calls   []ghCall
	outputs map[string]string // keyed by joined args
	errs    map[string]error
}

func (f *fakeGH) run(ctx context.Context, stdin string, args ...string) (string, string, error) {
	f.calls = append(f.calls, ghCall{stdin: stdin, args: args})
	key := strings.Join(args, " ")
	if err := f.errs[key]; err != nil {
		return "", "permission denied", err
	}
	return f.outputs[key], "", nil
}

func withFakeGH(t *testing.T, fake *fakeGH) {
	t.Helper()
	original := runGH
	runGH = fake.run
	t.Cleanup(func() { runGH = original })
}

func setCredentials(t *testing.T, env string) {
	t.Helper()
	suffix := strings.ToUpper(env)
	t.Setenv("DATABRICKS_HOST_"+suffix, "https://adb-"+env+".azuredatabricks.net")
	t.Setenv("DATABRICKS_TOKEN_"+suffix, "dapi-"+env)
}

func TestCheckInstalled(t *testing.T) {
	original := execLookPath
	t.Cleanup(func() { execLookPath = original })

	execLookPath = func(file string) (string, error) {
		assert.Equal(t, "gh", file)
		return "/usr/local/bin/gh", nil
	}
	assert.NoError(t, CheckInstalled())

	execLookPath = func(file string) (string, error) {
		return "", errors.New("not found")
	}
	err := CheckInstalled()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gh CLI not found")
}

func TestRunProvisionsAllEnvironments(t *testing.T) {
	for _, env := range []string{"dev", "test", "prod"} {
		setCredentials(t, env)
	}
	fake := &fakeGH{}
	withFakeGH(t, fake)

	p := NewProvisioner(Options{Repo: "acme/data-platform"})
	require.NoError(t, p.Run(context.Background()))

	// One environment PUT plus two secret sets per environment.
	require.Len(t, fake.calls, 9)
	assert.Equal(t, []string{
		"api", "--method", "PUT", "repos/acme/data-platform/environments/dev", "--input", "-",
	}, fake.calls[0].args)
	assert.Equal(t, []string{
		"secret", "set", "DATABRICKS_HOST", "--env", "dev", "--body", "-", "--repo", "acme/data-platform",
	}, fake.calls[1].args)
	assert.Equal(t, "https://adb-dev.azuredatabricks.net", fake.calls[1].stdin)
	assert.Equal(t, "dapi-dev", fake.calls[2].stdin)

	// Environments are provisioned in canonical order.
	assert.Contains(t, fake.calls[3].args[3], "/environments/test")
	assert.Contains(t, fake.calls[6].args[3], "/environments/prod")
}

func TestRunSkipsSecretsWithoutCredentials(t *testing.T) {
	setCredentials(t, "dev")
	// test and prod credentials intentionally absent

	fake := &fakeGH{}
	withFakeGH(t, fake)

	p := NewProvisioner(Options{Repo: "acme/data-platform"})
	require.NoError(t, p.Run(context.Background()))

	// dev: PUT + 2 secrets. test and prod: PUT only.
	require.Len(t, fake.calls, 5)
	assert.Contains(t, fake.calls[3].args[3], "/environments/test")
	assert.Contains(t, fake.calls[4].args[3], "/environments/prod")
}

func TestProdReviewerGate(t *testing.T) {
	setCredentials(t, "prod")
	fake := &fakeGH{
		outputs: map[string]string{
			"api users/octocat": `{"id": 583231, "login": "octocat"}`,
		},
	}
	withFakeGH(t, fake)

	p := NewProvisioner(Options{Repo: "acme/data-platform", ProdReviewer: "octocat"})
	require.NoError(t, p.Run(context.Background()))

	var prodPut *ghCall
	for i, call := range fake.calls {
		if len(call.args) >= 4 && strings.HasSuffix(call.args[3], "/environments/prod") {
			prodPut = &fake.calls[i]
		}
	}
	require.NotNil(t, prodPut, "expected a PUT for the prod environment")

	var payload struct {
		Reviewers []struct {
			Type string `json:"type"`
			ID   int64  `json:"id"`
		} `json:"reviewers"`
	}
	require.NoError(t, json.Unmarshal([]byte(prodPut.stdin), &payload))
	require.Len(t, payload.Reviewers, 1)
	assert.Equal(t, "User", payload.Reviewers[0].Type)
	assert.Equal(t, int64(583231), payload.Reviewers[0].ID)
}

func TestRunFailsWhenEnvironmentCreationFails(t *testing.T) {
	fake := &fakeGH{
		errs: map[string]error{
			"api --method PUT repos/acme/data-platform/environments/dev --input -": errors.New("exit status 1"),
		},
	}
	withFakeGH(t, fake)

	p := NewProvisioner(Options{Repo: "acme/data-platform"})
	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create environment dev")
	assert.Contains(t, err.Error(), "permission denied")
	require.Len(t, fake.calls, 1)
}

func TestEnvironmentEndpointWithoutRepo(t *testing.T) {
	p := NewProvisioner(Options{})
	assert.Equal(t, "repos/{owner}/{repo}/environments/dev", p.environmentEndpoint("dev"))
}
