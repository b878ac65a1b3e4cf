package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"dbxdeploy/internal/config"
	"dbxdeploy/pkg/logging"
)

// For mocking in tests
var execLookPath = exec.LookPath
var runGH = runGHCommand

const ghBinary = "gh"

// CheckInstalled verifies the GitHub CLI is available on PATH and is a fatal
// precondition for provisioning.
func CheckInstalled() error {
	if _, err := execLookPath(ghBinary); err != nil {
		return fmt.Errorf("gh CLI not found on PATH: %w (install it from https://cli.github.com)", err)
	}
	return nil
}

// Options configures a provisioning run.
type Options struct {
	// Repo is the owner/name to provision. Empty lets gh resolve the
	// repository from the current working tree.
	Repo string

	// ProdReviewer is the GitHub handle required to approve deployments to
	// the prod environment. Empty disables the approval gate.
	ProdReviewer string
}

// Provisioner creates the per-environment GitHub execution contexts the CI
// deployment workflow runs in: one environment per deployment target, each
// carrying the workspace host and access token as environment secrets, with
// an optional manual-approval gate on prod.
type Provisioner struct {
	opts Options
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(opts Options) *Provisioner {
	return &Provisioner{opts: opts}
}

// Run provisions every environment in canonical order. Credentials for each
// environment are read from the suffixed DATABRICKS_HOST_*/DATABRICKS_TOKEN_*
// variables; an environment whose credentials are absent is created without
// secrets, with a warning, so the operator can attach them later.
func (p *Provisioner) Run(ctx context.Context) error {
	for _, env := range config.Environments {
		if err := p.createEnvironment(ctx, env); err != nil {
			return err
		}

		target, err := config.ResolveTarget(env)
		if err != nil {
			logging.Warn("Provision", "no credentials for %s, environment created without secrets: %v", env, err)
			continue
		}

		if err := p.setSecret(ctx, env, "DATABRICKS_HOST", target.Host); err != nil {
			return err
		}
		if err := p.setSecret(ctx, env, "DATABRICKS_TOKEN", target.Token); err != nil {
			return err
		}
		logging.Info("Provision", "environment %s configured with workspace secrets", env)
	}
	return nil
}

// createEnvironment creates (or updates) one GitHub environment. The prod
// environment gets a required reviewer when one is configured.
func (p *Provisioner) createEnvironment(ctx context.Context, env config.Environment) error {
	payload := map[string]any{}

	if env == config.EnvProd && p.opts.ProdReviewer != "" {
		reviewerID, err := p.resolveUserID(ctx, p.opts.ProdReviewer)
		if err != nil {
			return fmt.Errorf("failed to resolve reviewer %s: %w", p.opts.ProdReviewer, err)
		}
		payload["reviewers"] = []map[string]any{
			{"type": "User", "id": reviewerID},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode environment payload: %w", err)
	}

	args := []string{"api", "--method", "PUT", p.environmentEndpoint(env), "--input", "-"}
	if _, stderr, err := runGH(ctx, string(body), args...); err != nil {
		return fmt.Errorf("failed to create environment %s: %w. Stderr: %s", env, err, stderr)
	}

	logging.Info("Provision", "environment %s created", env)
	return nil
}

// setSecret attaches one environment-scoped secret.
func (p *Provisioner) setSecret(ctx context.Context, env config.Environment, name, value string) error {
	args := []string{"secret", "set", name, "--env", string(env), "--body", "-"}
	if p.opts.Repo != "" {
		args = append(args, "--repo", p.opts.Repo)
	}
	if _, stderr, err := runGH(ctx, value, args...); err != nil {
		return fmt.Errorf("failed to set secret %s on environment %s: %w. Stderr: %s", name, env, err, stderr)
	}
	return nil
}

// resolveUserID looks up the numeric GitHub user ID for a handle, which the
// environments API requires for reviewer entries.
func (p *Provisioner) resolveUserID(ctx context.Context, handle string) (int64, error) {
	stdout, stderr, err := runGH(ctx, "", "api", "users/"+handle)
	if err != nil {
		return 0, fmt.Errorf("gh api users/%s failed: %w. Stderr: %s", handle, err, stderr)
	}

	var user struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(stdout), &user); err != nil {
		return 0, fmt.Errorf("failed to decode user %s: %w", handle, err)
	}
	return user.ID, nil
}

// environmentEndpoint builds the REST endpoint for an environment, honoring
// an explicit repo when configured.
func (p *Provisioner) environmentEndpoint(env config.Environment) string {
	if p.opts.Repo != "" {
		return fmt.Sprintf("repos/%s/environments/%s", p.opts.Repo, env)
	}
	return fmt.Sprintf("repos/{owner}/{repo}/environments/%s", env)
}

// runGHCommand executes the gh CLI with the given arguments, feeding stdin
// when non-empty and capturing stdout and stderr.
func runGHCommand(ctx context.Context, stdin string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, ghBinary, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	if err := cmd.Run(); err != nil {
		return stdoutBuf.String(), stderrBuf.String(), fmt.Errorf("failed to execute 'gh %s': %w", strings.Join(args, " "), err)
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}
