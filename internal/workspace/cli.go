package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"dbxdeploy/internal/config"
)

// For mocking in tests
var execLookPath = exec.LookPath

const databricksBinary = "databricks"

// CLI wraps the `databricks` command-line tool for workspace import
// operations. Credentials are passed to the child process via its
// environment, never via arguments, so tokens do not leak into process
// listings.
type CLI struct {
	target config.Target
}

// NewCLI creates a CLI bound to a resolved deployment target.
func NewCLI(target config.Target) *CLI {
	return &CLI{target: target}
}

// CheckInstalled verifies the databricks CLI is available on PATH.
// A missing binary is a fatal precondition failure; the caller must not
// attempt any deployment action after this returns an error.
func CheckInstalled() error {
	if _, err := execLookPath(databricksBinary); err != nil {
		return fmt.Errorf("databricks CLI not found on PATH: %w (install it from https://docs.databricks.com/dev-tools/cli/)", err)
	}
	return nil
}

// Mkdirs creates the remote workspace directory, including any missing
// parents. Creating an existing directory is a no-op on the Databricks side.
func (c *CLI) Mkdirs(ctx context.Context, remotePath string) error {
	_, err := c.run(ctx, "workspace", "mkdirs", remotePath)
	if err != nil {
		return fmt.Errorf("failed to create workspace path %s: %w", remotePath, err)
	}
	return nil
}

// ImportDir deploys a local notebook directory to the remote workspace path,
// overwriting whatever is there. There is no merge and no diff; each deploy
// replaces the prior contents at that path.
func (c *CLI) ImportDir(ctx context.Context, localDir, remotePath string) error {
	_, err := c.run(ctx, "workspace", "import-dir", localDir, remotePath, "--overwrite")
	if err != nil {
		return fmt.Errorf("failed to import %s to %s: %w", localDir, remotePath, err)
	}
	return nil
}

// List returns the raw listing of a remote workspace path. It is used by the
// post-deploy verification pass, which is observational only; callers treat a
// failure here as a warning, not an error.
func (c *CLI) List(ctx context.Context, remotePath string) (string, error) {
	out, err := c.run(ctx, "workspace", "list", remotePath)
	if err != nil {
		return "", fmt.Errorf("failed to list workspace path %s: %w", remotePath, err)
	}
	return out, nil
}

// run executes the databricks CLI with the given arguments, capturing stdout
// and stderr. On failure the returned error embeds the CLI's stderr.
func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, databricksBinary, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Env = append(os.Environ(),
		"DATABRICKS_HOST="+c.target.Host,
		"DATABRICKS_TOKEN="+c.target.Token,
	)

	if err := cmd.Run(); err != nil {
		return stdoutBuf.String(), fmt.Errorf("'databricks %s' failed: %w. Stderr: %s", args[0]+" "+args[1], err, stderrBuf.String())
	}
	return stdoutBuf.String(), nil
}
