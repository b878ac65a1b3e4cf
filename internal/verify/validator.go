package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dbxdeploy/internal/config"
	"dbxdeploy/internal/reporting"
	"dbxdeploy/internal/workspace"
)

// WorkspaceAPI is the read-only slice of the workspace REST client the
// validator needs. *workspace.Client satisfies it; tests substitute a fake.
type WorkspaceAPI interface {
	GetStatus(ctx context.Context, path string) (*workspace.ObjectInfo, error)
	ListNotebooks(ctx context.Context, path string) ([]string, error)
	ListClusters(ctx context.Context) ([]workspace.ClusterInfo, error)
}

// Validator checks that artifact sets are actually present in the workspace
// after a deployment. All of its checks are observational: a failed check is
// recorded in the report, never escalated to an error return.
type Validator struct {
	api      WorkspaceAPI
	env      config.Environment
	host     string
	basePath string
	reporter reporting.StepReporter
	report   Report
}

// NewValidator creates a Validator for a deployment target. workspaceRoot is
// the remote base path deployments live under; artifact sets are validated
// at {workspaceRoot}/{environment}/{set}.
func NewValidator(api WorkspaceAPI, target config.Target, workspaceRoot string, reporter reporting.StepReporter) *Validator {
	basePath := fmt.Sprintf("%s/%s", workspaceRoot, target.Environment)
	return &Validator{
		api:      api,
		env:      target.Environment,
		host:     target.Host,
		basePath: basePath,
		reporter: reporter,
		report: Report{
			Environment:   string(target.Environment),
			Timestamp:     time.Now(),
			WorkspaceHost: target.Host,
			BasePath:      basePath,
		},
	}
}

// BasePath returns the remote path validations run against.
func (v *Validator) BasePath() string {
	return v.basePath
}

// ValidateSet checks that an artifact set folder exists in the workspace and
// lists the notebooks beneath it. Missing folder is FAILED, an existing but
// empty folder is WARNING.
func (v *Validator) ValidateSet(ctx context.Context, setName string) CheckResult {
	setPath := fmt.Sprintf("%s/%s", v.basePath, setName)

	if exists := v.pathExists(ctx, setPath); !exists {
		return v.record(CheckResult{
			Component: setName,
			Status:    StatusFailed,
			Message:   fmt.Sprintf("%s folder not found at %s", setName, setPath),
		})
	}

	notebooks, err := v.api.ListNotebooks(ctx, setPath)
	if err != nil {
		return v.record(CheckResult{
			Component: setName,
			Status:    StatusWarning,
			Message:   fmt.Sprintf("failed to list notebooks in %s: %v", setPath, err),
		})
	}

	if len(notebooks) == 0 {
		return v.record(CheckResult{
			Component: setName,
			Status:    StatusWarning,
			Message:   fmt.Sprintf("%s folder exists but contains no notebooks", setName),
		})
	}

	return v.record(CheckResult{
		Component: setName,
		Status:    StatusPassed,
		Message:   fmt.Sprintf("Found %d notebooks in %s", len(notebooks), setName),
		Notebooks: notebooks,
	})
}

// ValidateCluster checks that the named cluster exists in the workspace.
// Absence is a WARNING: cluster provisioning is handled outside the
// deployment pipeline.
func (v *Validator) ValidateCluster(ctx context.Context, clusterName string) CheckResult {
	component := "cluster-" + clusterName

	clusters, err := v.api.ListClusters(ctx)
	if err != nil {
		return v.record(CheckResult{
			Component: component,
			Status:    StatusWarning,
			Message:   fmt.Sprintf("failed to list clusters: %v", err),
		})
	}

	for _, cluster := range clusters {
		if cluster.ClusterName == clusterName {
			return v.record(CheckResult{
				Component:    component,
				Status:       StatusPassed,
				Message:      fmt.Sprintf("Cluster %s found", clusterName),
				ClusterState: cluster.State,
			})
		}
	}

	return v.record(CheckResult{
		Component: component,
		Status:    StatusWarning,
		Message:   fmt.Sprintf("Cluster %s not found", clusterName),
	})
}

// SmokeTest checks basic workspace API connectivity by confirming the
// deployment root for the environment exists.
func (v *Validator) SmokeTest(ctx context.Context) CheckResult {
	if exists := v.pathExists(ctx, v.basePath); !exists {
		return v.record(CheckResult{
			Component: "smoke-test",
			Status:    StatusFailed,
			Message:   fmt.Sprintf("deployment root %s not reachable", v.basePath),
		})
	}
	return v.record(CheckResult{
		Component: "smoke-test",
		Status:    StatusPassed,
		Message:   fmt.Sprintf("workspace API connectivity verified, deployment root exists at %s", v.basePath),
	})
}

// Report returns the accumulated validation report.
func (v *Validator) Report() *Report {
	return &v.report
}

// ClusterNameFor derives the conventional cluster name for an environment.
func ClusterNameFor(env config.Environment) string {
	return string(env) + "-cluster"
}

func (v *Validator) pathExists(ctx context.Context, path string) bool {
	_, err := v.api.GetStatus(ctx, path)
	if err != nil {
		if !errors.Is(err, workspace.ErrNotFound) {
			v.reporter.Report(reporting.StepUpdate{
				SourceType:  reporting.StepTypeVerify,
				SourceLabel: path,
				Level:       reporting.LogLevelWarn,
				Message:     "workspace status check failed",
				Err:         err,
			})
		}
		return false
	}
	return true
}

// record appends the result to the report and echoes it through the reporter.
func (v *Validator) record(result CheckResult) CheckResult {
	level := reporting.LogLevelInfo
	switch result.Status {
	case StatusFailed:
		level = reporting.LogLevelError
	case StatusWarning:
		level = reporting.LogLevelWarn
	}
	v.reporter.Report(reporting.StepUpdate{
		SourceType:  reporting.StepTypeVerify,
		SourceLabel: result.Component,
		Level:       level,
		Message:     result.Message,
	})
	v.report.add(result)
	return result
}
