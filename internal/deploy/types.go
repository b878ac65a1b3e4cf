package deploy

import (
	"time"

	"dbxdeploy/internal/config"
)

// Outcome classifies how a single pipeline step ended. The pipeline aborts
// on the first fatal outcome; warnings are logged and execution continues.
type Outcome string

const (
	OutcomeDeployed Outcome = "deployed"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeVerified Outcome = "verified"
	OutcomeWarning  Outcome = "warning"
	OutcomeFatal    Outcome = "fatal"
)

// StepResult is the explicit per-step result distinguishing fatal from
// warning outcomes. Results are aggregated into the run summary rather than
// being expressed through control flow.
type StepResult struct {
	Name    string
	Outcome Outcome
	Message string
	Err     error
}

// IsWarning reports whether the step ended with a non-fatal problem.
func (r StepResult) IsWarning() bool {
	return r.Outcome == OutcomeWarning || r.Outcome == OutcomeSkipped
}

// Options configures a single deployment pipeline run.
type Options struct {
	Target        config.Target
	UseCase       config.UseCase
	SourceDir     string
	WorkspaceRoot string
	// DryRun prints the deployment plan without touching the workspace.
	DryRun bool
}

// Summary is the aggregated outcome of one pipeline run.
type Summary struct {
	Environment config.Environment
	UseCase     config.UseCase
	StartedAt   time.Time
	FinishedAt  time.Time
	Results     []StepResult
	// DeployedSets lists the artifact sets an import call was issued for,
	// in deployment order.
	DeployedSets []string
}

// Warnings counts the non-fatal problems across all steps.
func (s *Summary) Warnings() int {
	count := 0
	for _, r := range s.Results {
		if r.IsWarning() {
			count++
		}
	}
	return count
}

// Failed reports whether the run ended with a fatal step.
func (s *Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Outcome == OutcomeFatal {
			return true
		}
	}
	return false
}
