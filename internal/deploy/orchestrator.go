package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dbxdeploy/internal/config"
	"dbxdeploy/internal/history"
	"dbxdeploy/internal/reporting"
)

// For mocking in tests
var osStat = os.Stat

// WorkspaceCLI is the slice of the databricks CLI wrapper the orchestrator
// needs. *workspace.CLI satisfies it; tests substitute a fake.
type WorkspaceCLI interface {
	Mkdirs(ctx context.Context, remotePath string) error
	ImportDir(ctx context.Context, localDir, remotePath string) error
	List(ctx context.Context, remotePath string) (string, error)
}

// Orchestrator runs the deployment pipeline for one environment/use-case
// pair: deploy shared artifacts, deploy the selected use case(s) in fixed
// order, verify, summarize. Execution is strictly sequential; each deploy is
// a blocking external call executed after the previous one completes.
type Orchestrator struct {
	cli      WorkspaceCLI
	reporter reporting.StepReporter
	store    history.Store // may be nil; history is best-effort
	opts     Options
}

// NewOrchestrator creates an Orchestrator. store may be nil to disable run
// recording.
func NewOrchestrator(cli WorkspaceCLI, reporter reporting.StepReporter, store history.Store, opts Options) *Orchestrator {
	return &Orchestrator{
		cli:      cli,
		reporter: reporter,
		store:    store,
		opts:     opts,
	}
}

// Run executes the pipeline and returns its summary. The returned error is
// non-nil only for fatal outcomes: a failed import or mkdirs aborts the run
// immediately. Missing local artifact directories and verification failures
// are warnings; they are reported, recorded in the summary, and do not stop
// the pipeline or change its exit status.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		Environment: o.opts.Target.Environment,
		UseCase:     o.opts.UseCase,
		StartedAt:   time.Now(),
	}

	// Shared artifacts always deploy first.
	result := o.deploySet(ctx, config.SharedSetName)
	summary.Results = append(summary.Results, result)
	if result.Outcome == OutcomeDeployed {
		summary.DeployedSets = append(summary.DeployedSets, config.SharedSetName)
	}
	if result.Outcome == OutcomeFatal {
		return o.finish(ctx, summary, result.Err)
	}

	// Then the selected use case(s), in fixed enumerated order.
	for _, uc := range o.opts.UseCase.Expand() {
		result := o.deploySet(ctx, string(uc))
		summary.Results = append(summary.Results, result)
		if result.Outcome == OutcomeDeployed {
			summary.DeployedSets = append(summary.DeployedSets, string(uc))
		}
		if result.Outcome == OutcomeFatal {
			return o.finish(ctx, summary, result.Err)
		}
	}

	// Best-effort verification pass: list every path that should now exist.
	// Listing failures are reported but never change the exit status.
	if !o.opts.DryRun {
		for _, set := range summary.DeployedSets {
			summary.Results = append(summary.Results, o.verifySet(ctx, set))
		}
	}

	return o.finish(ctx, summary, nil)
}

// deploySet deploys one artifact set directory to its derived target path.
// A missing local directory is a warning, not a fatal error: deployment
// proceeds without that set. Downstream consumers may assume the shared set
// exists, so the warning is loud.
func (o *Orchestrator) deploySet(ctx context.Context, setName string) StepResult {
	localDir := filepath.Join(o.opts.SourceDir, setName)
	remotePath := o.remotePath(setName)

	if _, err := osStat(localDir); os.IsNotExist(err) {
		msg := fmt.Sprintf("local directory %s not found, skipping %s", localDir, setName)
		o.report(reporting.StepTypeDeploy, setName, reporting.LogLevelWarn, msg, nil)
		return StepResult{Name: setName, Outcome: OutcomeSkipped, Message: msg}
	}

	if o.opts.DryRun {
		msg := fmt.Sprintf("would deploy %s to %s", localDir, remotePath)
		o.report(reporting.StepTypeDeploy, setName, reporting.LogLevelInfo, msg, nil)
		return StepResult{Name: setName, Outcome: OutcomeDeployed, Message: msg}
	}

	o.report(reporting.StepTypeDeploy, setName, reporting.LogLevelInfo, fmt.Sprintf("deploying %s to %s", localDir, remotePath), nil)

	if err := o.cli.Mkdirs(ctx, remotePath); err != nil {
		o.report(reporting.StepTypeDeploy, setName, reporting.LogLevelError, "failed to create target path", err)
		return StepResult{Name: setName, Outcome: OutcomeFatal, Message: "failed to create target path", Err: err}
	}

	if err := o.cli.ImportDir(ctx, localDir, remotePath); err != nil {
		o.report(reporting.StepTypeDeploy, setName, reporting.LogLevelError, "deployment failed", err)
		return StepResult{Name: setName, Outcome: OutcomeFatal, Message: "deployment failed", Err: err}
	}

	msg := fmt.Sprintf("deployed %s", remotePath)
	o.report(reporting.StepTypeDeploy, setName, reporting.LogLevelInfo, msg, nil)
	return StepResult{Name: setName, Outcome: OutcomeDeployed, Message: msg}
}

// verifySet lists the deployed path so the operator can see what landed.
func (o *Orchestrator) verifySet(ctx context.Context, setName string) StepResult {
	remotePath := o.remotePath(setName)

	listing, err := o.cli.List(ctx, remotePath)
	if err != nil {
		o.report(reporting.StepTypeVerify, setName, reporting.LogLevelWarn, "verification listing failed", err)
		return StepResult{Name: setName, Outcome: OutcomeWarning, Message: "verification listing failed", Err: err}
	}

	o.reporter.Report(reporting.StepUpdate{
		SourceType:  reporting.StepTypeVerify,
		SourceLabel: setName,
		Level:       reporting.LogLevelInfo,
		Message:     fmt.Sprintf("contents of %s", remotePath),
		Details:     listing,
	})
	return StepResult{Name: setName, Outcome: OutcomeVerified, Message: fmt.Sprintf("verified %s", remotePath)}
}

// finish closes out the summary, records the run, and returns the pipeline
// error (nil unless a fatal step aborted the run).
func (o *Orchestrator) finish(ctx context.Context, summary *Summary, runErr error) (*Summary, error) {
	summary.FinishedAt = time.Now()
	o.recordRun(ctx, summary)
	return summary, runErr
}

// recordRun persists the run to the history store. Recording is
// observational, like verification: failures are warnings, never fatal.
func (o *Orchestrator) recordRun(ctx context.Context, summary *Summary) {
	if o.store == nil || o.opts.DryRun {
		return
	}

	outcome := history.OutcomeCompleted
	if summary.Failed() {
		outcome = history.OutcomeFailed
	}

	sets := make([]history.SetRecord, 0, len(summary.Results))
	for _, r := range summary.Results {
		if r.Outcome == OutcomeVerified {
			continue // deploy steps carry the interesting status
		}
		sets = append(sets, history.SetRecord{Name: r.Name, Status: string(r.Outcome)})
	}

	run := history.Run{
		Environment: string(summary.Environment),
		UseCase:     string(summary.UseCase),
		StartedAt:   summary.StartedAt,
		FinishedAt:  summary.FinishedAt,
		Outcome:     outcome,
		Warnings:    summary.Warnings(),
		Sets:        sets,
	}

	if err := o.store.RecordRun(ctx, run); err != nil {
		o.report(reporting.StepTypeHistory, "", reporting.LogLevelWarn, "failed to record deployment run", err)
	}
}

// remotePath derives the deterministic target path for an artifact set:
// {root}/{environment}/{set}.
func (o *Orchestrator) remotePath(setName string) string {
	return fmt.Sprintf("%s/%s/%s", o.opts.WorkspaceRoot, o.opts.Target.Environment, setName)
}

func (o *Orchestrator) report(st reporting.StepType, label string, level reporting.LogLevel, msg string, err error) {
	o.reporter.Report(reporting.StepUpdate{
		SourceType:  st,
		SourceLabel: label,
		Level:       level,
		Message:     msg,
		Err:         err,
	})
}
