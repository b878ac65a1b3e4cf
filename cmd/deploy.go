package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"dbxdeploy/internal/config"
	"dbxdeploy/internal/deploy"
	"dbxdeploy/internal/history"
	"dbxdeploy/internal/reporting"
	"dbxdeploy/internal/workspace"
)

var (
	deploySourceDir string
	deployDryRun    bool
)

const summaryDurationPrecision = 10 * time.Millisecond

// deployCmdDef defines the deploy command structure
var deployCmdDef = &cobra.Command{
	Use:   "deploy <environment> <use-case>",
	Short: "Deploy notebook folders to a Databricks workspace",
	Long: `Deploys notebook folders to the Databricks workspace of the given
environment. The shared artifact set is always deployed first, then the
selected use case. Passing "all" as the use case deploys every use case in
fixed order (usecase-1, then usecase-2).

Artifact sets land at /Workspace/Deployments/<environment>/<set>, overwriting
whatever was deployed there before. After deployment, each target path is
listed as a best-effort verification pass; listing failures are warnings and
do not change the exit status.

Credentials are read from DATABRICKS_HOST / DATABRICKS_TOKEN, or from the
per-environment suffixed variants (DATABRICKS_HOST_DEV, ...) when running
outside an environment-scoped context.

Arguments:
  <environment>: (Required) One of: dev, test, prod.
  <use-case>:    (Required) One of: usecase-1, usecase-2, all.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := config.ParseEnvironment(args[0])
		if err != nil {
			return err
		}
		useCase, err := config.ParseUseCase(args[1])
		if err != nil {
			return err
		}

		if err := workspace.CheckInstalled(); err != nil {
			return err
		}

		target, err := config.ResolveTarget(env)
		if err != nil {
			return err
		}

		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		sourceDir := settings.SourceDir
		if deploySourceDir != "" {
			sourceDir = deploySourceDir
		}

		fmt.Println("--- Databricks Deployment ---")
		fmt.Printf("Environment: %s\n", env)
		fmt.Printf("Use case:    %s\n", useCase)
		fmt.Printf("Workspace:   %s\n", target.Host)
		fmt.Printf("Source dir:  %s\n", sourceDir)
		if deployDryRun {
			fmt.Println("Mode:        dry-run (no changes will be made)")
		}
		fmt.Println("-----------------------------")

		// History is best-effort: a broken local database must never block a
		// deployment.
		var store history.Store
		sqliteStore, storeErr := history.NewSQLiteStore(settings.HistoryPath)
		if storeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: deployment history unavailable: %v\n", storeErr)
		} else {
			store = sqliteStore
			defer sqliteStore.Close()
		}

		orchestrator := deploy.NewOrchestrator(
			workspace.NewCLI(target),
			reporting.NewConsoleReporter(),
			store,
			deploy.Options{
				Target:        target,
				UseCase:       useCase,
				SourceDir:     sourceDir,
				WorkspaceRoot: settings.WorkspaceRoot,
				DryRun:        deployDryRun,
			},
		)

		summary, runErr := orchestrator.Run(cmd.Context())
		printDeploySummary(summary)
		return runErr
	},
}

func newDeployCmd() *cobra.Command {
	deployCmdDef.Flags().StringVar(&deploySourceDir, "source-dir", "", "Local directory containing the artifact set folders (overrides config)")
	deployCmdDef.Flags().BoolVar(&deployDryRun, "dry-run", false, "Print the deployment plan without touching the workspace")
	return deployCmdDef
}

// printDeploySummary renders the aggregated step results as a table.
func printDeploySummary(summary *deploy.Summary) {
	fmt.Println("\n--- Summary ---")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("STEP"),
		text.FgHiCyan.Sprint("OUTCOME"),
		text.FgHiCyan.Sprint("DETAIL"),
	})
	for _, result := range summary.Results {
		t.AppendRow(table.Row{result.Name, formatOutcome(result.Outcome), result.Message})
	}
	t.Render()

	duration := summary.FinishedAt.Sub(summary.StartedAt).Round(summaryDurationPrecision)
	if summary.Failed() {
		fmt.Printf("Deployment to %s aborted after %s\n", summary.Environment, duration)
	} else {
		fmt.Printf("Deployment to %s completed in %s (%d warnings)\n", summary.Environment, duration, summary.Warnings())
	}
}

func formatOutcome(outcome deploy.Outcome) string {
	switch outcome {
	case deploy.OutcomeDeployed, deploy.OutcomeVerified:
		return text.FgGreen.Sprint(outcome)
	case deploy.OutcomeSkipped, deploy.OutcomeWarning:
		return text.FgYellow.Sprint(outcome)
	case deploy.OutcomeFatal:
		return text.FgRed.Sprint(outcome)
	default:
		return string(outcome)
	}
}
