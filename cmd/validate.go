package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"dbxdeploy/internal/config"
	"dbxdeploy/internal/reporting"
	"dbxdeploy/internal/verify"
	"dbxdeploy/internal/workspace"
)

var (
	validateUseCase    string
	validateSmokeTest  bool
	validateOutputJSON string
)

// validateCmdDef defines the validate command structure
var validateCmdDef = &cobra.Command{
	Use:   "validate <environment>",
	Short: "Validate that notebooks are correctly deployed to a workspace",
	Long: `Checks a Databricks workspace against the expected deployment layout:
the shared folder and the selected use case folder(s) must exist under
/Workspace/Deployments/<environment>, and the <environment>-cluster cluster
should be present. Notebooks are listed recursively per folder.

With --smoke-test only workspace API connectivity is checked (the deployment
root must be reachable). With --output-json the full report is additionally
saved to a file.

Exits non-zero when any check fails; warnings (empty folders, missing
cluster) do not fail the validation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := config.ParseEnvironment(args[0])
		if err != nil {
			return err
		}
		useCase, err := config.ParseUseCase(validateUseCase)
		if err != nil {
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

		validator := verify.NewValidator(
			workspace.NewClient(target),
			target,
			settings.WorkspaceRoot,
			reporting.NewConsoleReporter(),
		)

		fmt.Println("--- Databricks Deployment Validation ---")
		fmt.Printf("Environment:     %s\n", env)
		fmt.Printf("Workspace:       %s\n", target.Host)
		fmt.Printf("Validation path: %s\n", validator.BasePath())
		fmt.Println("----------------------------------------")

		ctx := cmd.Context()
		if validateSmokeTest {
			validator.SmokeTest(ctx)
		} else {
			validator.ValidateSet(ctx, config.SharedSetName)
			for _, uc := range useCase.Expand() {
				validator.ValidateSet(ctx, string(uc))
			}
			validator.ValidateCluster(ctx, verify.ClusterNameFor(env))
		}

		report := validator.Report()
		printValidationReport(report)

		if validateOutputJSON != "" {
			if err := report.WriteJSON(validateOutputJSON); err != nil {
				return err
			}
			fmt.Printf("Report saved to: %s\n", validateOutputJSON)
		}

		if report.HasFailures() {
			return fmt.Errorf("validation failed: %d of %d checks failed", report.Summary.Failed, report.Summary.TotalChecks)
		}
		return nil
	},
}

func newValidateCmd() *cobra.Command {
	validateCmdDef.Flags().StringVar(&validateUseCase, "use-case", string(config.UseCaseAll), "Use case to validate (usecase-1, usecase-2, all)")
	validateCmdDef.Flags().BoolVar(&validateSmokeTest, "smoke-test", false, "Only check workspace API connectivity")
	validateCmdDef.Flags().StringVar(&validateOutputJSON, "output-json", "", "Save the validation report to a JSON file")
	return validateCmdDef
}

// printValidationReport renders per-check results and the summary counts.
func printValidationReport(report *verify.Report) {
	fmt.Println("\n--- Validation Summary ---")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("COMPONENT"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("MESSAGE"),
	})
	for _, result := range report.Results {
		t.AppendRow(table.Row{result.Component, formatCheckStatus(result.Status), result.Message})
	}
	t.Render()

	fmt.Printf("Total: %d  Passed: %d  Failed: %d  Warnings: %d\n",
		report.Summary.TotalChecks, report.Summary.Passed, report.Summary.Failed, report.Summary.Warnings)
}

func formatCheckStatus(status verify.Status) string {
	switch status {
	case verify.StatusPassed:
		return text.FgGreen.Sprint(status)
	case verify.StatusWarning:
		return text.FgYellow.Sprint(status)
	case verify.StatusFailed:
		return text.FgRed.Sprint(status)
	default:
		return string(status)
	}
}
