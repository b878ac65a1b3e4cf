package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dbxdeploy/internal/config"
	"dbxdeploy/internal/history"
)

var (
	historyLimit  int
	historyOutput string
)

// historyCmdDef defines the history command structure
var historyCmdDef = &cobra.Command{
	Use:   "history [environment]",
	Short: "List recorded deployment runs",
	Long: `Lists past deployment runs recorded in the local history database,
newest first. An optional environment argument restricts the listing to that
environment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		environment := ""
		if len(args) == 1 {
			env, err := config.ParseEnvironment(args[0])
			if err != nil {
				return err
			}
			environment = string(env)
		}

		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}

		store, err := history.NewSQLiteStore(settings.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), environment, historyLimit)
		if err != nil {
			return err
		}

		switch historyOutput {
		case "json":
			return printRunsJSON(runs)
		case "yaml":
			return printRunsYAML(runs)
		case "table":
			printRunsTable(runs)
			return nil
		default:
			return fmt.Errorf("unsupported output format: %s", historyOutput)
		}
	},
}

func newHistoryCmd() *cobra.Command {
	historyCmdDef.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmdDef.Flags().StringVarP(&historyOutput, "output", "o", "table", "Output format (table, json, yaml)")
	return historyCmdDef
}

// runView is the serialization shape for json/yaml output.
type runView struct {
	ID          string              `json:"id" yaml:"id"`
	Environment string              `json:"environment" yaml:"environment"`
	UseCase     string              `json:"useCase" yaml:"useCase"`
	StartedAt   time.Time           `json:"startedAt" yaml:"startedAt"`
	FinishedAt  time.Time           `json:"finishedAt" yaml:"finishedAt"`
	Outcome     string              `json:"outcome" yaml:"outcome"`
	Warnings    int                 `json:"warnings" yaml:"warnings"`
	Sets        []history.SetRecord `json:"sets" yaml:"sets"`
}

func toRunViews(runs []history.Run) []runView {
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView{
			ID:          run.ID,
			Environment: run.Environment,
			UseCase:     run.UseCase,
			StartedAt:   run.StartedAt,
			FinishedAt:  run.FinishedAt,
			Outcome:     string(run.Outcome),
			Warnings:    run.Warnings,
			Sets:        run.Sets,
		})
	}
	return views
}

func printRunsJSON(runs []history.Run) error {
	data, err := json.MarshalIndent(toRunViews(runs), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode runs: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printRunsYAML(runs []history.Run) error {
	data, err := yaml.Marshal(toRunViews(runs))
	if err != nil {
		return fmt.Errorf("failed to encode runs: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func printRunsTable(runs []history.Run) {
	if len(runs) == 0 {
		fmt.Println(text.FgYellow.Sprint("No deployment runs recorded"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("STARTED"),
		text.FgHiCyan.Sprint("ENV"),
		text.FgHiCyan.Sprint("USE CASE"),
		text.FgHiCyan.Sprint("OUTCOME"),
		text.FgHiCyan.Sprint("WARN"),
		text.FgHiCyan.Sprint("SETS"),
	})

	for _, run := range runs {
		sets := make([]string, 0, len(run.Sets))
		for _, set := range run.Sets {
			sets = append(sets, fmt.Sprintf("%s (%s)", set.Name, set.Status))
		}

		outcome := text.FgGreen.Sprint(run.Outcome)
		if run.Outcome == history.OutcomeFailed {
			outcome = text.FgRed.Sprint(run.Outcome)
		}

		t.AppendRow(table.Row{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Environment,
			run.UseCase,
			outcome,
			run.Warnings,
			strings.Join(sets, ", "),
		})
	}
	t.Render()
}
