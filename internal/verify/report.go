package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Status is the outcome of a single validation check.
type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusWarning Status = "WARNING"
)

// CheckResult records the outcome of one validation check.
type CheckResult struct {
	Component    string   `json:"component"`
	Status       Status   `json:"status"`
	Message      string   `json:"message"`
	Notebooks    []string `json:"notebooks,omitempty"`
	ClusterState string   `json:"cluster_state,omitempty"`
}

// Summary aggregates check outcomes by status.
type Summary struct {
	TotalChecks int `json:"total_checks"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	Warnings    int `json:"warnings"`
}

// Report is the full validation report for one environment.
type Report struct {
	Environment   string        `json:"environment"`
	Timestamp     time.Time     `json:"timestamp"`
	WorkspaceHost string        `json:"workspace_host"`
	BasePath      string        `json:"base_path"`
	Results       []CheckResult `json:"validation_results"`
	Summary       Summary       `json:"summary"`
}

// add appends a check result and keeps the summary counts current.
func (r *Report) add(result CheckResult) {
	r.Results = append(r.Results, result)
	r.Summary.TotalChecks++
	switch result.Status {
	case StatusPassed:
		r.Summary.Passed++
	case StatusFailed:
		r.Summary.Failed++
	case StatusWarning:
		r.Summary.Warnings++
	}
}

// HasFailures reports whether any check FAILED. Warnings do not count.
func (r *Report) HasFailures() bool {
	return r.Summary.Failed > 0
}

// WriteJSON saves the report to a file as indented JSON.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode validation report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write validation report to %s: %w", path, err)
	}
	return nil
}
