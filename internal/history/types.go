package history

import "time"

// Outcome is the overall result of a deployment run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// SetRecord captures how a single artifact set fared within a run.
type SetRecord struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Run is one recorded deployment pipeline invocation.
type Run struct {
	ID          string
	Environment string
	UseCase     string
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     Outcome
	Warnings    int
	Sets        []SetRecord
}
