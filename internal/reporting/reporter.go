package reporting

import (
	"fmt"
	"time"
)

// StepType indicates the kind of pipeline step sending the update.
type StepType string

const (
	StepTypeValidation StepType = "Validation"
	StepTypeDeploy     StepType = "Deploy"
	StepTypeVerify     StepType = "Verify"
	StepTypeHistory    StepType = "History"
	StepTypeSystem     StepType = "System"      // For general pipeline events
	StepTypeExternal   StepType = "ExternalCmd" // For outputs from external commands like the databricks CLI
)

// String makes StepType satisfy the fmt.Stringer interface.
func (st StepType) String() string {
	return string(st)
}

// LogLevel defines the severity or nature of the update.
// Reporters may use it to filter or style output.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (ll LogLevel) String() string {
	return string(ll)
}

// StepUpdate carries status updates from pipeline steps.
// This struct is the standardized way for the orchestrator and its steps to
// report progress back to the console (or any other reporter implementation).
type StepUpdate struct {
	// Timestamp of when the event occurred or was reported.
	Timestamp time.Time

	// SourceType identifies the kind of step sending the update.
	SourceType StepType
	// SourceLabel identifies the specific artifact set or check the update is
	// about (e.g. "shared", "usecase-1").
	SourceLabel string

	// Level defines the severity of the update.
	Level LogLevel
	// Message provides a human-readable status (e.g. "Deployed", "Skipped: source directory missing").
	Message string
	// Details contains any detailed output associated with this update. Can be multi-line.
	Details string

	// Err carries the underlying error for warning or error level updates.
	Err error
}

// String provides a simple string representation for debugging the update itself.
func (su StepUpdate) String() string {
	return fmt.Sprintf("Update(TS: %s, Source: %s-%s, Level: %s, Msg: '%s', Err: %v)",
		su.Timestamp.Format(time.RFC3339), su.SourceType, su.SourceLabel, su.Level, su.Message, su.Err)
}

// StepReporter defines a unified interface for reporting pipeline step
// updates. Implementations handle these updates appropriately (console
// logging, test capture). Implementations should be goroutine-safe if they
// are to be called concurrently from multiple sources.
type StepReporter interface {
	Report(update StepUpdate)
}
