package reporting

import (
	"time"

	"dbxdeploy/pkg/logging"
)

// ConsoleReporter is an implementation of StepReporter that logs updates to
// the console via the pkg/logging package.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// Report processes a StepUpdate by logging it to the console.
func (c *ConsoleReporter) Report(update StepUpdate) {
	// Set timestamp if not provided
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	// Determine the subsystem for logging
	subsystem := string(update.SourceType)
	if update.SourceLabel != "" {
		subsystem = string(update.SourceType) + "-" + update.SourceLabel
	}

	logMessage := update.Message
	if update.Details != "" {
		logMessage += "\n" + update.Details
	}

	switch update.Level {
	case LogLevelError:
		logging.Error(subsystem, update.Err, "%s", logMessage)
	case LogLevelWarn:
		if update.Err != nil {
			logging.Warn(subsystem, "%s: %v", logMessage, update.Err)
		} else {
			logging.Warn(subsystem, "%s", logMessage)
		}
	case LogLevelDebug:
		logging.Debug(subsystem, "%s", logMessage)
	default:
		logging.Info(subsystem, "%s", logMessage)
	}
}
