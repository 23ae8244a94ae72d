package audit

import (
	"context"
	"log"
)

// LogWriter writes audit entries to a plain logger. Used when the
// service runs without a database.
type LogWriter struct {
	logger *log.Logger
}

// NewLogWriter constructs a log-backed audit writer.
func NewLogWriter(logger *log.Logger) *LogWriter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogWriter{logger: logger}
}

// Log prints the entry.
func (w *LogWriter) Log(_ context.Context, entry Entry) error {
	w.logger.Printf("audit action=%s actor=%s role=%s resource=%s/%s asset=%s ip=%s",
		entry.Action, entry.Actor, entry.Role, entry.ResourceType, entry.ResourceID, entry.AssetID, entry.IP)
	return nil
}
