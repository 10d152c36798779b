package engine

import (
	"context"
	"log/slog"
)

// LoggingRuntime is a RuntimeCollaborator that logs every call and always
// reports success. It stands in for the native audio runtime in the serve
// command, and in any deployment that wants to watch instruction traffic
// without an attached audio backend.
type LoggingRuntime struct {
	logger *slog.Logger
}

// NewLoggingRuntime returns a LoggingRuntime that logs to logger, or to
// slog.Default if logger is nil.
func NewLoggingRuntime(logger *slog.Logger) *LoggingRuntime {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingRuntime{logger: logger}
}

// AddSharedResource implements RuntimeCollaborator.
func (r *LoggingRuntime) AddSharedResource(_ context.Context, name string, buf AudioBuffer) (int, error) {
	r.logger.Info("add_shared_resource", "name", name, "channels", buf.Channels, "frames", buf.Frames)

	return 0, nil
}

// ApplyInstructions implements RuntimeCollaborator.
func (r *LoggingRuntime) ApplyInstructions(_ context.Context, batch []byte) (int, error) {
	r.logger.Info("apply_instructions", "bytes", len(batch))

	return 0, nil
}

// ProcessQueuedEvents implements RuntimeCollaborator.
func (r *LoggingRuntime) ProcessQueuedEvents(_ context.Context) ([]byte, error) {
	return []byte("[]"), nil
}
