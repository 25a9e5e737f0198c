package logging

import (
	"log/slog"
)

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("join")
//	log.Debug("algorithm selected", "algorithm", "hash")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithOperation creates a logger carrying the descriptor of the execution
// tree node that is being computed.
func WithOperation(descriptor string) *slog.Logger {
	return GetLogger().With("op", descriptor)
}

// WithError creates a logger with error context.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
