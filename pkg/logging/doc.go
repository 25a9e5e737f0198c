// Package logging provides a process-wide structured logger for the engine.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. All subsystems
// obtain a logger through this package rather than constructing their own
// slog.Logger values, so that log level and output destination are
// controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// Text output is rendered by [github.com/lmittmann/tint]; colors are
// switched off automatically when the destination is not a terminal.
//
// # Context helpers
//
//	log := logging.WithComponent("join")      // adds component field
//	log := logging.WithOperation(descriptor)  // adds op field
package logging
