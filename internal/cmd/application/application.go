// Package application defines what assetsync commands need from the
// application layer.
//
// Commands accept this interface rather than the concrete App so they can be
// tested with Mock.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/assetsync/pkg/sync"
)

// Application provides the application interface that commands need.
type Application interface {
	// SyncOptions returns the run options derived from configuration.
	// Command flags are appended after these, so they win.
	SyncOptions() []sync.Option

	// StartRunLog opens the per-run log file and tees the logger into it.
	// It returns the file path.
	StartRunLog() (string, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
