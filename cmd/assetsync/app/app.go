// Package app provides the application context and dependency management
// for the assetsync CLI. It centralizes configuration, logging and the
// lifecycle of the per-run log file.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/assetsync/internal/cmd/application"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/reconciler"
	"github.com/agentstation/assetsync/pkg/snapshot"
	syncpkg "github.com/agentstation/assetsync/pkg/sync"
)

// App represents the assetsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config

	mu     sync.RWMutex
	logger *zerolog.Logger
	runLog *logging.RunLog
}

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, errors.WrapResource("load", "config", "", err)
		}
		app.config = config
	}
	if app.logger == nil {
		logger := NewLogger(app.config, nil)
		app.logger = &logger
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// SyncOptions converts the configuration into run options.
func (a *App) SyncOptions() []syncpkg.Option {
	c := a.config
	return []syncpkg.Option{
		syncpkg.WithAPI(c.BaseURL, c.Token),
		syncpkg.WithUserPassword(c.UserPassword),
		syncpkg.WithRequestDelay(c.RequestDelay),
		syncpkg.WithTimeout(c.Timeout),
		syncpkg.WithPageSize(c.PageSize),
		syncpkg.WithFeeds(c.DevicesPath, c.DirectoryPath),
		syncpkg.WithAdminSchema(c.AdminSchemaPath),
		syncpkg.WithAuxUserColumns(c.AuxUserColumns...),
		syncpkg.WithSerialSkipList(c.SerialSkipList...),
		syncpkg.WithDefaultCategory(c.DefaultCategory),
		syncpkg.WithDefaults(snapshot.Defaults{
			ReadyStatus:    c.ReadyStatus,
			DeployedStatus: c.DeployedStatus,
			Location:       c.Location,
			Company:        c.Company,
		}),
		syncpkg.WithHostnamePrefix(c.HostnamePrefix),
		syncpkg.WithRenamePolicy(reconciler.RenamePolicy(c.RenamePolicy)),
	}
}

// StartRunLog opens a fresh log file for this run under the configured log
// directory and rebuilds the logger to write to it as well as the console.
func (a *App) StartRunLog() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.runLog != nil {
		return a.runLog.Path, nil
	}
	rl, err := logging.OpenRunLog(a.config.LogDir, a.config.LogKeep)
	if err != nil {
		return "", err
	}
	a.runLog = rl
	logger := NewLogger(a.config, rl)
	a.logger = &logger
	return rl.Path, nil
}

// Shutdown flushes and closes the run log, if one was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.runLog == nil {
		return nil
	}
	err := a.runLog.Close()
	a.runLog = nil
	if err != nil {
		return errors.WrapIO("close", a.config.LogDir, err)
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
