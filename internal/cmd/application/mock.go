package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/assetsync/pkg/sync"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    SyncOptionsFunc: func() []sync.Option {
//	        return []sync.Option{sync.WithAPI(fake.URL(), token)}
//	    },
//	}
//	cmd := run.NewCommand(mock)
type Mock struct {
	SyncOptionsFunc  func() []sync.Option
	StartRunLogFunc  func() (string, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// SyncOptions returns options using the mock function or none.
func (m *Mock) SyncOptions() []sync.Option {
	if m.SyncOptionsFunc != nil {
		return m.SyncOptionsFunc()
	}
	return nil
}

// StartRunLog uses the mock function or does nothing.
func (m *Mock) StartRunLog() (string, error) {
	if m.StartRunLogFunc != nil {
		return m.StartRunLogFunc()
	}
	return "", nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
