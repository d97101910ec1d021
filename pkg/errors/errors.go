// Package errors provides custom error types for the assetsync system.
// These errors classify what went wrong during a reconciliation run so that
// callers can decide between aborting the run, skipping a row, or moving on
// to the next device.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join are re-exported so callers need only one errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the assetsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the remote rejected a create because the name or tag is taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrRemoteUnavailable indicates a 5xx response from the inventory API
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrUnauthorized indicates a 401/403 response from the inventory API
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPrecondition indicates a required remote reference is missing; the run must stop
	ErrPrecondition = errors.New("precondition failed")

	// ErrSkipped indicates a source row was skipped
	ErrSkipped = errors.New("row skipped")

	// ErrVerification indicates remote state did not match the intended target after a write
	ErrVerification = errors.New("verification failed")
)

// conflictMarkers are substrings of remote validation messages that mean "exists already".
var conflictMarkers = []string{
	"already been taken",
	"already exists",
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a failed call to the inventory API. It covers both
// non-2xx responses and 2xx responses whose envelope reports status "error".
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
	// Messages holds field-level validation messages, keyed by field name.
	Messages map[string][]string
	// Body is the raw response body, kept for the run log.
	Body string
	Err  error
}

// Error implements the error interface
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "API error from %s %s", e.Method, e.Endpoint)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if msg := e.Detail(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// Detail flattens Message and field messages into one line.
func (e *APIError) Detail() string {
	parts := make([]string, 0, len(e.Messages)+1)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	fields := make([]string, 0, len(e.Messages))
	for field := range e.Messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Messages[field], "; ")))
	}
	return strings.Join(parts, ", ")
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAlreadyExists:
		return e.IsConflict()
	case ErrRateLimited:
		return e.StatusCode == 429
	case ErrRemoteUnavailable:
		return e.StatusCode >= 500
	case ErrUnauthorized:
		return e.StatusCode == 401 || e.StatusCode == 403
	case ErrNotFound:
		return e.StatusCode == 404
	}
	return false
}

// IsConflict reports whether the remote said the entity already exists.
func (e *APIError) IsConflict() bool {
	if containsConflictMarker(e.Message) {
		return true
	}
	for _, msgs := range e.Messages {
		for _, m := range msgs {
			if containsConflictMarker(m) {
				return true
			}
		}
	}
	return false
}

// ConflictField returns the first field whose message carries a conflict marker.
func (e *APIError) ConflictField() string {
	fields := make([]string, 0, len(e.Messages))
	for field := range e.Messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		for _, m := range e.Messages[field] {
			if containsConflictMarker(m) {
				return field
			}
		}
	}
	return ""
}

func containsConflictMarker(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range conflictMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(method, endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// TransportError represents a network-level failure: no response was received.
type TransportError struct {
	Method   string
	Endpoint string
	Err      error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s %s: %v", e.Method, e.Endpoint, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// PreconditionError reports a missing remote reference that a run cannot do without.
type PreconditionError struct {
	Kind string // "status label", "location", "company"
	Name string
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("required %s %q not found in inventory; create it before running", e.Kind, e.Name)
}

// Is implements errors.Is support
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// NewPreconditionError creates a new PreconditionError
func NewPreconditionError(kind, name string) *PreconditionError {
	return &PreconditionError{Kind: kind, Name: name}
}

// RowError describes a source row that was skipped.
type RowError struct {
	Source string // "devices", "directory", "admin schema"
	Row    int    // 1-based line number including the header
	Reason string
}

// Error implements the error interface
func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d skipped: %s", e.Source, e.Row, e.Reason)
}

// Is implements errors.Is support
func (e *RowError) Is(target error) bool {
	return target == ErrSkipped
}

// NewRowError creates a new RowError
func NewRowError(source string, row int, reason string) *RowError {
	return &RowError{Source: source, Row: row, Reason: reason}
}

// VerificationError reports remote state that still differs from the target
// after the corrective write.
type VerificationError struct {
	Serial   string
	Step     string
	Expected string
	Observed string
}

// Error implements the error interface
func (e *VerificationError) Error() string {
	return fmt.Sprintf("asset %s: %s did not converge (expected %s, observed %s); manual intervention required",
		e.Serial, e.Step, e.Expected, e.Observed)
}

// Is implements errors.Is support
func (e *VerificationError) Is(target error) bool {
	return target == ErrVerification
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "csv", ...
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "update", "delete", "fetch", "checkin", "checkout"
	Resource  string // "manufacturer", "model", "user", "asset"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is a remote "already taken" conflict
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsPrecondition checks if an error must abort the run
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsVerification checks if an error is a post-write verification failure
func IsVerification(err error) bool {
	return errors.Is(err, ErrVerification)
}

// IsTransport checks if an error happened before any response was received
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsAPIError extracts an APIError from the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
