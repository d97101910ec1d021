// Package sync runs one reconciliation pass of the inventory service
// against the device and directory feeds.
package sync

import (
	"fmt"
	"net/url"
	"time"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/reconciler"
	"github.com/agentstation/assetsync/pkg/snapshot"
)

// Options controls a sync run.
type Options struct {
	// Remote API
	BaseURL      string        // API root, e.g. https://inventory.example.edu/api/v1
	Token        string        // Bearer token
	UserPassword string        // Password for provisioned users (empty disables provisioning)
	RequestDelay time.Duration // Fixed pacing between remote calls
	Timeout      time.Duration // Per-request timeout
	PageSize     int           // Rows per collection page

	// Feeds
	DevicesPath     string   // Device feed CSV
	DirectoryPath   string   // Personnel directory CSV
	AdminSchemaPath string   // Shared-ownership schema CSV (optional)
	AuxUserColumns  []string // Auxiliary user-hint columns of the device feed
	SerialSkipList  []string // Placeholder serial patterns

	// Reference names and policies
	Defaults        snapshot.Defaults
	DefaultCategory string
	HostnamePrefix  string
	RenamePolicy    reconciler.RenamePolicy

	DryRun bool // Log and count writes without sending them
}

// Apply applies the given options to the sync options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		RequestDelay:    constants.DefaultRequestDelay,
		Timeout:         constants.DefaultHTTPTimeout,
		PageSize:        constants.DefaultPageSize,
		AuxUserColumns:  append([]string(nil), constants.DefaultAuxUserColumns...),
		SerialSkipList:  append([]string(nil), constants.DefaultSerialSkipList...),
		Defaults:        snapshot.DefaultDefaults(),
		DefaultCategory: constants.DefaultCategoryName,
		HostnamePrefix:  constants.DefaultHostnamePrefix,
		RenamePolicy:    reconciler.RenameInPlace,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (o *Options) Validate() error {
	if err := o.ValidateFeeds(); err != nil {
		return err
	}
	return o.ValidateRemote()
}

// ValidateRemote checks the options needed to talk to the inventory API.
func (o *Options) ValidateRemote() error {
	if o.BaseURL == "" {
		return &errors.ValidationError{
			Field:   "BaseURL",
			Value:   o.BaseURL,
			Message: fmt.Sprintf("inventory API base URL is required (set %s)", constants.EnvBaseURL),
		}
	}
	if u, err := url.Parse(o.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &errors.ValidationError{
			Field:   "BaseURL",
			Value:   o.BaseURL,
			Message: "must be an absolute URL",
		}
	}
	if o.Token == "" {
		return &errors.ValidationError{
			Field:   "Token",
			Value:   "",
			Message: fmt.Sprintf("inventory API token is required (set %s)", constants.EnvToken),
		}
	}
	if o.RequestDelay < 0 {
		return &errors.ValidationError{
			Field:   "RequestDelay",
			Value:   o.RequestDelay,
			Message: "request delay must be non-negative",
		}
	}
	if o.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   o.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if o.PageSize < 1 || o.PageSize > constants.MaxPageSize {
		return &errors.ValidationError{
			Field:   "PageSize",
			Value:   o.PageSize,
			Message: fmt.Sprintf("page size must be between 1 and %d", constants.MaxPageSize),
		}
	}
	if _, err := reconciler.ParseRenamePolicy(string(o.RenamePolicy)); err != nil {
		return err
	}

	required := []struct {
		field string
		value string
	}{
		{"Defaults.ReadyStatus", o.Defaults.ReadyStatus},
		{"Defaults.DeployedStatus", o.Defaults.DeployedStatus},
		{"Defaults.Location", o.Defaults.Location},
		{"Defaults.Company", o.Defaults.Company},
	}
	for _, r := range required {
		if r.value == "" {
			return &errors.ValidationError{Field: r.field, Value: r.value, Message: "must not be empty"}
		}
	}
	return nil
}

// ValidateFeeds checks the options needed to read the feeds.
func (o *Options) ValidateFeeds() error {
	if o.DevicesPath == "" {
		return &errors.ValidationError{Field: "DevicesPath", Value: "", Message: "device feed path is required"}
	}
	if o.DirectoryPath == "" {
		return &errors.ValidationError{Field: "DirectoryPath", Value: "", Message: "directory feed path is required"}
	}
	if o.DefaultCategory == "" {
		return &errors.ValidationError{Field: "DefaultCategory", Value: "", Message: "must not be empty"}
	}
	return nil
}

// WithAPI configures the inventory API root and token.
func WithAPI(baseURL, token string) Option {
	return func(opts *Options) {
		opts.BaseURL = baseURL
		opts.Token = token
	}
}

// WithUserPassword configures the password given to provisioned users.
func WithUserPassword(password string) Option {
	return func(opts *Options) {
		opts.UserPassword = password
	}
}

// WithRequestDelay configures remote call pacing.
func WithRequestDelay(d time.Duration) Option {
	return func(opts *Options) {
		opts.RequestDelay = d
	}
}

// WithTimeout configures the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithPageSize configures the collection page size.
func WithPageSize(n int) Option {
	return func(opts *Options) {
		opts.PageSize = n
	}
}

// WithFeeds configures the device and directory feed paths.
func WithFeeds(devices, directory string) Option {
	return func(opts *Options) {
		opts.DevicesPath = devices
		opts.DirectoryPath = directory
	}
}

// WithDevices configures the device feed path.
func WithDevices(path string) Option {
	return func(opts *Options) {
		opts.DevicesPath = path
	}
}

// WithDirectory configures the directory feed path.
func WithDirectory(path string) Option {
	return func(opts *Options) {
		opts.DirectoryPath = path
	}
}

// WithAdminSchema configures the shared-ownership schema path.
func WithAdminSchema(path string) Option {
	return func(opts *Options) {
		opts.AdminSchemaPath = path
	}
}

// WithAuxUserColumns configures the auxiliary user-hint columns.
func WithAuxUserColumns(columns ...string) Option {
	return func(opts *Options) {
		opts.AuxUserColumns = columns
	}
}

// WithSerialSkipList configures the placeholder serial patterns.
func WithSerialSkipList(patterns ...string) Option {
	return func(opts *Options) {
		opts.SerialSkipList = patterns
	}
}

// WithDefaults configures the required reference names.
func WithDefaults(d snapshot.Defaults) Option {
	return func(opts *Options) {
		opts.Defaults = d
	}
}

// WithDefaultCategory configures the fallback category name.
func WithDefaultCategory(name string) Option {
	return func(opts *Options) {
		opts.DefaultCategory = name
	}
}

// WithHostnamePrefix configures the personal machine name prefix.
func WithHostnamePrefix(prefix string) Option {
	return func(opts *Options) {
		opts.HostnamePrefix = prefix
	}
}

// WithRenamePolicy configures how renamed devices are handled.
func WithRenamePolicy(policy reconciler.RenamePolicy) Option {
	return func(opts *Options) {
		opts.RenamePolicy = policy
	}
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}
