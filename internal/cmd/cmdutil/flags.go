// Package cmdutil provides shared flags for assetsync commands.
package cmdutil

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/assetsync/pkg/reconciler"
	"github.com/agentstation/assetsync/pkg/sync"
)

// FeedFlags locate the input files.
type FeedFlags struct {
	Devices     string
	Directory   string
	AdminSchema string
}

// AddFeedFlags adds the feed path flags to a command.
func AddFeedFlags(cmd *cobra.Command) *FeedFlags {
	flags := &FeedFlags{}

	cmd.Flags().StringVarP(&flags.Devices, "devices", "d", "",
		"Device feed CSV (overrides feeds.devices)")
	cmd.Flags().StringVarP(&flags.Directory, "directory", "u", "",
		"Personnel directory CSV (overrides feeds.directory)")
	cmd.Flags().StringVar(&flags.AdminSchema, "admin-schema", "",
		"Shared-ownership schema CSV (overrides feeds.admin_schema)")

	return flags
}

// Options returns the sync options for the flags that were set.
func (f *FeedFlags) Options(cmd *cobra.Command) []sync.Option {
	var opts []sync.Option
	if cmd.Flags().Changed("devices") {
		opts = append(opts, sync.WithDevices(f.Devices))
	}
	if cmd.Flags().Changed("directory") {
		opts = append(opts, sync.WithDirectory(f.Directory))
	}
	if cmd.Flags().Changed("admin-schema") {
		opts = append(opts, sync.WithAdminSchema(f.AdminSchema))
	}
	return opts
}

// RunFlags control a sync run.
type RunFlags struct {
	DryRun         bool
	RenamePolicy   string
	RequestDelay   time.Duration
	HostnamePrefix string
	Strict         bool
}

// AddRunFlags adds the run flags to a command.
func AddRunFlags(cmd *cobra.Command) *RunFlags {
	flags := &RunFlags{}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Log and count writes without sending them")
	cmd.Flags().StringVar(&flags.RenamePolicy, "rename-policy", "",
		"Renamed devices: rename, recreate or ignore")
	cmd.Flags().DurationVar(&flags.RequestDelay, "request-delay", 0,
		"Pause between API calls (overrides api.request_delay)")
	cmd.Flags().StringVar(&flags.HostnamePrefix, "hostname-prefix", "",
		"First segment of personal machine names")
	cmd.Flags().BoolVar(&flags.Strict, "strict", false,
		"Exit non-zero when any device failed or needs manual intervention")

	return flags
}

// Options returns the sync options for the flags that were set.
func (f *RunFlags) Options(cmd *cobra.Command) []sync.Option {
	opts := []sync.Option{sync.WithDryRun(f.DryRun)}
	if cmd.Flags().Changed("rename-policy") {
		opts = append(opts, sync.WithRenamePolicy(reconciler.RenamePolicy(f.RenamePolicy)))
	}
	if cmd.Flags().Changed("request-delay") {
		opts = append(opts, sync.WithRequestDelay(f.RequestDelay))
	}
	if cmd.Flags().Changed("hostname-prefix") {
		opts = append(opts, sync.WithHostnamePrefix(f.HostnamePrefix))
	}
	return opts
}
