// Package run provides the sync command implementation.
package run

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/assetsync/internal/cmd/application"
	"github.com/agentstation/assetsync/internal/cmd/cmdutil"
	"github.com/agentstation/assetsync/internal/cmd/output"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/sync"
)

// NewCommand creates the sync command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		feedFlags *cmdutil.FeedFlags
		runFlags  *cmdutil.RunFlags
	)

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Reconcile the asset register with the device feed",
		Long: `Sync runs one full reconciliation pass:

1. Read the device feed, personnel directory and shared-ownership schema
2. Snapshot manufacturers, categories, models, users and hardware
3. Create missing manufacturers and models
4. Provision users for directory entries with no account
5. Resolve each device's owner and drive its record to checked out

Nothing is written when a feed is malformed, the API is unreachable or a
required status label, location or company is missing.`,
		Example: `  assetsync sync                                  # Use configured feeds
  assetsync sync -d devices.csv -u directory.csv  # Explicit feeds
  assetsync sync --dry-run                        # Preview writes
  assetsync sync --rename-policy recreate         # Replace renamed devices`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := append(app.SyncOptions(), feedFlags.Options(cmd)...)
			opts = append(opts, runFlags.Options(cmd)...)
			return Execute(cmd.Context(), app, cmd.OutOrStdout(), cmd.ErrOrStderr(), runFlags.Strict, opts...)
		},
	}

	feedFlags = cmdutil.AddFeedFlags(cmd)
	runFlags = cmdutil.AddRunFlags(cmd)

	return cmd
}

// Execute runs a sync pass and prints its summary.
func Execute(ctx context.Context, app application.Application, stdout, stderr io.Writer, strict bool, opts ...sync.Option) error {
	path, err := app.StartRunLog()
	if err != nil {
		return err
	}
	logger := app.Logger()
	if path != "" {
		logger.Debug().Str("path", path).Msg("Writing run log")
	}
	ctx = logging.WithLogger(ctx, logger)

	result, err := sync.Run(ctx, opts...)
	if result == nil {
		return err
	}

	format := output.Format(app.OutputFormat())
	if werr := output.Write(stdout, format, output.ResultData(result, format == output.FormatWide), result); werr != nil {
		return werr
	}
	if format.Tabular() {
		if len(result.Failures) > 0 {
			fmt.Fprintln(stdout)
			if werr := output.Write(stdout, format, output.FailureData(result.Failures), nil); werr != nil {
				return werr
			}
		}
		fmt.Fprintf(stderr, "\n%s\n", result.Summary())
	}
	if err != nil {
		return err
	}

	if strict && (len(result.Failures) > 0 || result.Assets.Diverged > 0) {
		return fmt.Errorf("%d devices failed or need manual intervention: %w",
			len(result.Failures)+result.Assets.Diverged, errors.ErrVerification)
	}
	return nil
}
