// Package validate provides the validate command implementation.
package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/assetsync/internal/cmd/application"
	"github.com/agentstation/assetsync/internal/cmd/cmdutil"
	"github.com/agentstation/assetsync/internal/cmd/output"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/sync"
)

// NewCommand creates the validate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var feedFlags *cmdutil.FeedFlags

	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Check the input feeds without contacting the API",
		Long: `Validate parses the device feed, personnel directory and shared-ownership
schema exactly as a sync would, and reports row counts, duplicates and
skipped rows. Skipped rows are logged with their line numbers.`,
		Example: `  assetsync validate
  assetsync validate -d devices.csv -u directory.csv --admin-schema schema.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			opts := append(app.SyncOptions(), feedFlags.Options(cmd)...)

			result, err := sync.CheckFeeds(ctx, opts...)
			if err != nil {
				return err
			}

			format := output.Format(app.OutputFormat())
			data := output.ResultData(result, format == output.FormatWide)
			if err := output.Write(cmd.OutOrStdout(), format, data, result); err != nil {
				return err
			}
			if format.Tabular() {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nFeeds OK: %d devices, %d directory entries\n",
					result.Devices.Unique, result.Directory.Loaded)
			}
			return nil
		},
	}

	feedFlags = cmdutil.AddFeedFlags(cmd)

	return cmd
}
