// Package snapshot provides the snapshot command implementation.
package snapshot

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/assetsync/internal/cmd/application"
	"github.com/agentstation/assetsync/internal/cmd/output"
	"github.com/agentstation/assetsync/pkg/logging"
	snap "github.com/agentstation/assetsync/pkg/snapshot"
	"github.com/agentstation/assetsync/pkg/sync"
)

// Summary is what the snapshot command reports.
type Summary struct {
	Counts           sync.SnapshotCounts `json:"counts" yaml:"counts"`
	ReadyStatusID    int                 `json:"ready_status_id" yaml:"ready_status_id"`
	DeployedStatusID int                 `json:"deployed_status_id" yaml:"deployed_status_id"`
	LocationID       int                 `json:"location_id" yaml:"location_id"`
	CompanyID        int                 `json:"company_id" yaml:"company_id"`
}

// NewCommand creates the snapshot command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "snapshot",
		GroupID: "management",
		Short:   "Read remote state and check required reference data",
		Long: `Snapshot reads every collection a sync starts from and resolves the
required status labels, location and company. It never writes.

Use it to check credentials and reference data before the first run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			s, err := sync.Inspect(ctx, app.SyncOptions()...)
			if err != nil {
				return err
			}
			summary := Summarize(s)
			return output.Write(cmd.OutOrStdout(), output.Format(app.OutputFormat()), TableData(summary), summary)
		},
	}
}

// Summarize reduces a snapshot to counts and resolved reference IDs.
func Summarize(s *snap.Snapshot) Summary {
	return Summary{
		Counts:           sync.CountSnapshot(s),
		ReadyStatusID:    s.ReadyStatusID,
		DeployedStatusID: s.DeployedStatusID,
		LocationID:       s.LocationID,
		CompanyID:        s.CompanyID,
	}
}

// TableData renders the summary as a two-column table.
func TableData(s Summary) output.Data {
	rows := []struct {
		name  string
		value int
	}{
		{"manufacturers", s.Counts.Manufacturers},
		{"categories", s.Counts.Categories},
		{"models", s.Counts.Models},
		{"users", s.Counts.Users},
		{"assets", s.Counts.Assets},
		{"ready status ID", s.ReadyStatusID},
		{"deployed status ID", s.DeployedStatusID},
		{"location ID", s.LocationID},
		{"company ID", s.CompanyID},
	}
	data := output.Data{
		Headers:         []string{"Collection", "Value"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight},
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, []string{output.Title(r.name), strconv.Itoa(r.value)})
	}
	return data
}
