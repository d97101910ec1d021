package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/assetsync/pkg/feeds"
	"github.com/agentstation/assetsync/pkg/reconciler"
	"github.com/agentstation/assetsync/pkg/resolver"
	"github.com/agentstation/assetsync/pkg/taxonomy"
)

// Result represents the complete result of a sync run.
type Result struct {
	RunID     string        `json:"run_id" yaml:"run_id"`         // Identifier attached to every log line of the run
	DryRun    bool          `json:"dry_run" yaml:"dry_run"`       // Whether writes were only planned
	StartedAt time.Time     `json:"started_at" yaml:"started_at"` // When the run started
	Duration  time.Duration `json:"duration" yaml:"duration"`     // How long the run took

	Devices   feeds.DeviceStats    `json:"devices" yaml:"devices"`
	Directory feeds.DirectoryStats `json:"directory" yaml:"directory"`
	Rules     int                  `json:"rules" yaml:"rules"` // Shared-ownership rules loaded

	Snapshot SnapshotCounts          `json:"snapshot" yaml:"snapshot"`
	Taxonomy taxonomy.Stats          `json:"taxonomy" yaml:"taxonomy"`
	Users    taxonomy.ProvisionStats `json:"users" yaml:"users"`
	Owners   resolver.Stats          `json:"owners" yaml:"owners"`
	Assets   reconciler.Stats        `json:"assets" yaml:"assets"`

	// Failures lists the devices whose remote work was abandoned.
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// SnapshotCounts is the size of the remote state a run started from.
type SnapshotCounts struct {
	Manufacturers int `json:"manufacturers" yaml:"manufacturers"`
	Categories    int `json:"categories" yaml:"categories"`
	Models        int `json:"models" yaml:"models"`
	Users         int `json:"users" yaml:"users"`
	Assets        int `json:"assets" yaml:"assets"`
}

// Failure is one abandoned device.
type Failure struct {
	Serial string `json:"serial" yaml:"serial"`
	Reason string `json:"reason" yaml:"reason"`
}

// Row is one line of the run summary.
type Row struct {
	Phase  string `json:"phase" yaml:"phase"`
	Metric string `json:"metric" yaml:"metric"`
	Count  int    `json:"count" yaml:"count"`
}

// Writes returns the number of mutating operations the run made (or, in a
// dry run, would have made).
func (r *Result) Writes() int {
	a := r.Assets
	return r.Taxonomy.ManufacturersCreated + r.Taxonomy.ModelsCreated + r.Users.Created +
		a.Created + a.Recreated + a.NotesUpdated + a.StatusResets + a.CheckedIn + a.CheckedOut
}

// HasChanges returns true if the run wrote anything.
func (r *Result) HasChanges() bool {
	return r.Writes() > 0
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	var parts []string
	if r.DryRun {
		parts = append(parts, "(Dry run: changes planned, not applied)")
	}
	if r.Assets.Diverged > 0 {
		parts = append(parts, fmt.Sprintf("(%d assets need manual intervention)", r.Assets.Diverged))
	}

	summary := "No changes detected"
	if r.HasChanges() {
		summary = fmt.Sprintf("%d changes across %d devices: %d assets created, %d checked out",
			r.Writes(), r.Devices.Unique, r.Assets.Created, r.Assets.CheckedOut)
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}

// Rows flattens the result into the Phase / Metric / Count summary table.
func (r *Result) Rows() []Row {
	rows := []Row{
		{"feeds", "device rows", r.Devices.Rows},
		{"feeds", "unique devices", r.Devices.Unique},
		{"feeds", "duplicate rows", r.Devices.Duplicates},
		{"feeds", "skipped rows", r.Devices.Skipped},
		{"feeds", "unparseable timestamps", r.Devices.BadTimestamps},
		{"feeds", "directory entries", r.Directory.Loaded},
		{"feeds", "incomplete directory rows", r.Directory.Incomplete},
		{"feeds", "shared-ownership rules", r.Rules},

		{"taxonomy", "manufacturers created", r.Taxonomy.ManufacturersCreated},
		{"taxonomy", "models created", r.Taxonomy.ModelsCreated},
		{"taxonomy", "category fallbacks", r.Taxonomy.CategoryFallbacks},
		{"taxonomy", "devices excluded", r.Taxonomy.DevicesExcluded},

		{"users", "provisioned", r.Users.Created},
		{"users", "already present", r.Users.Existing + r.Users.Recovered},
		{"users", "failed", r.Users.Failed},

		{"owners", "by primary hint", r.Owners.ByStrategy[resolver.StrategyPrimary]},
		{"owners", "by plurality", r.Owners.ByStrategy[resolver.StrategyPlurality]},
		{"owners", "by hostname", r.Owners.ByStrategy[resolver.StrategyHostname]},
		{"owners", "by shared-ownership schema", r.Owners.ByStrategy[resolver.StrategySchema]},
		{"owners", "unassigned", r.Owners.Unassigned},

		{"assets", "created", r.Assets.Created},
		{"assets", "recreated", r.Assets.Recreated},
		{"assets", "creation conflicts", r.Assets.CreateConflicts},
		{"assets", "last report updated", r.Assets.NotesUpdated},
		{"assets", "renamed", r.Assets.Renamed},
		{"assets", "checked in", r.Assets.CheckedIn},
		{"assets", "checked out", r.Assets.CheckedOut},
		{"assets", "already checked out", r.Assets.AlreadyCheckedOut},
		{"assets", "repaired", r.Assets.Repaired},
		{"assets", "need manual intervention", r.Assets.Diverged},
		{"assets", "failed", r.Assets.Failed},
	}
	return rows
}
