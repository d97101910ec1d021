package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/assetsync/internal/transport"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/feeds"
	"github.com/agentstation/assetsync/pkg/inventory"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/reconciler"
	"github.com/agentstation/assetsync/pkg/resolver"
	"github.com/agentstation/assetsync/pkg/snapshot"
	"github.com/agentstation/assetsync/pkg/snipeit"
	"github.com/agentstation/assetsync/pkg/taxonomy"
)

// Run phases, as they appear in the "phase" log field.
const (
	PhaseFeeds    = "feeds"
	PhaseSnapshot = "snapshot"
	PhaseTaxonomy = "taxonomy"
	PhaseUsers    = "users"
	PhaseAssets   = "assets"
)

// inputs are the parsed feeds of one run.
type inputs struct {
	devices   *feeds.DeviceFeed
	directory *feeds.DirectoryFeed
	rules     []inventory.AdminRule
}

// NewClient returns an inventory API client configured from o.
func NewClient(o *Options) *snipeit.Client {
	api := transport.New(o.BaseURL, o.Token,
		transport.WithTimeout(o.Timeout),
		transport.WithRequestDelay(o.RequestDelay),
	)
	return snipeit.New(api,
		snipeit.WithPageSize(o.PageSize),
		snipeit.WithDryRun(o.DryRun),
	)
}

// Run performs one full pass: it reads the feeds, snapshots remote state,
// creates missing manufacturers and models, provisions directory users, and
// reconciles every device.
//
// Feed and snapshot failures abort the run before any write. After that,
// per-entity failures are logged and counted and the run carries on. A
// canceled context stops the run between devices; the partial result is
// returned alongside the context error.
func Run(ctx context.Context, opts ...Option) (*Result, error) {
	options := Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		DryRun:    options.DryRun,
		StartedAt: time.Now(),
	}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.FromContext(ctx)
	defer func() {
		result.Duration = time.Since(result.StartedAt)
	}()

	logger.Info().
		Str("api", options.BaseURL).
		Bool("dry_run", options.DryRun).
		Str("rename_policy", string(options.RenamePolicy)).
		Msg("Starting sync")

	in, err := loadFeeds(logging.WithPhase(ctx, PhaseFeeds), options, result)
	if err != nil {
		return nil, err
	}

	client := NewClient(options)
	snap, err := snapshot.Load(logging.WithPhase(ctx, PhaseSnapshot), client, options.Defaults)
	if err != nil {
		logger.Error().Err(err).Msg("Remote snapshot failed; no changes were made")
		logging.Response(logger, err)
		return nil, err
	}
	result.Snapshot = CountSnapshot(snap)

	resolved, stats := taxonomy.NewResolver(client, snap, options.DefaultCategory).
		Resolve(logging.WithPhase(ctx, PhaseTaxonomy), in.devices.Records)
	result.Taxonomy = stats

	result.Users = taxonomy.NewProvisioner(client, snap.Users, options.UserPassword).
		Provision(logging.WithPhase(ctx, PhaseUsers), in.directory.Directory)

	engine := resolver.New(in.directory.Directory, snap.Users,
		resolver.WithHostnamePrefix(options.HostnamePrefix),
		resolver.WithAdminRules(in.rules),
	)
	rec := reconciler.New(client, snap, options.RenamePolicy)
	actx := logging.WithPhase(ctx, PhaseAssets)
	for i := range resolved {
		if err := ctx.Err(); err != nil {
			result.Assets = rec.Stats()
			logger.Warn().Int("remaining", len(resolved)-i).Msg("Sync interrupted")
			return result, err
		}

		device := resolved[i].Device
		resolution := engine.Resolve(&device)
		result.Owners.Record(resolution)
		if resolution.Resolved() {
			logging.FromContext(actx).Debug().
				Str("serial", device.Serial).
				Str("owner", resolution.User.NetID).
				Str("strategy", resolution.Strategy).
				Msg("Resolved owner")
		}

		out := rec.Reconcile(actx, reconciler.Target{
			Device:  device,
			ModelID: resolved[i].ModelID,
			Owner:   resolution.User,
		})
		if out.Err != nil && !errors.IsAlreadyExists(out.Err) {
			result.Failures = append(result.Failures, Failure{Serial: out.Serial, Reason: out.Err.Error()})
		}
	}
	result.Assets = rec.Stats()

	logger.Info().
		Int("writes", result.Writes()).
		Int("failures", len(result.Failures)).
		Int("diverged", result.Assets.Diverged).
		Dur("duration", time.Since(result.StartedAt)).
		Msg("Sync complete")
	return result, nil
}

// CheckFeeds parses the feeds without contacting the inventory API and
// reports what a run would start from.
func CheckFeeds(ctx context.Context, opts ...Option) (*Result, error) {
	options := Defaults().Apply(opts...)
	if err := options.ValidateFeeds(); err != nil {
		return nil, err
	}
	result := &Result{RunID: uuid.NewString(), DryRun: true, StartedAt: time.Now()}
	ctx = logging.WithRunID(ctx, result.RunID)
	if _, err := loadFeeds(logging.WithPhase(ctx, PhaseFeeds), options, result); err != nil {
		return nil, err
	}
	result.Duration = time.Since(result.StartedAt)
	return result, nil
}

// Inspect loads the remote snapshot without writing anything.
func Inspect(ctx context.Context, opts ...Option) (*snapshot.Snapshot, error) {
	options := Defaults().Apply(opts...)
	if err := options.ValidateRemote(); err != nil {
		return nil, err
	}
	ctx = logging.WithPhase(logging.WithRunID(ctx, uuid.NewString()), PhaseSnapshot)
	return snapshot.Load(ctx, NewClient(options), options.Defaults)
}

// loadFeeds reads every feed. Any unreadable or malformed feed is fatal.
func loadFeeds(ctx context.Context, o *Options, result *Result) (*inputs, error) {
	logger := logging.FromContext(ctx)

	devices, err := feeds.LoadDevices(ctx, o.DevicesPath, feeds.DeviceOptions{
		AuxUserColumns:  o.AuxUserColumns,
		SkipList:        o.SerialSkipList,
		DefaultCategory: o.DefaultCategory,
	})
	if err != nil {
		return nil, err
	}
	directory, err := feeds.LoadDirectory(ctx, o.DirectoryPath)
	if err != nil {
		return nil, err
	}
	rules, err := feeds.LoadAdminSchema(ctx, o.AdminSchemaPath)
	if err != nil {
		return nil, err
	}

	result.Devices = devices.Stats
	result.Directory = directory.Stats
	result.Rules = len(rules)

	logger.Info().
		Int("devices", devices.Stats.Unique).
		Int("directory", directory.Stats.Loaded).
		Int("rules", len(rules)).
		Msg("Loaded feeds")
	return &inputs{devices: devices, directory: directory, rules: rules}, nil
}

// CountSnapshot returns the size of each collection in s.
func CountSnapshot(s *snapshot.Snapshot) SnapshotCounts {
	return SnapshotCounts{
		Manufacturers: s.Manufacturers.Len(),
		Categories:    s.Categories.Len(),
		Models:        s.Models.Len(),
		Users:         s.Users.Len(),
		Assets:        s.Assets.Len(),
	}
}
