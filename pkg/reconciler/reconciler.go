// Package reconciler drives each remote hardware record toward the state the
// device feed implies.
//
// Per device the record is created when absent, its last-seen marker is
// patched when the feed is newer, and, when an owner was resolved, it is
// moved through ready, checkin and checkout. Every mutation is verified
// against a fresh read of the record.
package reconciler

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/inventory"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/notes"
	"github.com/agentstation/assetsync/pkg/snapshot"
	"github.com/agentstation/assetsync/pkg/snipeit"
)

// Remote is the subset of the inventory API the reconciler writes through.
type Remote interface {
	CreateAsset(ctx context.Context, req snipeit.AssetRequest) (snipeit.Hardware, error)
	GetAsset(ctx context.Context, id int) (snipeit.Hardware, error)
	UpdateAsset(ctx context.Context, id int, patch snipeit.AssetPatch) error
	CheckinAsset(ctx context.Context, id int, req snipeit.CheckinRequest) error
	CheckoutAsset(ctx context.Context, id int, req snipeit.CheckoutRequest) error
	DeleteAsset(ctx context.Context, id int) error
}

// RenamePolicy decides what happens when a newer feed row names an existing
// record differently.
type RenamePolicy string

const (
	// RenameInPlace updates the record's name along with its notes.
	RenameInPlace RenamePolicy = "rename"
	// RenameRecreate deletes the record and creates a fresh one.
	RenameRecreate RenamePolicy = "recreate"
	// RenameIgnore keeps the remote name.
	RenameIgnore RenamePolicy = "ignore"
)

// ParseRenamePolicy parses a policy name. Empty means RenameInPlace.
func ParseRenamePolicy(s string) (RenamePolicy, error) {
	switch p := RenamePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RenameInPlace, nil
	case RenameInPlace, RenameRecreate, RenameIgnore:
		return p, nil
	default:
		return "", errors.NewValidationError("rename_policy", s, "must be one of rename, recreate, ignore")
	}
}

// Target is a device ready for reconciliation.
type Target struct {
	Device  inventory.DeviceRecord
	ModelID int
	// Owner is the resolved user; a zero ID means nobody.
	Owner inventory.RemoteUser
}

// Stats counts reconciliation work.
type Stats struct {
	Created           int `json:"created" yaml:"created"`
	Recreated         int `json:"recreated" yaml:"recreated"`
	CreateConflicts   int `json:"create_conflicts" yaml:"create_conflicts"`
	NotesUpdated      int `json:"notes_updated" yaml:"notes_updated"`
	Renamed           int `json:"renamed" yaml:"renamed"`
	Unchanged         int `json:"unchanged" yaml:"unchanged"`
	Unassigned        int `json:"unassigned" yaml:"unassigned"`
	AlreadyCheckedOut int `json:"already_checked_out" yaml:"already_checked_out"`
	StatusResets      int `json:"status_resets" yaml:"status_resets"`
	CheckedIn         int `json:"checked_in" yaml:"checked_in"`
	CheckedOut        int `json:"checked_out" yaml:"checked_out"`
	Repaired          int `json:"repaired" yaml:"repaired"`
	Diverged          int `json:"diverged" yaml:"diverged"`
	Failed            int `json:"failed" yaml:"failed"`
}

// Outcome describes what happened to one device.
type Outcome struct {
	Serial  string
	AssetID int
	Created bool
	// Skipped explains why asset-level work stopped early.
	Skipped string
	Steps   []StepResult
	Err     error
}

// Reconciler reconciles targets one at a time.
type Reconciler struct {
	remote Remote
	snap   *snapshot.Snapshot
	policy RenamePolicy
	stats  Stats
}

// New creates a Reconciler that reads and updates the asset cache in snap.
func New(remote Remote, snap *snapshot.Snapshot, policy RenamePolicy) *Reconciler {
	if policy == "" {
		policy = RenameInPlace
	}
	return &Reconciler{remote: remote, snap: snap, policy: policy}
}

// Stats returns the counts so far.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

// Reconcile runs the state machine for one device. Remote failures are
// logged and recorded on the outcome; they never stop the caller.
func (r *Reconciler) Reconcile(ctx context.Context, t Target) Outcome {
	d := t.Device
	ctx = logging.WithSerial(ctx, d.Serial)
	logger := logging.FromContext(ctx)
	out := Outcome{Serial: d.Serial}

	asset, exists := r.snap.Assets.Get(d.Serial)
	if exists && d.LastSeen.After(asset.LastSeen) {
		var err error
		asset, exists, err = r.refresh(ctx, t, asset)
		if err != nil {
			out.Err = err
			r.stats.Failed++
			logger.Error().Err(err).Msg("Failed to refresh asset")
			logging.Response(logger, err)
		}
	} else if exists {
		r.stats.Unchanged++
		if !sameName(asset.Name, d.Name) {
			logger.Debug().Str("remote_name", asset.Name).Str("feed_name", d.Name).Msg("Name differs but feed is not newer; keeping remote record")
		}
	}

	if !exists {
		created, err := r.create(ctx, t)
		if err != nil {
			out.Err = err
			if errors.IsAlreadyExists(err) {
				r.stats.CreateConflicts++
				out.Skipped = "asset tag already taken"
				logger.Warn().Msg("Asset was created elsewhere since the snapshot; skipping until next run")
			} else {
				r.stats.Failed++
				out.Skipped = "create failed"
				logger.Error().Err(err).Msg("Failed to create asset")
				logging.Response(logger, err)
			}
			return out
		}
		asset = created
		out.Created = true
	}
	out.AssetID = asset.ID

	if t.Owner.ID == 0 {
		r.stats.Unassigned++
		logger.Debug().Msg("No owner resolved; leaving assignment as is")
		return out
	}

	steps, err := r.assign(ctx, asset, t.Owner)
	out.Steps = steps
	if err != nil {
		out.Err = err
		r.stats.Failed++
		logger.Error().Err(err).Msg("Failed to assign asset")
		logging.Response(logger, err)
	}
	return out
}

// create posts a new record for the device and caches it.
func (r *Reconciler) create(ctx context.Context, t Target) (inventory.RemoteAsset, error) {
	d := t.Device
	h, err := r.remote.CreateAsset(ctx, snipeit.AssetRequest{
		AssetTag:   d.Serial,
		Name:       d.Name,
		Serial:     d.Serial,
		ModelID:    t.ModelID,
		StatusID:   r.snap.ReadyStatusID,
		LocationID: r.snap.LocationID,
		CompanyID:  r.snap.CompanyID,
		Notes:      notes.Format(d.LastSeen),
	})
	if err != nil {
		return inventory.RemoteAsset{}, err
	}
	asset := snapshot.AssetFromHardware(h)
	if asset.Tag == "" {
		asset.Tag = d.Serial
	}
	r.snap.Assets.Put(asset)
	r.stats.Created++
	logging.FromContext(ctx).Info().Int("asset_id", asset.ID).Str("name", d.Name).Msg("Created asset")
	return asset, nil
}

// refresh applies a newer feed row to an existing record. It reports
// exists=false when the record was deleted for recreation.
func (r *Reconciler) refresh(ctx context.Context, t Target, asset inventory.RemoteAsset) (inventory.RemoteAsset, bool, error) {
	d := t.Device
	logger := logging.FromContext(ctx)
	renamed := !sameName(asset.Name, d.Name)

	if renamed && r.policy == RenameRecreate {
		if err := r.remote.DeleteAsset(ctx, asset.ID); err != nil {
			return asset, true, err
		}
		r.snap.Assets.Delete(d.Serial)
		r.stats.Recreated++
		logger.Info().
			Int("asset_id", asset.ID).
			Str("remote_name", asset.Name).
			Str("feed_name", d.Name).
			Msg("Deleted repurposed asset for recreation")
		return inventory.RemoteAsset{}, false, nil
	}

	patched := notes.Patch(asset.Notes, d.LastSeen)
	patch := snipeit.AssetPatch{Notes: &patched}
	if renamed && r.policy == RenameInPlace {
		name := d.Name
		patch.Name = &name
	}
	if err := r.remote.UpdateAsset(ctx, asset.ID, patch); err != nil {
		return asset, true, err
	}

	event := logger.Info().
		Int("asset_id", asset.ID).
		Time("previous", asset.LastSeen).
		Time("last_seen", d.LastSeen)
	asset.Notes = patched
	asset.LastSeen = d.LastSeen
	r.stats.NotesUpdated++
	if patch.Name != nil {
		event = event.Str("previous_name", asset.Name).Str("name", d.Name)
		asset.Name = d.Name
		r.stats.Renamed++
	}
	r.snap.Assets.Put(asset)
	event.Msg("Updated last report")
	return asset, true, nil
}

// assign moves the record to checked out by owner.
func (r *Reconciler) assign(ctx context.Context, asset inventory.RemoteAsset, owner inventory.RemoteUser) ([]StepResult, error) {
	logger := logging.FromContext(ctx).With().Int("asset_id", asset.ID).Int("owner_id", owner.ID).Logger()
	ready, deployed := r.snap.ReadyStatusID, r.snap.DeployedStatusID

	live, err := r.remote.GetAsset(ctx, asset.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		asset.AssignedTo = live.AssignedUserID()
		asset.StatusID = live.StatusLabel.ID
		r.snap.Assets.Put(asset)
	}()

	if live.AssignedUserID() == owner.ID && live.StatusLabel.ID == deployed {
		r.stats.AlreadyCheckedOut++
		logger.Debug().Msg("Already checked out to owner")
		return nil, nil
	}

	var results []StepResult
	run := func(step Step) (bool, error) {
		v, h, err := r.converge(ctx, asset.ID, asset.Tag, step)
		if err != nil {
			return false, err
		}
		live = h
		results = append(results, StepResult{Step: step.Name, Verification: v})
		switch v {
		case Repaired:
			r.stats.Repaired++
		case Diverged:
			r.stats.Diverged++
			logger.Error().Str("step", step.Name).Msg("Stopping transitions for this asset; manual intervention required")
			return false, nil
		}
		return true, nil
	}

	if live.StatusLabel.ID != ready {
		setReady := func(ctx context.Context) error {
			return r.remote.UpdateAsset(ctx, asset.ID, snipeit.AssetPatch{StatusID: &ready})
		}
		ok, err := run(Step{
			Name:     "status",
			Apply:    setReady,
			Repair:   setReady,
			Expect:   func(h snipeit.Hardware) bool { return h.StatusLabel.ID == ready },
			Describe: fmt.Sprintf("status %d", ready),
		})
		if !ok {
			return results, err
		}
		r.stats.StatusResets++
	}

	if live.Assigned() {
		previous := live.AssignedTo
		checkin := func(ctx context.Context) error {
			return r.remote.CheckinAsset(ctx, asset.ID, snipeit.CheckinRequest{StatusID: ready})
		}
		ok, err := run(Step{
			Name:   "checkin",
			Apply:  checkin,
			Repair: checkin,
			Expect: func(h snipeit.Hardware) bool {
				return !h.Assigned() && h.StatusLabel.ID == ready
			},
			Describe: fmt.Sprintf("status %d, assigned 0", ready),
		})
		if !ok {
			return results, err
		}
		r.stats.CheckedIn++
		logger.Info().
			Int("previous_id", previous.ID).
			Str("previous_type", previous.Type).
			Msg("Checked in asset")
	}

	ok, err := run(Step{
		Name: "checkout",
		Apply: func(ctx context.Context) error {
			return r.remote.CheckoutAsset(ctx, asset.ID, snipeit.CheckoutRequest{AssignedUser: owner.ID, StatusID: deployed})
		},
		Repair: func(ctx context.Context) error {
			return r.remote.UpdateAsset(ctx, asset.ID, snipeit.AssetPatch{StatusID: &deployed})
		},
		Expect: func(h snipeit.Hardware) bool {
			return h.AssignedUserID() == owner.ID && h.StatusLabel.ID == deployed
		},
		Describe: fmt.Sprintf("status %d, assigned %d", deployed, owner.ID),
	})
	if !ok {
		return results, err
	}
	r.stats.CheckedOut++
	logger.Info().Msg("Checked out asset")
	return results, nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

