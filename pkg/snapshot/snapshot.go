// Package snapshot loads the inventory API's reference collections, users
// and hardware into in-memory repositories before a run mutates anything.
package snapshot

import (
	"context"
	"strings"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/inventory"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/notes"
	"github.com/agentstation/assetsync/pkg/snipeit"
)

// Source lists the remote collections a snapshot is built from.
type Source interface {
	ListManufacturers(ctx context.Context) ([]snipeit.Named, error)
	ListCategories(ctx context.Context) ([]snipeit.Named, error)
	ListStatusLabels(ctx context.Context) ([]snipeit.StatusLabel, error)
	ListLocations(ctx context.Context) ([]snipeit.Named, error)
	ListCompanies(ctx context.Context) ([]snipeit.Named, error)
	ListModels(ctx context.Context) ([]snipeit.Model, error)
	ListUsers(ctx context.Context) ([]snipeit.User, error)
	ListHardware(ctx context.Context) ([]snipeit.Hardware, error)
}

// Defaults names the reference entities every run depends on.
type Defaults struct {
	ReadyStatus    string
	DeployedStatus string
	Location       string
	Company        string
}

// DefaultDefaults returns the stock reference names.
func DefaultDefaults() Defaults {
	return Defaults{
		ReadyStatus:    constants.DefaultReadyStatusName,
		DeployedStatus: constants.DefaultDeployedStatusName,
		Location:       constants.DefaultLocationName,
		Company:        constants.DefaultCompanyName,
	}
}

// Snapshot is the run's view of remote state.
type Snapshot struct {
	Manufacturers *inventory.ReferenceIndex
	Categories    *inventory.ReferenceIndex
	StatusLabels  *inventory.ReferenceIndex
	Locations     *inventory.ReferenceIndex
	Companies     *inventory.ReferenceIndex
	Models        *inventory.ModelIndex
	Users         *inventory.UserIndex
	Assets        *inventory.AssetIndex

	ReadyStatusID    int
	DeployedStatusID int
	LocationID       int
	CompanyID        int
}

// Load fetches every collection from src. A transport or API failure on any
// collection aborts the load, as does a missing default status label,
// location or company.
func Load(ctx context.Context, src Source, defaults Defaults) (*Snapshot, error) {
	logger := logging.FromContext(ctx)

	snap := &Snapshot{
		Manufacturers: inventory.NewReferenceIndex(inventory.KindManufacturer),
		Categories:    inventory.NewReferenceIndex(inventory.KindCategory),
		StatusLabels:  inventory.NewReferenceIndex(inventory.KindStatusLabel),
		Locations:     inventory.NewReferenceIndex(inventory.KindLocation),
		Companies:     inventory.NewReferenceIndex(inventory.KindCompany),
		Models:        inventory.NewModelIndex(),
		Users:         inventory.NewUserIndex(),
		Assets:        inventory.NewAssetIndex(),
	}

	named := []struct {
		index *inventory.ReferenceIndex
		list  func(context.Context) ([]snipeit.Named, error)
	}{
		{snap.Manufacturers, src.ListManufacturers},
		{snap.Categories, src.ListCategories},
		{snap.Locations, src.ListLocations},
		{snap.Companies, src.ListCompanies},
	}
	for _, n := range named {
		rows, err := n.list(ctx)
		if err != nil {
			return nil, errors.WrapResource("fetch", string(n.index.Kind)+"s", "", err)
		}
		for _, row := range rows {
			n.index.Put(row.Name, row.ID)
		}
		logger.Info().Int("count", n.index.Len()).Msgf("Collected %ss", n.index.Kind)
	}

	labels, err := src.ListStatusLabels(ctx)
	if err != nil {
		return nil, errors.WrapResource("fetch", "status labels", "", err)
	}
	for _, l := range labels {
		snap.StatusLabels.Put(l.Name, l.ID)
	}
	logger.Info().Int("count", snap.StatusLabels.Len()).Msg("Collected status labels")

	models, err := src.ListModels(ctx)
	if err != nil {
		return nil, errors.WrapResource("fetch", "models", "", err)
	}
	for _, m := range models {
		if m.Manufacturer == nil || m.Category == nil || m.Manufacturer.ID == 0 || m.Category.ID == 0 {
			continue
		}
		snap.Models.Put(inventory.NewModelKey(m.Name, m.Manufacturer.ID, m.Category.ID), m.ID)
	}
	logger.Info().Int("count", snap.Models.Len()).Msg("Collected models")

	users, err := src.ListUsers(ctx)
	if err != nil {
		return nil, errors.WrapResource("fetch", "users", "", err)
	}
	for _, u := range users {
		snap.Users.Put(UserFromRemote(u))
	}
	logger.Info().Int("count", snap.Users.Len()).Msg("Collected users")

	hardware, err := src.ListHardware(ctx)
	if err != nil {
		return nil, errors.WrapResource("fetch", "hardware", "", err)
	}
	for _, h := range hardware {
		if h.ID == 0 || strings.TrimSpace(h.AssetTag) == "" {
			continue
		}
		snap.Assets.Put(AssetFromHardware(h))
	}
	logger.Info().Int("count", snap.Assets.Len()).Msg("Collected assets")

	if err := snap.resolveDefaults(defaults); err != nil {
		return nil, err
	}
	return snap, nil
}

// resolveDefaults checks the required reference entities exist.
func (s *Snapshot) resolveDefaults(d Defaults) error {
	required := []struct {
		index *inventory.ReferenceIndex
		name  string
		dest  *int
	}{
		{s.StatusLabels, d.ReadyStatus, &s.ReadyStatusID},
		{s.StatusLabels, d.DeployedStatus, &s.DeployedStatusID},
		{s.Locations, d.Location, &s.LocationID},
		{s.Companies, d.Company, &s.CompanyID},
	}
	for _, r := range required {
		id, ok := r.index.Get(r.name)
		if !ok {
			return errors.NewPreconditionError(string(r.index.Kind), r.name)
		}
		*r.dest = id
	}
	return nil
}

// UserFromRemote converts a remote user to its cached form.
func UserFromRemote(u snipeit.User) inventory.RemoteUser {
	return inventory.RemoteUser{
		ID:         u.ID,
		NetID:      inventory.NormalizeNetID(u.Username),
		EmployeeID: strings.TrimSpace(u.EmployeeNum),
		Email:      u.Email,
	}
}

// AssetFromHardware converts a remote hardware record to its cached form,
// recovering the last-seen time from the notes marker.
func AssetFromHardware(h snipeit.Hardware) inventory.RemoteAsset {
	return inventory.RemoteAsset{
		ID:         h.ID,
		Tag:        h.AssetTag,
		Name:       h.Name,
		Notes:      h.Notes,
		LastSeen:   notes.Parse(h.Notes),
		AssignedTo: h.AssignedUserID(),
		StatusID:   h.StatusLabel.ID,
	}
}
