package taxonomy

import (
	"context"

	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/inventory"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/snapshot"
	"github.com/agentstation/assetsync/pkg/snipeit"
)

// UserRemote is the subset of the inventory API the provisioner writes through.
type UserRemote interface {
	CreateUser(ctx context.Context, req snipeit.UserRequest) (int, error)
	SearchUsers(ctx context.Context, term string) ([]snipeit.User, error)
}

// ProvisionStats counts provisioning work.
type ProvisionStats struct {
	Existing  int  `json:"existing" yaml:"existing"`
	Created   int  `json:"created" yaml:"created"`
	Recovered int  `json:"recovered" yaml:"recovered"`
	Failed    int  `json:"failed" yaml:"failed"`
	Disabled  bool `json:"disabled" yaml:"disabled"`
}

// Provisioner creates remote users for directory entries that have none.
type Provisioner struct {
	remote   UserRemote
	users    *inventory.UserIndex
	password string
}

// NewProvisioner creates a Provisioner adding new users to users.
func NewProvisioner(remote UserRemote, users *inventory.UserIndex, password string) *Provisioner {
	return &Provisioner{remote: remote, users: users, password: password}
}

// Provision creates every directory entry missing from the user index.
// Without a password nothing is created.
func (p *Provisioner) Provision(ctx context.Context, dir *inventory.Directory) ProvisionStats {
	logger := logging.FromContext(ctx)
	var stats ProvisionStats

	if p.password == "" {
		stats.Disabled = true
		logger.Warn().Msg("No user provisioning password configured; skipping user provisioning")
		return stats
	}

	for _, rec := range dir.Records() {
		if _, ok := p.users.ForDirectory(rec); ok {
			stats.Existing++
			continue
		}
		ulog := logger.With().Str("netid", rec.NetID).Str("employee_id", rec.EmployeeID).Logger()

		id, err := p.remote.CreateUser(ctx, snipeit.UserRequest{
			FirstName:            rec.FirstName,
			LastName:             rec.LastName,
			Username:             rec.NetID,
			Email:                rec.Email,
			EmployeeNum:          rec.EmployeeID,
			Password:             p.password,
			PasswordConfirmation: p.password,
			Activated:            false,
		})
		if err == nil {
			p.users.Put(inventory.RemoteUser{ID: id, NetID: rec.NetID, EmployeeID: rec.EmployeeID, Email: rec.Email})
			stats.Created++
			ulog.Info().Int("id", id).Msg("Provisioned user")
			continue
		}
		if !errors.IsAlreadyExists(err) {
			stats.Failed++
			ulog.Error().Err(err).Msg("Failed to provision user")
			logging.Response(&ulog, err)
			continue
		}

		user, found, serr := p.findUser(ctx, rec.NetID)
		if serr != nil || !found {
			stats.Failed++
			ulog.Error().Err(serr).Msg("User exists remotely but could not be found by search")
			logging.Response(&ulog, serr)
			continue
		}
		p.users.Put(user)
		stats.Recovered++
		ulog.Info().Int("id", user.ID).Msg("User already existed")
	}

	logger.Info().
		Int("existing", stats.Existing).
		Int("created", stats.Created).
		Int("recovered", stats.Recovered).
		Int("failed", stats.Failed).
		Msg("Provisioned users")
	return stats
}

func (p *Provisioner) findUser(ctx context.Context, netID string) (inventory.RemoteUser, bool, error) {
	rows, err := p.remote.SearchUsers(ctx, netID)
	if err != nil {
		return inventory.RemoteUser{}, false, err
	}
	want := inventory.NormalizeNetID(netID)
	for _, u := range rows {
		if inventory.NormalizeNetID(u.Username) == want {
			return snapshot.UserFromRemote(u), true, nil
		}
	}
	return inventory.RemoteUser{}, false, nil
}
