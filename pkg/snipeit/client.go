// Package snipeit is the typed client for the inventory API's collections
// and hardware workflow endpoints. It sits on the paced transport, so every
// call here is spaced by the run's request delay.
package snipeit

import (
	"context"
	"net/url"
	"strconv"

	"github.com/agentstation/assetsync/internal/transport"
	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/logging"
)

// Collection paths.
const (
	PathManufacturers = "/manufacturers"
	PathCategories    = "/categories"
	PathStatusLabels  = "/statuslabels"
	PathLocations     = "/locations"
	PathCompanies     = "/companies"
	PathModels        = "/models"
	PathUsers         = "/users"
	PathHardware      = "/hardware"
)

// Client talks to the inventory API.
type Client struct {
	api      *transport.Client
	pageSize int
	dryRun   *shadow
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize sets the collection page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= constants.MaxPageSize {
			c.pageSize = n
		}
	}
}

// WithDryRun makes every mutating call a logged no-op. Reads still hit the
// API; the effects of skipped writes are layered over them so callers see a
// consistent view.
func WithDryRun(enabled bool) Option {
	return func(c *Client) {
		if enabled {
			c.dryRun = newShadow()
		} else {
			c.dryRun = nil
		}
	}
}

// New creates a Client over api.
func New(api *transport.Client, opts ...Option) *Client {
	c := &Client{
		api:      api,
		pageSize: constants.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DryRun reports whether mutations are suppressed.
func (c *Client) DryRun() bool {
	return c.dryRun != nil
}

// list fetches every row of a collection with offset pagination. The loop
// ends on a short page.
func list[T any](ctx context.Context, c *Client, path string, extra url.Values) ([]T, error) {
	var all []T
	offset := 0
	for {
		query := url.Values{}
		for k, v := range extra {
			query[k] = v
		}
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		var p page[T]
		if err := c.api.Get(ctx, path, query, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Rows...)
		offset += len(p.Rows)

		if len(p.Rows) < c.pageSize || (p.Total > 0 && offset >= p.Total) {
			break
		}
	}
	logging.FromContext(ctx).Debug().Str("collection", path).Int("rows", len(all)).Msg("Fetched collection")
	return all, nil
}

// search returns the first page of path filtered by term.
func search[T any](ctx context.Context, c *Client, path, term string) ([]T, error) {
	query := url.Values{}
	query.Set("search", term)
	query.Set("limit", strconv.Itoa(c.pageSize))
	var p page[T]
	if err := c.api.Get(ctx, path, query, &p); err != nil {
		return nil, err
	}
	return p.Rows, nil
}

// ListManufacturers fetches every manufacturer.
func (c *Client) ListManufacturers(ctx context.Context) ([]Named, error) {
	return list[Named](ctx, c, PathManufacturers, nil)
}

// ListCategories fetches every category.
func (c *Client) ListCategories(ctx context.Context) ([]Named, error) {
	return list[Named](ctx, c, PathCategories, nil)
}

// ListStatusLabels fetches every status label.
func (c *Client) ListStatusLabels(ctx context.Context) ([]StatusLabel, error) {
	return list[StatusLabel](ctx, c, PathStatusLabels, nil)
}

// ListLocations fetches every location.
func (c *Client) ListLocations(ctx context.Context) ([]Named, error) {
	return list[Named](ctx, c, PathLocations, nil)
}

// ListCompanies fetches every company.
func (c *Client) ListCompanies(ctx context.Context) ([]Named, error) {
	return list[Named](ctx, c, PathCompanies, nil)
}

// ListModels fetches every model.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	return list[Model](ctx, c, PathModels, nil)
}

// ListUsers fetches every user.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return list[User](ctx, c, PathUsers, nil)
}

// ListHardware fetches every hardware record.
func (c *Client) ListHardware(ctx context.Context) ([]Hardware, error) {
	return list[Hardware](ctx, c, PathHardware, nil)
}

// SearchManufacturers returns manufacturers matching term.
func (c *Client) SearchManufacturers(ctx context.Context, term string) ([]Named, error) {
	return search[Named](ctx, c, PathManufacturers, term)
}

// SearchModels returns models matching term.
func (c *Client) SearchModels(ctx context.Context, term string) ([]Model, error) {
	return search[Model](ctx, c, PathModels, term)
}

// SearchUsers returns users matching term.
func (c *Client) SearchUsers(ctx context.Context, term string) ([]User, error) {
	return search[User](ctx, c, PathUsers, term)
}

// CreateManufacturer creates a manufacturer and returns its ID.
func (c *Client) CreateManufacturer(ctx context.Context, name string) (int, error) {
	if c.dryRun != nil {
		return c.dryRun.create(ctx, "POST", PathManufacturers), nil
	}
	var resp mutation[Named]
	if err := c.api.Post(ctx, PathManufacturers, map[string]string{"name": name}, &resp); err != nil {
		return 0, errors.WrapResource("create", "manufacturer", name, err)
	}
	return resp.Payload.ID, nil
}

// CreateModel creates a model and returns its ID.
func (c *Client) CreateModel(ctx context.Context, req ModelRequest) (int, error) {
	if c.dryRun != nil {
		return c.dryRun.create(ctx, "POST", PathModels), nil
	}
	var resp mutation[Model]
	if err := c.api.Post(ctx, PathModels, req, &resp); err != nil {
		return 0, errors.WrapResource("create", "model", req.Name, err)
	}
	return resp.Payload.ID, nil
}

// CreateUser creates a user and returns its ID.
func (c *Client) CreateUser(ctx context.Context, req UserRequest) (int, error) {
	if c.dryRun != nil {
		return c.dryRun.create(ctx, "POST", PathUsers), nil
	}
	var resp mutation[User]
	if err := c.api.Post(ctx, PathUsers, req, &resp); err != nil {
		return 0, errors.WrapResource("create", "user", req.Username, err)
	}
	return resp.Payload.ID, nil
}

// CreateAsset creates a hardware record.
func (c *Client) CreateAsset(ctx context.Context, req AssetRequest) (Hardware, error) {
	if c.dryRun != nil {
		return c.dryRun.createAsset(ctx, req), nil
	}
	var resp mutation[Hardware]
	if err := c.api.Post(ctx, PathHardware, req, &resp); err != nil {
		return Hardware{}, errors.WrapResource("create", "asset", req.AssetTag, err)
	}
	h := resp.Payload
	if h.AssetTag == "" {
		h.AssetTag = req.AssetTag
	}
	if h.Name == "" {
		h.Name = req.Name
	}
	if h.Notes == "" {
		h.Notes = req.Notes
	}
	if h.StatusLabel.ID == 0 {
		h.StatusLabel.ID = req.StatusID
	}
	return h, nil
}

// GetAsset fetches the live state of one hardware record.
func (c *Client) GetAsset(ctx context.Context, id int) (Hardware, error) {
	if c.dryRun != nil {
		if h, ok, err := c.dryRun.get(id); ok || err != nil {
			return h, err
		}
	}
	var h Hardware
	if err := c.api.Get(ctx, hardwarePath(id), nil, &h); err != nil {
		return Hardware{}, errors.WrapResource("fetch", "asset", strconv.Itoa(id), err)
	}
	return h, nil
}

// UpdateAsset applies patch to a hardware record.
func (c *Client) UpdateAsset(ctx context.Context, id int, patch AssetPatch) error {
	if patch.Empty() {
		return nil
	}
	if c.dryRun != nil {
		return c.dryRun.mutate(ctx, c, "PUT", id, func(h *Hardware) {
			if patch.Name != nil {
				h.Name = *patch.Name
			}
			if patch.Notes != nil {
				h.Notes = *patch.Notes
			}
			if patch.StatusID != nil {
				h.StatusLabel.ID = *patch.StatusID
			}
		})
	}
	if err := c.api.Put(ctx, hardwarePath(id), patch, nil); err != nil {
		return errors.WrapResource("update", "asset", strconv.Itoa(id), err)
	}
	return nil
}

// CheckinAsset clears the assignment of a hardware record.
func (c *Client) CheckinAsset(ctx context.Context, id int, req CheckinRequest) error {
	if c.dryRun != nil {
		return c.dryRun.mutate(ctx, c, "POST checkin", id, func(h *Hardware) {
			h.AssignedTo = Assignment{}
			if req.StatusID != 0 {
				h.StatusLabel.ID = req.StatusID
			}
		})
	}
	if err := c.api.Post(ctx, hardwarePath(id)+"/checkin", req, nil); err != nil {
		return errors.WrapResource("checkin", "asset", strconv.Itoa(id), err)
	}
	return nil
}

// CheckoutAsset assigns a hardware record to a user.
func (c *Client) CheckoutAsset(ctx context.Context, id int, req CheckoutRequest) error {
	if req.CheckoutToType == "" {
		req.CheckoutToType = "user"
	}
	if c.dryRun != nil {
		return c.dryRun.mutate(ctx, c, "POST checkout", id, func(h *Hardware) {
			h.AssignedTo = Assignment{ID: req.AssignedUser, Type: req.CheckoutToType}
			if req.StatusID != 0 {
				h.StatusLabel.ID = req.StatusID
			}
		})
	}
	if err := c.api.Post(ctx, hardwarePath(id)+"/checkout", req, nil); err != nil {
		return errors.WrapResource("checkout", "asset", strconv.Itoa(id), err)
	}
	return nil
}

// DeleteAsset deletes a hardware record.
func (c *Client) DeleteAsset(ctx context.Context, id int) error {
	if c.dryRun != nil {
		c.dryRun.remove(ctx, id)
		return nil
	}
	if err := c.api.Delete(ctx, hardwarePath(id), nil); err != nil {
		return errors.WrapResource("delete", "asset", strconv.Itoa(id), err)
	}
	return nil
}

func hardwarePath(id int) string {
	return PathHardware + "/" + strconv.Itoa(id)
}
