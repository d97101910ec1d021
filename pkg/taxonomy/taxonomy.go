// Package taxonomy makes sure the manufacturers and models incoming devices
// need exist remotely, and provisions remote users for directory entries.
//
// Creates are idempotent: when the remote reports the name is already taken
// the existing ID is recovered with a search and the run carries on as if
// the create had succeeded.
package taxonomy

import (
	"context"
	"sort"
	"strings"

	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/inventory"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/snapshot"
	"github.com/agentstation/assetsync/pkg/snipeit"
)

// Remote is the subset of the inventory API the resolver writes through.
type Remote interface {
	CreateManufacturer(ctx context.Context, name string) (int, error)
	SearchManufacturers(ctx context.Context, term string) ([]snipeit.Named, error)
	CreateModel(ctx context.Context, req snipeit.ModelRequest) (int, error)
	SearchModels(ctx context.Context, term string) ([]snipeit.Model, error)
}

// Resolved is a device with every taxonomy ID it needs.
type Resolved struct {
	Device         inventory.DeviceRecord
	ManufacturerID int
	CategoryID     int
	ModelID        int
}

// Stats counts taxonomy work.
type Stats struct {
	ManufacturersCreated   int `json:"manufacturers_created" yaml:"manufacturers_created"`
	ManufacturersRecovered int `json:"manufacturers_recovered" yaml:"manufacturers_recovered"`
	ManufacturersFailed    int `json:"manufacturers_failed" yaml:"manufacturers_failed"`
	ModelsCreated          int `json:"models_created" yaml:"models_created"`
	ModelsRecovered        int `json:"models_recovered" yaml:"models_recovered"`
	ModelsFailed           int `json:"models_failed" yaml:"models_failed"`
	CategoryFallbacks      int `json:"category_fallbacks" yaml:"category_fallbacks"`
	DevicesExcluded        int `json:"devices_excluded" yaml:"devices_excluded"`
}

// Resolver resolves and creates taxonomy entities.
type Resolver struct {
	remote          Remote
	snap            *snapshot.Snapshot
	defaultCategory string
}

// NewResolver creates a Resolver writing new IDs into snap.
func NewResolver(remote Remote, snap *snapshot.Snapshot, defaultCategory string) *Resolver {
	return &Resolver{remote: remote, snap: snap, defaultCategory: defaultCategory}
}

// Resolve returns the devices whose manufacturer, category and model could
// all be resolved or created. Every other device is excluded and counted.
func (r *Resolver) Resolve(ctx context.Context, devices []inventory.DeviceRecord) ([]Resolved, Stats) {
	logger := logging.FromContext(ctx)
	var stats Stats

	r.ensureManufacturers(ctx, devices, &stats)

	type pending struct {
		device inventory.DeviceRecord
		key    inventory.ModelKey
		manu   int
		cat    int
	}
	var candidates []pending
	models := make(map[inventory.ModelKey]string)

	for _, d := range devices {
		dlog := logger.With().Str("serial", d.Serial).Logger()

		manuID, ok := r.snap.Manufacturers.Get(d.Manufacturer)
		if !ok {
			stats.DevicesExcluded++
			dlog.Warn().Str("manufacturer", d.Manufacturer).Msg("Excluding device: manufacturer not resolved")
			continue
		}

		catID, ok := r.snap.Categories.Get(d.Category)
		if !ok {
			catID, ok = r.snap.Categories.Get(r.defaultCategory)
			if !ok {
				stats.DevicesExcluded++
				dlog.Warn().
					Str("category", d.Category).
					Str("default_category", r.defaultCategory).
					Msg("Excluding device: category and default category not found")
				continue
			}
			stats.CategoryFallbacks++
			dlog.Warn().Str("category", d.Category).Str("default_category", r.defaultCategory).Msg("Category not found; using default")
		}

		if strings.TrimSpace(d.Model) == "" {
			stats.DevicesExcluded++
			dlog.Warn().Msg("Excluding device: no model name")
			continue
		}

		key := inventory.NewModelKey(d.Model, manuID, catID)
		if _, seen := models[key]; !seen {
			models[key] = d.Model
		}
		candidates = append(candidates, pending{device: d, key: key, manu: manuID, cat: catID})
	}

	keys := make([]inventory.ModelKey, 0, len(models))
	for k := range models {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		if keys[i].ManufacturerID != keys[j].ManufacturerID {
			return keys[i].ManufacturerID < keys[j].ManufacturerID
		}
		return keys[i].CategoryID < keys[j].CategoryID
	})
	for _, k := range keys {
		if _, ok := r.snap.Models.Get(k); ok {
			continue
		}
		r.ensureModel(ctx, models[k], k, &stats)
	}

	resolved := make([]Resolved, 0, len(candidates))
	for _, c := range candidates {
		modelID, ok := r.snap.Models.Get(c.key)
		if !ok {
			stats.DevicesExcluded++
			logger.Warn().Str("serial", c.device.Serial).Str("model", c.device.Model).Msg("Excluding device: model not resolved")
			continue
		}
		resolved = append(resolved, Resolved{
			Device:         c.device,
			ManufacturerID: c.manu,
			CategoryID:     c.cat,
			ModelID:        modelID,
		})
	}

	logger.Info().
		Int("manufacturers_created", stats.ManufacturersCreated).
		Int("models_created", stats.ModelsCreated).
		Int("excluded", stats.DevicesExcluded).
		Int("resolved", len(resolved)).
		Msg("Resolved taxonomy")

	return resolved, stats
}

func (r *Resolver) ensureManufacturers(ctx context.Context, devices []inventory.DeviceRecord, stats *Stats) {
	logger := logging.FromContext(ctx)

	names := make(map[string]string)
	for _, d := range devices {
		name := strings.TrimSpace(d.Manufacturer)
		if name == "" {
			continue
		}
		if _, ok := r.snap.Manufacturers.Get(name); ok {
			continue
		}
		key := inventory.NormalizeName(name)
		if _, seen := names[key]; !seen {
			names[key] = name
		}
	}

	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := names[k]
		mlog := logger.With().Str("manufacturer", name).Logger()

		id, err := r.remote.CreateManufacturer(ctx, name)
		if err == nil {
			r.snap.Manufacturers.Put(name, id)
			stats.ManufacturersCreated++
			mlog.Info().Int("id", id).Msg("Created manufacturer")
			continue
		}
		if !errors.IsAlreadyExists(err) {
			stats.ManufacturersFailed++
			mlog.Error().Err(err).Msg("Failed to create manufacturer")
			logging.Response(&mlog, err)
			continue
		}

		id, found, serr := r.findManufacturer(ctx, name)
		if serr != nil || !found {
			stats.ManufacturersFailed++
			mlog.Error().Err(serr).Msg("Manufacturer exists remotely but could not be found by search")
			logging.Response(&mlog, serr)
			continue
		}
		r.snap.Manufacturers.Put(name, id)
		stats.ManufacturersRecovered++
		mlog.Info().Int("id", id).Msg("Manufacturer already existed")
	}
}

func (r *Resolver) findManufacturer(ctx context.Context, name string) (int, bool, error) {
	rows, err := r.remote.SearchManufacturers(ctx, name)
	if err != nil {
		return 0, false, err
	}
	want := inventory.NormalizeName(name)
	for _, row := range rows {
		if inventory.NormalizeName(row.Name) == want {
			return row.ID, true, nil
		}
	}
	return 0, false, nil
}

func (r *Resolver) ensureModel(ctx context.Context, name string, key inventory.ModelKey, stats *Stats) {
	mlog := logging.FromContext(ctx).With().
		Str("model", name).
		Int("manufacturer_id", key.ManufacturerID).
		Int("category_id", key.CategoryID).
		Logger()

	id, err := r.remote.CreateModel(ctx, snipeit.ModelRequest{
		Name:           name,
		ManufacturerID: key.ManufacturerID,
		CategoryID:     key.CategoryID,
		ModelNumber:    name,
	})
	if err == nil {
		r.snap.Models.Put(key, id)
		stats.ModelsCreated++
		mlog.Info().Int("id", id).Msg("Created model")
		return
	}
	if !errors.IsAlreadyExists(err) {
		stats.ModelsFailed++
		mlog.Error().Err(err).Msg("Failed to create model")
		logging.Response(&mlog, err)
		return
	}

	rows, serr := r.remote.SearchModels(ctx, name)
	if serr != nil {
		stats.ModelsFailed++
		mlog.Error().Err(serr).Msg("Model exists remotely but search failed")
		logging.Response(&mlog, serr)
		return
	}
	for _, m := range rows {
		if m.Manufacturer == nil || m.Category == nil {
			continue
		}
		if inventory.NewModelKey(m.Name, m.Manufacturer.ID, m.Category.ID) == key {
			r.snap.Models.Put(key, m.ID)
			stats.ModelsRecovered++
			mlog.Info().Int("id", m.ID).Msg("Model already existed")
			return
		}
	}
	stats.ModelsFailed++
	mlog.Error().Msg("Model exists remotely but could not be found by search")
}
