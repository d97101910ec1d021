package snipeit

import (
	"context"
	"strconv"

	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/logging"
)

// shadow records the writes a dry run would have made so that later reads
// of the same hardware reflect them. Synthetic IDs are negative and never
// collide with remote IDs.
type shadow struct {
	nextID  int
	assets  map[int]Hardware
	deleted map[int]bool
}

func newShadow() *shadow {
	return &shadow{
		assets:  make(map[int]Hardware),
		deleted: make(map[int]bool),
	}
}

func (s *shadow) allocate() int {
	s.nextID--
	return s.nextID
}

func (s *shadow) create(ctx context.Context, method, path string) int {
	id := s.allocate()
	logging.FromContext(ctx).Info().
		Str("method", method).
		Str("endpoint", path).
		Int("placeholder_id", id).
		Msg("Dry run: skipped create")
	return id
}

func (s *shadow) createAsset(ctx context.Context, req AssetRequest) Hardware {
	id := s.create(ctx, "POST", PathHardware)
	h := Hardware{
		ID:          id,
		AssetTag:    req.AssetTag,
		Name:        req.Name,
		Serial:      req.Serial,
		Notes:       req.Notes,
		StatusLabel: StatusLabel{ID: req.StatusID},
	}
	s.assets[id] = h
	return h
}

// get returns the shadowed state of id. ok is false when the remote copy
// should be read instead.
func (s *shadow) get(id int) (Hardware, bool, error) {
	if s.deleted[id] {
		return Hardware{}, false, errors.NewNotFoundError("asset", strconv.Itoa(id))
	}
	h, ok := s.assets[id]
	return h, ok, nil
}

func (s *shadow) mutate(ctx context.Context, c *Client, op string, id int, apply func(*Hardware)) error {
	h, err := c.GetAsset(ctx, id)
	if err != nil {
		return err
	}
	apply(&h)
	s.assets[id] = h
	logging.FromContext(ctx).Info().
		Str("operation", op).
		Str("endpoint", hardwarePath(id)).
		Msg("Dry run: skipped update")
	return nil
}

func (s *shadow) remove(ctx context.Context, id int) {
	delete(s.assets, id)
	s.deleted[id] = true
	logging.FromContext(ctx).Info().
		Str("endpoint", hardwarePath(id)).
		Msg("Dry run: skipped delete")
}
