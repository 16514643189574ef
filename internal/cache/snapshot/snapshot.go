package snapshot

import (
	"context"
	"encoding/json"

	"github.com/BearBump/LogiTrack/internal/cache"
	"github.com/BearBump/LogiTrack/internal/models"
	"github.com/pkg/errors"
)

// Key is the single cache slot holding the last orders list fetched from the remote store.
const Key = "logitrack_remote_db"

// Store keeps the offline copy of the orders list. The whole list is replaced on every save.
type Store struct {
	c cache.BytesCache
}

func New(c cache.BytesCache) *Store {
	return &Store{c: c}
}

// Load returns the saved list; a missing snapshot is an empty list, not an error.
func (s *Store) Load(ctx context.Context) ([]*models.Order, error) {
	b, ok, err := s.c.Get(ctx, Key)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot get")
	}
	if !ok {
		return []*models.Order{}, nil
	}
	var out []*models.Order
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "snapshot decode")
	}
	if out == nil {
		out = []*models.Order{}
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, orders []*models.Order) error {
	if orders == nil {
		orders = []*models.Order{}
	}
	b, err := json.Marshal(orders)
	if err != nil {
		return errors.Wrap(err, "snapshot encode")
	}
	return errors.Wrap(s.c.Set(ctx, Key, b, 0), "snapshot set")
}
