package trackview

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/BearBump/LogiTrack/internal/mapview"
)

var (
	ErrViewNotFound = errors.New("view not found")
	ErrTooManyViews = errors.New("too many open views")
)

type Subscriber interface {
	Subscribe() (<-chan struct{}, func())
}

type entry struct {
	view   *View
	cancel context.CancelFunc
}

// Registry owns the open views. Every view watches the change hub until it is closed.
type Registry struct {
	finder  Searcher
	hub     Subscriber
	mapOpts mapview.Options
	max     int

	mu    sync.Mutex
	views map[string]entry
}

// NewRegistry creates a registry; max <= 0 means no limit, hub may be nil.
func NewRegistry(finder Searcher, hub Subscriber, mapOpts mapview.Options, maxViews int) *Registry {
	return &Registry{
		finder:  finder,
		hub:     hub,
		mapOpts: mapOpts,
		max:     maxViews,
		views:   make(map[string]entry),
	}
}

func (r *Registry) Open() (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.views) >= r.max {
		return nil, ErrTooManyViews
	}

	v := New(uuid.NewString(), r.finder, r.mapOpts)
	ctx, cancel := context.WithCancel(context.Background())
	if r.hub != nil {
		sig, unsubscribe := r.hub.Subscribe()
		go func() {
			defer unsubscribe()
			v.Watch(ctx, sig)
		}()
	}
	r.views[v.ID()] = entry{view: v, cancel: cancel}
	return v, nil
}

func (r *Registry) Get(id string) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	return e.view, nil
}

func (r *Registry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.views[id]
	delete(r.views, id)
	r.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}
	e.cancel()
	return nil
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]entry)
	r.mu.Unlock()
	for _, e := range views {
		e.cancel()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
