package trackview

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/BearBump/LogiTrack/internal/mapview"
	"github.com/BearBump/LogiTrack/internal/models"
	"github.com/BearBump/LogiTrack/internal/services/lookup"
)

// ErrStale is returned by Search when a newer search was issued while this one was running.
// Its result was dropped.
var ErrStale = errors.New("search superseded by a newer one")

type Searcher interface {
	Lookup(ctx context.Context, code string) (*models.Order, error)
}

type State struct {
	ID      string         `json:"id"`
	Input   string         `json:"input"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
	Card    *Card          `json:"card,omitempty"`
	Map     *mapview.State `json:"map,omitempty"`
}

// View is one customer's tracking screen. Safe for concurrent use.
type View struct {
	id      string
	finder  Searcher
	mapOpts mapview.Options

	mu       sync.Mutex
	seq      uint64
	input    string
	lastCode string
	loading  bool
	errMsg   string
	order    *models.Order
	m        *mapview.Map
}

func New(id string, finder Searcher, mapOpts mapview.Options) *View {
	return &View{id: id, finder: finder, mapOpts: mapOpts}
}

func (v *View) ID() string {
	return v.id
}

// Search looks the code up and updates the view. Blank codes are ignored. Only the latest
// issued search may change the view, older answers get ErrStale.
func (v *View) Search(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	v.mu.Lock()
	v.seq++
	my := v.seq
	v.input = code
	v.loading = true
	v.errMsg = ""
	v.mu.Unlock()

	o, err := v.finder.Lookup(ctx, code)

	v.mu.Lock()
	defer v.mu.Unlock()
	if my != v.seq {
		slog.Debug("drop stale search result", "view", v.id, "code", code)
		return ErrStale
	}
	v.loading = false
	v.lastCode = code

	switch {
	case err == nil:
		v.show(o)
	case errors.Is(err, lookup.ErrNotFound), errors.Is(err, lookup.ErrEmptyCode):
		v.show(nil)
		v.errMsg = lookup.Message(err)
	default:
		// прошлый заказ остаётся на экране
		v.errMsg = lookup.Message(err)
	}
	return err
}

// show mounts the map only for Out_for_Delivery. A different order gets a fresh map.
func (v *View) show(o *models.Order) {
	prev := v.order
	v.order = o
	if o == nil || o.Status != models.StatusOutForDelivery {
		v.m = nil
		return
	}
	if v.m == nil || prev == nil || models.NormalizeCode(prev.OrderCode) != models.NormalizeCode(o.OrderCode) {
		v.m = mapview.New(v.mapOpts)
	}
	v.m.Update(o.DriverLocation, o.CustomerLocation)
}

// Refresh repeats the last completed search, if any.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	code := v.lastCode
	v.mu.Unlock()
	if code == "" {
		return nil
	}
	return v.Search(ctx, code)
}

// Watch refreshes the view on every signal until ctx is done or signals is closed.
func (v *View) Watch(ctx context.Context, signals <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			if err := v.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
				slog.Debug("refresh view", "view", v.id, "error", err.Error())
			}
		}
	}
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := State{
		ID:      v.id,
		Input:   v.input,
		Loading: v.loading,
		Error:   v.errMsg,
	}
	if v.order != nil {
		c := NewCard(v.order, v.m != nil)
		st.Card = &c
	}
	if v.m != nil {
		ms := v.m.Snapshot()
		st.Map = &ms
	}
	return st
}

// Order returns the displayed order, nil when none.
func (v *View) Order() *models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.order
}

// Markers of the mounted map; nil when the map is not shown.
func (v *View) Markers() []mapview.Marker {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.m == nil {
		return nil
	}
	return v.m.Markers()
}
