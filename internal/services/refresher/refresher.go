package refresher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/services/orders"
)

type Fetcher interface {
	FetchOrders(ctx context.Context, role store.Role) orders.Result
}

// Refresher keeps the offline snapshot warm. It only fetches: views learn about
// changes from the change feed, never from here.
type Refresher struct {
	fetcher  Fetcher
	interval time.Duration

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalCycles         atomic.Int64
	totalRemote         atomic.Int64
	totalFallbacks      atomic.Int64
	lastOrders          atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

// New creates a refresher. interval <= 0 disables the ticker, only Trigger runs a cycle.
func New(f Fetcher, interval time.Duration) *Refresher {
	return &Refresher{
		fetcher:           f,
		interval:          interval,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

// Trigger forces an immediate cycle (best-effort, non-blocking).
func (r *Refresher) Trigger() {
	r.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	Interval       string     `json:"interval"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalCycles    int64      `json:"totalCycles"`
	TotalRemote    int64      `json:"totalRemote"`
	TotalFallbacks int64      `json:"totalFallbacks"`
	LastOrders     int64      `json:"lastOrders"`
	LastError      string     `json:"lastError,omitempty"`
}

func (r *Refresher) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, r.startedAtUnixNano).UTC(),
		Interval:       r.interval.String(),
		TotalCycles:    r.totalCycles.Load(),
		TotalRemote:    r.totalRemote.Load(),
		TotalFallbacks: r.totalFallbacks.Load(),
		LastOrders:     r.lastOrders.Load(),
	}
	if n := r.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := r.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	r.lastErrorMu.Lock()
	st.LastError = r.lastError
	r.lastErrorMu.Unlock()
	return st
}

func (r *Refresher) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if r.interval > 0 {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			r.runOnce(ctx)
		case <-r.triggerCh:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	r.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())
	r.totalCycles.Add(1)

	res := r.fetcher.FetchOrders(ctx, store.RoleAdmin)
	r.lastOrders.Store(int64(len(res.Orders)))

	r.lastErrorMu.Lock()
	defer r.lastErrorMu.Unlock()
	if res.Source != orders.SourceRemote {
		r.totalFallbacks.Add(1)
		if res.RemoteErr != nil {
			r.lastError = res.RemoteErr.Error()
		}
		slog.Debug("snapshot refresh fell back to cache", "orders", len(res.Orders), "error", r.lastError)
		return
	}
	r.totalRemote.Add(1)
	r.lastError = ""
}
