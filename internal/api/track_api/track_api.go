package track_api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/mapview"
	"github.com/BearBump/LogiTrack/internal/models"
	"github.com/BearBump/LogiTrack/internal/services/refresher"
	"github.com/BearBump/LogiTrack/internal/trackview"
)

const adminTokenHeader = "X-Admin-Token"

type OrdersService interface {
	SyncOrder(ctx context.Context, o *models.Order) error
	UpdateOrderLocation(ctx context.Context, code string, party models.Party, loc models.Location) error
	DeleteOrder(ctx context.Context, id string) error
	FetchNotifications(ctx context.Context, role store.Role) []*models.Notification
}

type Finder interface {
	Lookup(ctx context.Context, code string) (*models.Order, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Refresher interface {
	Trigger()
	Stats() refresher.Stats
}

type Options struct {
	AdminToken string
	// SearchLimitPerMinute limits searches per view; 0 disables the limit.
	SearchLimitPerMinute int64
	MapOptions           mapview.Options
}

type TrackAPI struct {
	orders    OrdersService
	finder    Finder
	views     *trackview.Registry
	limiter   RateLimiter
	refresher Refresher
	opts      Options
	now       func() time.Time
}

// New wires the handlers. limiter and refresher may be nil.
func New(orders OrdersService, finder Finder, views *trackview.Registry, limiter RateLimiter, ref Refresher, opts Options) *TrackAPI {
	return &TrackAPI{
		orders:    orders,
		finder:    finder,
		views:     views,
		limiter:   limiter,
		refresher: ref,
		opts:      opts,
		now:       time.Now,
	}
}

// Routes returns the application router. Swagger routes are mounted by the caller.
func (a *TrackAPI) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/orders/{code}", a.getOrder)
		r.Get("/notifications", a.listNotifications)

		r.Post("/views", a.openView)
		r.Get("/views/{id}", a.getView)
		r.Delete("/views/{id}", a.closeView)
		r.Post("/views/{id}/search", a.search)

		r.Route("/admin", func(r chi.Router) {
			r.Use(a.requireAdmin)
			r.Put("/orders", a.syncOrder)
			r.Delete("/orders/{id}", a.deleteOrder)
			r.Put("/orders/{code}/location/{party}", a.updateLocation)
		})
	})

	r.Route("/internal/refresher", func(r chi.Router) {
		r.Use(a.requireAdmin)
		r.Get("/stats", a.refresherStats)
		r.Post("/trigger", a.refresherTrigger)
	})
	return r
}

func (a *TrackAPI) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// без настроенного токена админка закрыта целиком
		if a.opts.AdminToken == "" || r.Header.Get(adminTokenHeader) != a.opts.AdminToken {
			writeError(w, http.StatusUnauthorized, "admin token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type orderResponse struct {
	Order *models.Order  `json:"order"`
	Card  trackview.Card `json:"card"`
	Map   *mapview.State `json:"map,omitempty"`
}

func (a *TrackAPI) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.finder.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := orderResponse{Order: o}
	if o.Status == models.StatusOutForDelivery {
		m := mapview.New(a.opts.MapOptions)
		m.Update(o.DriverLocation, o.CustomerLocation)
		st := m.Snapshot()
		resp.Map = &st
	}
	resp.Card = trackview.NewCard(o, resp.Map != nil)
	writeJSON(w, http.StatusOK, resp)
}

func (a *TrackAPI) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": a.orders.FetchNotifications(r.Context(), store.RoleCustomer),
	})
}

func (a *TrackAPI) openView(w http.ResponseWriter, r *http.Request) {
	v, err := a.views.Open()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v.State())
}

func (a *TrackAPI) getView(w http.ResponseWriter, r *http.Request) {
	v, err := a.views.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.State())
}

func (a *TrackAPI) closeView(w http.ResponseWriter, r *http.Request) {
	if err := a.views.Close(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type searchRequest struct {
	Code string `json:"code"`
}

func (a *TrackAPI) search(w http.ResponseWriter, r *http.Request) {
	v, err := a.views.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if !a.allowSearch(r.Context(), v.ID()) {
		writeError(w, http.StatusTooManyRequests, "too many searches, try again in a minute")
		return
	}

	// ошибка поиска уже лежит в состоянии view
	_ = v.Search(r.Context(), req.Code)
	writeJSON(w, http.StatusOK, v.State())
}

func (a *TrackAPI) allowSearch(ctx context.Context, viewID string) bool {
	if a.limiter == nil || a.opts.SearchLimitPerMinute <= 0 {
		return true
	}
	key := fmt.Sprintf("rl:search:%s:%s", viewID, a.now().UTC().Format("200601021504"))
	allowed, n, err := a.limiter.Allow(ctx, key, a.opts.SearchLimitPerMinute, 70*time.Second)
	if err != nil {
		slog.Error("search rate limit", "view", viewID, "error", err.Error())
		return true
	}
	if !allowed {
		slog.Warn("search rate limit exceeded", "view", viewID, "count", n)
	}
	return allowed
}

func (a *TrackAPI) syncOrder(w http.ResponseWriter, r *http.Request) {
	var o models.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := a.orders.SyncOrder(r.Context(), &o); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *TrackAPI) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := a.orders.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *TrackAPI) updateLocation(w http.ResponseWriter, r *http.Request) {
	party := models.Party(chi.URLParam(r, "party"))
	if !party.Valid() {
		writeError(w, http.StatusBadRequest, "party must be driver or customer")
		return
	}
	var loc models.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := a.orders.UpdateOrderLocation(r.Context(), chi.URLParam(r, "code"), party, loc); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *TrackAPI) refresherStats(w http.ResponseWriter, r *http.Request) {
	if a.refresher == nil {
		writeError(w, http.StatusNotFound, "refresher is disabled")
		return
	}
	writeJSON(w, http.StatusOK, a.refresher.Stats())
}

func (a *TrackAPI) refresherTrigger(w http.ResponseWriter, r *http.Request) {
	if a.refresher == nil {
		writeError(w, http.StatusNotFound, "refresher is disabled")
		return
	}
	a.refresher.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}
