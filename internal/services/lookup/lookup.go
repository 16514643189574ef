package lookup

import (
	"context"
	"errors"

	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/metrics"
	"github.com/BearBump/LogiTrack/internal/models"
	"github.com/BearBump/LogiTrack/internal/services/orders"
)

var (
	ErrEmptyCode        = errors.New("shipment code is empty")
	ErrNotFound         = errors.New("shipment not found")
	ErrConnectionFailed = errors.New("connection to the store failed")
)

const (
	msgNotFound         = "Shipment not found."
	msgConnectionFailed = "Connection error, please try again."
)

// Message returns the text shown to the customer for a lookup error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmptyCode):
		return msgNotFound
	default:
		return msgConnectionFailed
	}
}

// Normalize is the form codes are compared in.
func Normalize(code string) string {
	return models.NormalizeCode(code)
}

// Find returns the first order whose code matches, or nil.
func Find(list []*models.Order, code string) *models.Order {
	want := Normalize(code)
	if want == "" {
		return nil
	}
	for _, o := range list {
		if o != nil && Normalize(o.OrderCode) == want {
			return o
		}
	}
	return nil
}

type Fetcher interface {
	FetchOrders(ctx context.Context, role store.Role) orders.Result
}

type Finder struct {
	fetcher Fetcher
}

func NewFinder(f Fetcher) *Finder {
	return &Finder{fetcher: f}
}

// Lookup ищет заказ по коду с клиентским ключом. Заказ из снапшота тоже считается найденным.
// Отсутствие кода превращается в ErrConnectionFailed только если был реальный запрос и он упал.
func (f *Finder) Lookup(ctx context.Context, code string) (*models.Order, error) {
	if Normalize(code) == "" {
		metrics.LookupsTotal.WithLabelValues("empty").Inc()
		return nil, ErrEmptyCode
	}

	res := f.fetcher.FetchOrders(ctx, store.RoleCustomer)
	if o := Find(res.Orders, code); o != nil {
		metrics.LookupsTotal.WithLabelValues("found").Inc()
		return o, nil
	}

	if res.RemoteErr != nil && !errors.Is(res.RemoteErr, store.ErrConfigNotReady) {
		metrics.LookupsTotal.WithLabelValues("connection_failed").Inc()
		return nil, errors.Join(ErrConnectionFailed, res.RemoteErr)
	}
	metrics.LookupsTotal.WithLabelValues("not_found").Inc()
	return nil, ErrNotFound
}
