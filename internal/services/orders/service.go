package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/BearBump/LogiTrack/internal/broker/messages"
	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/metrics"
	"github.com/BearBump/LogiTrack/internal/models"
)

type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
)

const statusNotificationTitle = "Shipment status updated"

// Result is what a fetch produced. RemoteErr is set whenever Orders came from the snapshot:
// store.ErrConfigNotReady when the call was skipped, a remote error when it failed.
type Result struct {
	Orders    []*models.Order
	Source    Source
	RemoteErr error
}

type Snapshot interface {
	Load(ctx context.Context) ([]*models.Order, error)
	Save(ctx context.Context, orders []*models.Order) error
}

type Notifier interface {
	NotifyChanged(ctx context.Context, reason, orderCode string)
}

type Service struct {
	store    store.Client
	snap     Snapshot
	notifier Notifier
	validate *validator.Validate
	now      func() time.Time
}

// New creates the service; notifier may be nil.
func New(client store.Client, snap Snapshot, notifier Notifier) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return models.OrderStatus(fl.Field().String()).Valid()
	})
	return &Service{
		store:    client,
		snap:     snap,
		notifier: notifier,
		validate: v,
		now:      time.Now,
	}
}

// FetchOrders never fails: a remote answer replaces the snapshot, anything else is served from it.
func (s *Service) FetchOrders(ctx context.Context, role store.Role) Result {
	list, err := s.store.ListOrders(ctx, role)
	if err == nil {
		if err := s.snap.Save(ctx, list); err != nil {
			slog.Error("save orders snapshot", "error", err.Error())
		}
		return Result{Orders: list, Source: SourceRemote}
	}

	reason := "remote_error"
	if errors.Is(err, store.ErrConfigNotReady) {
		reason = "not_ready"
	}
	metrics.SnapshotFallbacksTotal.WithLabelValues(reason).Inc()
	slog.Warn("orders served from snapshot", "role", string(role), "reason", reason, "error", err.Error())

	return Result{Orders: s.CachedOrders(ctx), Source: SourceCache, RemoteErr: err}
}

// CachedOrders reads the snapshot only. An unreadable snapshot counts as empty.
func (s *Service) CachedOrders(ctx context.Context) []*models.Order {
	list, err := s.snap.Load(ctx)
	if err != nil {
		slog.Error("load orders snapshot", "error", err.Error())
		return []*models.Order{}
	}
	return list
}

// SyncOrder делает upsert по коду: PATCH если заказ уже есть, иначе POST. Потом пишет
// уведомление о статусе, перечитывает список и сигналит об изменении. Транзакции нет.
func (s *Service) SyncOrder(ctx context.Context, o *models.Order) error {
	if o == nil {
		return errors.New("order is required")
	}
	if err := s.validate.Struct(o); err != nil {
		return errors.Wrap(err, "validate order")
	}

	err := s.upsert(ctx, o)
	if err == nil {
		s.notifyStatus(ctx, o)
	}

	s.FetchOrders(ctx, store.RoleAdmin)
	s.notify(ctx, messages.ReasonSync, o.OrderCode)
	return err
}

func (s *Service) upsert(ctx context.Context, o *models.Order) error {
	if err := s.store.Ready(store.RoleAdmin); err != nil {
		return err
	}
	existing, err := s.store.FindOrdersByCode(ctx, store.RoleAdmin, o.OrderCode)
	if err != nil {
		return errors.Wrap(err, "find order by code")
	}
	now := s.now().UTC()
	if len(existing) > 0 {
		return errors.Wrap(s.store.UpdateOrderByCode(ctx, o, now), "update order")
	}
	return errors.Wrap(s.store.InsertOrder(ctx, o, now), "insert order")
}

func (s *Service) notifyStatus(ctx context.Context, o *models.Order) {
	in := models.NotificationCreateInput{
		OrderCode: o.OrderCode,
		Title:     statusNotificationTitle,
		Body:      fmt.Sprintf("Your shipment (%s) status has been updated to: %s", o.OrderCode, o.Status),
	}
	if err := s.store.InsertNotification(ctx, in); err != nil {
		slog.Error("insert status notification", "order_code", o.OrderCode, "error", err.Error())
	}
}

func (s *Service) UpdateOrderLocation(ctx context.Context, code string, party models.Party, loc models.Location) error {
	if code == "" {
		return errors.New("order code is required")
	}
	if !party.Valid() {
		return errors.Errorf("unknown party %q", party)
	}
	if err := s.store.UpdateOrderLocation(ctx, code, party, loc); err != nil {
		return errors.Wrap(err, "update order location")
	}
	s.notify(ctx, messages.ReasonLocation, code)
	return nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("order id is required")
	}
	err := s.store.DeleteOrder(ctx, id)
	s.FetchOrders(ctx, store.RoleAdmin)
	s.notify(ctx, messages.ReasonDelete, "")
	return errors.Wrap(err, "delete order")
}

// FetchNotifications returns newest first; on any failure the list is empty.
func (s *Service) FetchNotifications(ctx context.Context, role store.Role) []*models.Notification {
	list, err := s.store.ListNotifications(ctx, role)
	if err != nil {
		if !errors.Is(err, store.ErrConfigNotReady) {
			slog.Warn("list notifications", "error", err.Error())
		}
		return []*models.Notification{}
	}
	return list
}

func (s *Service) notify(ctx context.Context, reason, code string) {
	if s.notifier != nil {
		s.notifier.NotifyChanged(ctx, reason, code)
	}
}
