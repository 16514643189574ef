package store

import (
	"context"
	"errors"
	"time"

	"github.com/BearBump/LogiTrack/internal/models"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

var (
	// ErrConfigNotReady: удалённое хранилище не настроено, запрос даже не отправлялся.
	ErrConfigNotReady = errors.New("remote store is not configured")
	// ErrRemote covers network failures, non-2xx answers and malformed bodies.
	ErrRemote = errors.New("remote store request failed")
	// ErrPermissionDenied is returned for 401/403.
	ErrPermissionDenied = errors.New("remote store denied access")
)

const (
	TableOrders        = "orders"
	TableNotifications = "notifications"
)

type Client interface {
	Ready(role Role) error
	ListOrders(ctx context.Context, role Role) ([]*models.Order, error)
	FindOrdersByCode(ctx context.Context, role Role, code string) ([]*models.Order, error)
	InsertOrder(ctx context.Context, o *models.Order, updatedAt time.Time) error
	UpdateOrderByCode(ctx context.Context, o *models.Order, updatedAt time.Time) error
	UpdateOrderLocation(ctx context.Context, code string, party models.Party, loc models.Location) error
	DeleteOrder(ctx context.Context, id string) error
	ListNotifications(ctx context.Context, role Role) ([]*models.Notification, error)
	InsertNotification(ctx context.Context, in models.NotificationCreateInput) error
}
