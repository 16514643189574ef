// Package mocks holds testify mocks of the store package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/models"
)

type MockClient struct {
	mock.Mock
}

var _ store.Client = (*MockClient)(nil)

func (m *MockClient) Ready(role store.Role) error {
	args := m.Called(role)
	return args.Error(0)
}

func (m *MockClient) ListOrders(ctx context.Context, role store.Role) ([]*models.Order, error) {
	args := m.Called(ctx, role)
	out, _ := args.Get(0).([]*models.Order)
	return out, args.Error(1)
}

func (m *MockClient) FindOrdersByCode(ctx context.Context, role store.Role, code string) ([]*models.Order, error) {
	args := m.Called(ctx, role, code)
	out, _ := args.Get(0).([]*models.Order)
	return out, args.Error(1)
}

func (m *MockClient) InsertOrder(ctx context.Context, o *models.Order, updatedAt time.Time) error {
	args := m.Called(ctx, o, updatedAt)
	return args.Error(0)
}

func (m *MockClient) UpdateOrderByCode(ctx context.Context, o *models.Order, updatedAt time.Time) error {
	args := m.Called(ctx, o, updatedAt)
	return args.Error(0)
}

func (m *MockClient) UpdateOrderLocation(ctx context.Context, code string, party models.Party, loc models.Location) error {
	args := m.Called(ctx, code, party, loc)
	return args.Error(0)
}

func (m *MockClient) DeleteOrder(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockClient) ListNotifications(ctx context.Context, role store.Role) ([]*models.Notification, error) {
	args := m.Called(ctx, role)
	out, _ := args.Get(0).([]*models.Notification)
	return out, args.Error(1)
}

func (m *MockClient) InsertNotification(ctx context.Context, in models.NotificationCreateInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}
