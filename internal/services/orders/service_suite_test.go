package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/BearBump/LogiTrack/internal/cache/rediscache"
	"github.com/BearBump/LogiTrack/internal/cache/snapshot"
	"github.com/BearBump/LogiTrack/internal/integrations/store"
	storemocks "github.com/BearBump/LogiTrack/internal/integrations/store/mocks"
	"github.com/BearBump/LogiTrack/internal/models"
)

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) NotifyChanged(ctx context.Context, reason, orderCode string) {
	m.Called(ctx, reason, orderCode)
}

type ServiceSuite struct {
	suite.Suite

	mr     *miniredis.Miniredis
	rc     *rediscache.RedisCache
	store  *storemocks.MockClient
	notify *notifierMock
	snap   *snapshot.Store
	svc    *Service
	now    time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.rc = rediscache.New(s.mr.Addr(), 0)
	s.snap = snapshot.New(s.rc)
	s.store = &storemocks.MockClient{}
	s.notify = &notifierMock{}
	s.svc = New(s.store, s.snap, s.notify)
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc.now = func() time.Time { return s.now }
}

func (s *ServiceSuite) TearDownTest() {
	_ = s.rc.Close()
}

func order(code string, st models.OrderStatus) *models.Order {
	return &models.Order{ID: code, OrderCode: code, Quantity: 1, TotalPrice: 10, Status: st}
}

func (s *ServiceSuite) TestFetchOrders_RemoteOverwritesSnapshot() {
	ctx := context.Background()
	remote := []*models.Order{order("LY-1001", models.StatusEnRoute)}
	s.store.On("ListOrders", mock.Anything, store.RoleCustomer).Return(remote, nil).Once()

	res := s.svc.FetchOrders(ctx, store.RoleCustomer)
	s.Require().Equal(SourceRemote, res.Source)
	s.Require().NoError(res.RemoteErr)
	s.Require().Equal(remote, res.Orders)

	// later the store goes away: exactly the last remote answer comes back
	s.store.On("ListOrders", mock.Anything, store.RoleCustomer).Return(nil, store.ErrRemote).Once()
	res = s.svc.FetchOrders(ctx, store.RoleCustomer)
	s.Require().Equal(SourceCache, res.Source)
	s.Require().ErrorIs(res.RemoteErr, store.ErrRemote)
	s.Require().Equal(remote, res.Orders)
	s.store.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestFetchOrders_NotReadyServesSnapshot() {
	ctx := context.Background()
	cached := []*models.Order{order("LY-1", models.StatusDelivered)}
	s.Require().NoError(s.snap.Save(ctx, cached))
	s.store.On("ListOrders", mock.Anything, store.RoleCustomer).Return(nil, store.ErrConfigNotReady).Once()

	res := s.svc.FetchOrders(ctx, store.RoleCustomer)
	s.Require().Equal(SourceCache, res.Source)
	s.Require().ErrorIs(res.RemoteErr, store.ErrConfigNotReady)
	s.Require().Equal(cached, res.Orders)
}

func (s *ServiceSuite) TestFetchOrders_BrokenSnapshotIsEmpty() {
	s.Require().NoError(s.mr.Set(snapshot.Key, "{broken"))
	s.store.On("ListOrders", mock.Anything, store.RoleCustomer).Return(nil, store.ErrRemote).Once()

	res := s.svc.FetchOrders(context.Background(), store.RoleCustomer)
	s.Require().NotNil(res.Orders)
	s.Require().Empty(res.Orders)
}

func (s *ServiceSuite) TestFetchOrders_EmptyRemoteReplacesSnapshot() {
	ctx := context.Background()
	s.Require().NoError(s.snap.Save(ctx, []*models.Order{order("OLD", models.StatusEnRoute)}))
	s.store.On("ListOrders", mock.Anything, store.RoleAdmin).Return([]*models.Order{}, nil).Once()

	res := s.svc.FetchOrders(ctx, store.RoleAdmin)
	s.Require().Empty(res.Orders)
	s.Require().Empty(s.svc.CachedOrders(ctx))
}

func (s *ServiceSuite) TestSyncOrder_InsertsWhenMissing() {
	ctx := context.Background()
	o := order("LY-2001", models.StatusChinaStore)

	s.store.On("Ready", store.RoleAdmin).Return(nil).Once()
	s.store.On("FindOrdersByCode", mock.Anything, store.RoleAdmin, "LY-2001").Return([]*models.Order{}, nil).Once()
	s.store.On("InsertOrder", mock.Anything, o, s.now).Return(nil).Once()
	s.store.On("InsertNotification", mock.Anything, models.NotificationCreateInput{
		OrderCode: "LY-2001",
		Title:     "Shipment status updated",
		Body:      "Your shipment (LY-2001) status has been updated to: China_Store",
	}).Return(nil).Once()
	s.store.On("ListOrders", mock.Anything, store.RoleAdmin).Return([]*models.Order{o}, nil).Once()
	s.notify.On("NotifyChanged", mock.Anything, "sync", "LY-2001").Once()

	s.Require().NoError(s.svc.SyncOrder(ctx, o))
	s.store.AssertExpectations(s.T())
	s.store.AssertNotCalled(s.T(), "UpdateOrderByCode", mock.Anything, mock.Anything, mock.Anything)
	s.notify.AssertExpectations(s.T())
	s.Require().Len(s.svc.CachedOrders(ctx), 1)
}

func (s *ServiceSuite) TestSyncOrder_PatchesWhenExists() {
	o := order("LY-1001", models.StatusOutForDelivery)

	s.store.On("Ready", store.RoleAdmin).Return(nil).Once()
	s.store.On("FindOrdersByCode", mock.Anything, store.RoleAdmin, "LY-1001").Return([]*models.Order{order("LY-1001", models.StatusEnRoute)}, nil).Once()
	s.store.On("UpdateOrderByCode", mock.Anything, o, s.now).Return(nil).Once()
	s.store.On("InsertNotification", mock.Anything, mock.Anything).Return(errors.New("rls")).Once()
	s.store.On("ListOrders", mock.Anything, store.RoleAdmin).Return([]*models.Order{o}, nil).Once()
	s.notify.On("NotifyChanged", mock.Anything, "sync", "LY-1001").Once()

	// a failed notification does not fail the sync
	s.Require().NoError(s.svc.SyncOrder(context.Background(), o))
	s.store.AssertExpectations(s.T())
	s.store.AssertNotCalled(s.T(), "InsertOrder", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestSyncOrder_NotReady_StillRefreshesAndSignals() {
	o := order("LY-1001", models.StatusEnRoute)

	s.store.On("Ready", store.RoleAdmin).Return(store.ErrConfigNotReady).Once()
	s.store.On("ListOrders", mock.Anything, store.RoleAdmin).Return(nil, store.ErrConfigNotReady).Once()
	s.notify.On("NotifyChanged", mock.Anything, "sync", "LY-1001").Once()

	err := s.svc.SyncOrder(context.Background(), o)
	s.Require().ErrorIs(err, store.ErrConfigNotReady)
	s.store.AssertNotCalled(s.T(), "FindOrdersByCode", mock.Anything, mock.Anything, mock.Anything)
	s.store.AssertNotCalled(s.T(), "InsertNotification", mock.Anything, mock.Anything)
	s.notify.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestSyncOrder_UpsertErrorSkipsNotification() {
	o := order("LY-1001", models.StatusEnRoute)

	s.store.On("Ready", store.RoleAdmin).Return(nil).Once()
	s.store.On("FindOrdersByCode", mock.Anything, store.RoleAdmin, "LY-1001").Return(nil, store.ErrPermissionDenied).Once()
	s.store.On("ListOrders", mock.Anything, store.RoleAdmin).Return(nil, store.ErrPermissionDenied).Once()
	s.notify.On("NotifyChanged", mock.Anything, "sync", "LY-1001").Once()

	err := s.svc.SyncOrder(context.Background(), o)
	s.Require().ErrorIs(err, store.ErrPermissionDenied)
	s.store.AssertNotCalled(s.T(), "InsertNotification", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestSyncOrder_ValidateErrors() {
	ctx := context.Background()
	cases := []*models.Order{
		nil,
		{OrderCode: "", Quantity: 1, Status: models.StatusEnRoute},
		{OrderCode: "A", Quantity: 0, Status: models.StatusEnRoute},
		{OrderCode: "A", Quantity: 1, TotalPrice: -1, Status: models.StatusEnRoute},
		{OrderCode: "A", Quantity: 1, Status: "Lost"},
		{OrderCode: "A", Quantity: 1},
	}
	for _, o := range cases {
		s.Require().Error(s.svc.SyncOrder(ctx, o))
	}
	s.store.AssertNotCalled(s.T(), "Ready", mock.Anything)
	s.store.AssertNotCalled(s.T(), "ListOrders", mock.Anything, mock.Anything)
	s.notify.AssertNotCalled(s.T(), "NotifyChanged", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestUpdateOrderLocation() {
	loc := models.Location{Lat: 32.9, Lng: 13.2}
	s.store.On("UpdateOrderLocation", mock.Anything, "LY-1001", models.PartyDriver, loc).Return(nil).Once()
	s.notify.On("NotifyChanged", mock.Anything, "location", "LY-1001").Once()

	s.Require().NoError(s.svc.UpdateOrderLocation(context.Background(), "LY-1001", models.PartyDriver, loc))
	s.Require().Error(s.svc.UpdateOrderLocation(context.Background(), "LY-1001", "pilot", loc))
	s.Require().Error(s.svc.UpdateOrderLocation(context.Background(), "", models.PartyDriver, loc))
	s.store.AssertExpectations(s.T())
	s.notify.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestUpdateOrderLocation_ErrorNoSignal() {
	loc := models.Location{Lat: 1, Lng: 2}
	s.store.On("UpdateOrderLocation", mock.Anything, "LY-1001", models.PartyCustomer, loc).Return(store.ErrRemote).Once()

	err := s.svc.UpdateOrderLocation(context.Background(), "LY-1001", models.PartyCustomer, loc)
	s.Require().ErrorIs(err, store.ErrRemote)
	s.notify.AssertNotCalled(s.T(), "NotifyChanged", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestDeleteOrder() {
	s.store.On("DeleteOrder", mock.Anything, "42").Return(nil).Once()
	s.store.On("ListOrders", mock.Anything, store.RoleAdmin).Return([]*models.Order{}, nil).Once()
	s.notify.On("NotifyChanged", mock.Anything, "delete", "").Once()

	s.Require().NoError(s.svc.DeleteOrder(context.Background(), "42"))
	s.Require().Error(s.svc.DeleteOrder(context.Background(), ""))
	s.store.AssertExpectations(s.T())
	s.notify.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestFetchNotifications() {
	list := []*models.Notification{{ID: "2"}, {ID: "1"}}
	s.store.On("ListNotifications", mock.Anything, store.RoleCustomer).Return(list, nil).Once()
	s.Require().Equal(list, s.svc.FetchNotifications(context.Background(), store.RoleCustomer))

	s.store.On("ListNotifications", mock.Anything, store.RoleCustomer).Return(nil, store.ErrRemote).Once()
	got := s.svc.FetchNotifications(context.Background(), store.RoleCustomer)
	s.Require().NotNil(got)
	s.Require().Empty(got)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
