package pgorders

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGOrders_RepoFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "logitrack_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/logitrack_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Ping(ctx))

	created, err := st.Insert(ctx, TableOrders, []Row{
		{"order_code": "LY-1001", "status": "Out_for_Delivery", "quantity": json.Number("2"), "updated_at": "2026-01-02T10:00:00Z"},
		{"order_code": "LY-1002", "status": "En_Route", "updated_at": "2026-01-01T10:00:00Z"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.NotZero(t, created[0]["id"])
	require.Nil(t, created[0]["driver_lat"])

	// повторный код упирается в уникальный индекс
	_, err = st.Insert(ctx, TableOrders, []Row{{"order_code": "LY-1001", "status": "En_Route"}})
	require.ErrorIs(t, err, ErrConflict)

	_, err = st.Insert(ctx, TableOrders, []Row{{"order_code": "LY-1003", "status": "Lost"}})
	require.ErrorIs(t, err, ErrInvalidValue)

	list, err := st.Select(ctx, Query{Table: TableOrders, Order: []Order{{Column: "updated_at", Desc: true}}})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "LY-1001", list[0]["order_code"])

	updated, err := st.Update(ctx, TableOrders,
		[]Filter{{Column: "order_code", Value: "LY-1001"}},
		Row{"driver_lat": json.Number("32.9"), "driver_lng": json.Number("13.2")})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	require.Equal(t, 32.9, updated[0]["driver_lat"])

	found, err := st.Select(ctx, Query{
		Table:   TableOrders,
		Columns: []string{"order_code", "driver_lng"},
		Filters: []Filter{{Column: "order_code", Value: "LY-1001"}},
	})
	require.NoError(t, err)
	require.Equal(t, []Row{{"order_code": "LY-1001", "driver_lng": 13.2}}, found)

	_, err = st.Insert(ctx, TableNotifications, []Row{{"order_code": "LY-1001", "title": "Shipment status updated", "body": "x"}})
	require.NoError(t, err)
	notes, err := st.Select(ctx, Query{Table: TableNotifications, Filters: []Filter{{Column: "is_read", Value: "false"}}})
	require.NoError(t, err)
	require.Len(t, notes, 1)

	id := created[1]["id"].(int64)
	deleted, err := st.Delete(ctx, TableOrders, []Filter{{Column: "id", Value: strconv.FormatInt(id, 10)}})
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	list, err = st.Select(ctx, Query{Table: TableOrders})
	require.NoError(t, err)
	require.Len(t, list, 1)
}
