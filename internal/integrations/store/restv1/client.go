package restv1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/metrics"
	"github.com/BearBump/LogiTrack/internal/models"
	"github.com/pkg/errors"
)

const (
	restPrefix = "/rest/v1/"
	deniedHint = "check row level security policies of the table and that secret_key is the service role key"
)

// Client talks to a PostgREST-style table API (Supabase /rest/v1).
type Client struct {
	settings store.Settings
	httpc    *http.Client
}

func New(settings store.Settings) *Client {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		settings: settings,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Ready(role store.Role) error {
	return c.settings.Ready(role)
}

type request struct {
	role   store.Role
	method string
	table  string
	query  url.Values
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, r request) error {
	if err := c.settings.Ready(r.role); err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(r.table, r.method, "skipped").Inc()
		return err
	}
	grant, err := c.settings.TokenFor(r.role)
	if err != nil {
		return err
	}
	if grant.Downgraded && r.method != http.MethodGet {
		slog.Warn("admin write uses the publishable key", "table", r.table, "method", r.method)
	}

	u, err := url.Parse(strings.TrimRight(c.settings.BaseURL, "/"))
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = strings.TrimRight(u.Path, "/") + restPrefix + r.table
	q := r.query
	if q == nil {
		q = url.Values{}
	}
	if len(q) == 0 && r.method == http.MethodGet {
		q.Set("select", "*")
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return errors.Wrap(err, "marshal body")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("apikey", grant.Token)
	req.Header.Set("Authorization", "Bearer "+grant.Token)
	req.Header.Set("Content-Type", "application/json")
	if r.method == http.MethodPost || r.method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(r.table, r.method, "error").Inc()
		slog.Error("remote store request", "table", r.table, "method", r.method, "error", err.Error())
		return errors.Wrap(store.ErrRemote, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		metrics.StoreRequestsTotal.WithLabelValues(r.table, r.method, "denied").Inc()
		slog.Error("remote store denied access",
			"table", r.table, "method", r.method, "status", resp.StatusCode,
			"tier", string(grant.Tier), "hint", deniedHint)
		return errors.Wrapf(store.ErrPermissionDenied, "%s %s: http %d", r.method, r.table, resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 {
		metrics.StoreRequestsTotal.WithLabelValues(r.table, r.method, "error").Inc()
		slog.Error("remote store request", "table", r.table, "method", r.method, "status", resp.StatusCode)
		return errors.Wrapf(store.ErrRemote, "%s %s: http %d", r.method, r.table, resp.StatusCode)
	}

	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		metrics.StoreRequestsTotal.WithLabelValues(r.table, r.method, "ok").Inc()
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(r.table, r.method, "error").Inc()
		return errors.Wrap(store.ErrRemote, fmt.Sprintf("decode %s: %v", r.table, err))
	}
	metrics.StoreRequestsTotal.WithLabelValues(r.table, r.method, "ok").Inc()
	return nil
}

func eq(v string) string {
	return "eq." + v
}

func (c *Client) ListOrders(ctx context.Context, role store.Role) ([]*models.Order, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "updated_at.desc")

	var rows []orderRow
	if err := c.do(ctx, request{role: role, method: http.MethodGet, table: store.TableOrders, query: q, out: &rows}); err != nil {
		return nil, err
	}
	out := make([]*models.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (c *Client) FindOrdersByCode(ctx context.Context, role store.Role, code string) ([]*models.Order, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order_code", eq(code))

	var rows []orderRow
	if err := c.do(ctx, request{role: role, method: http.MethodGet, table: store.TableOrders, query: q, out: &rows}); err != nil {
		return nil, err
	}
	out := make([]*models.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (c *Client) InsertOrder(ctx context.Context, o *models.Order, updatedAt time.Time) error {
	var rows []orderRow
	return c.do(ctx, request{
		role:   store.RoleAdmin,
		method: http.MethodPost,
		table:  store.TableOrders,
		body:   toOrderWrite(o, updatedAt),
		out:    &rows,
	})
}

func (c *Client) UpdateOrderByCode(ctx context.Context, o *models.Order, updatedAt time.Time) error {
	q := url.Values{}
	q.Set("order_code", eq(o.OrderCode))

	var rows []orderRow
	return c.do(ctx, request{
		role:   store.RoleAdmin,
		method: http.MethodPatch,
		table:  store.TableOrders,
		query:  q,
		body:   toOrderWrite(o, updatedAt),
		out:    &rows,
	})
}

func (c *Client) UpdateOrderLocation(ctx context.Context, code string, party models.Party, loc models.Location) error {
	if !party.Valid() {
		return errors.Errorf("unknown party %q", party)
	}
	q := url.Values{}
	q.Set("order_code", eq(code))
	body := map[string]float64{
		string(party) + "_lat": loc.Lat,
		string(party) + "_lng": loc.Lng,
	}

	var rows []orderRow
	return c.do(ctx, request{
		role:   store.RoleAdmin,
		method: http.MethodPatch,
		table:  store.TableOrders,
		query:  q,
		body:   body,
		out:    &rows,
	})
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("order id is required")
	}
	q := url.Values{}
	q.Set("id", eq(id))
	return c.do(ctx, request{role: store.RoleAdmin, method: http.MethodDelete, table: store.TableOrders, query: q})
}

func (c *Client) ListNotifications(ctx context.Context, role store.Role) ([]*models.Notification, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")

	var rows []notificationRow
	if err := c.do(ctx, request{role: role, method: http.MethodGet, table: store.TableNotifications, query: q, out: &rows}); err != nil {
		return nil, err
	}
	out := make([]*models.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (c *Client) InsertNotification(ctx context.Context, in models.NotificationCreateInput) error {
	w := notificationWrite{
		OrderCode: in.OrderCode,
		Title:     in.Title,
		Body:      in.Body,
	}

	var rows []notificationRow
	return c.do(ctx, request{
		role:   store.RoleAdmin,
		method: http.MethodPost,
		table:  store.TableNotifications,
		body:   w,
		out:    &rows,
	})
}
