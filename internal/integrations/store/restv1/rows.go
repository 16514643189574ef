package restv1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BearBump/LogiTrack/internal/models"
)

// rowID accepts both bigint and uuid primary keys.
type rowID string

func (id *rowID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = rowID(n.String())
	return nil
}

// Timestamps without an offset come from "timestamp" columns and are read as UTC.
var rowTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// rowTime accepts both timestamptz and timestamp columns. null and "" leave it zero.
type rowTime struct {
	time.Time
}

func (t *rowTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s = strings.TrimSpace(s); s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range rowTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

type orderRow struct {
	ID              rowID    `json:"id"`
	OrderCode       string   `json:"order_code"`
	CustomerName    string   `json:"customer_name"`
	CustomerPhone   string   `json:"customer_phone"`
	CustomerAddress string   `json:"customer_address"`
	ProductName     string   `json:"product_name"`
	Quantity        int      `json:"quantity"`
	TotalPrice      float64  `json:"total_price"`
	Status          string   `json:"status"`
	CurrentLocation string   `json:"current_location"`
	UpdatedAt       rowTime  `json:"updated_at"`
	CustomerLat     *float64 `json:"customer_lat"`
	CustomerLng     *float64 `json:"customer_lng"`
	DriverLat       *float64 `json:"driver_lat"`
	DriverLng       *float64 `json:"driver_lng"`
}

// orderWrite is what we send on insert/update. Coordinates are not part of it:
// they only change through UpdateOrderLocation.
type orderWrite struct {
	OrderCode       string  `json:"order_code"`
	CustomerName    string  `json:"customer_name"`
	CustomerPhone   string  `json:"customer_phone"`
	CustomerAddress string  `json:"customer_address"`
	ProductName     string  `json:"product_name"`
	Quantity        int     `json:"quantity"`
	TotalPrice      float64 `json:"total_price"`
	Status          string  `json:"status"`
	CurrentLocation string  `json:"current_location"`
	UpdatedAt       string  `json:"updated_at"`
}

type notificationRow struct {
	ID        rowID   `json:"id"`
	OrderCode string  `json:"order_code"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	IsRead    bool    `json:"is_read"`
	CreatedAt rowTime `json:"created_at"`
}

type notificationWrite struct {
	OrderCode string `json:"order_code"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

func location(lat, lng *float64) *models.Location {
	if lat == nil || lng == nil {
		return nil
	}
	return &models.Location{Lat: *lat, Lng: *lng}
}

func (r orderRow) toModel() *models.Order {
	o := &models.Order{
		ID:                      string(r.ID),
		OrderCode:               r.OrderCode,
		CustomerName:            r.CustomerName,
		CustomerPhone:           r.CustomerPhone,
		CustomerAddress:         r.CustomerAddress,
		ProductName:             r.ProductName,
		Quantity:                r.Quantity,
		TotalPrice:              r.TotalPrice,
		Status:                  models.OrderStatus(r.Status),
		CurrentPhysicalLocation: r.CurrentLocation,
		CustomerLocation:        location(r.CustomerLat, r.CustomerLng),
		DriverLocation:          location(r.DriverLat, r.DriverLng),
	}
	o.UpdatedAt = r.UpdatedAt.Time
	return o
}

func toOrderWrite(o *models.Order, updatedAt time.Time) orderWrite {
	return orderWrite{
		OrderCode:       o.OrderCode,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		ProductName:     o.ProductName,
		Quantity:        o.Quantity,
		TotalPrice:      o.TotalPrice,
		Status:          string(o.Status),
		CurrentLocation: o.CurrentPhysicalLocation,
		UpdatedAt:       updatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (r notificationRow) toModel() *models.Notification {
	n := &models.Notification{
		ID:        string(r.ID),
		OrderCode: r.OrderCode,
		Title:     r.Title,
		Body:      r.Body,
		IsRead:    r.IsRead,
	}
	n.Timestamp = r.CreatedAt.Time
	return n
}
