package models

import (
	"strings"
	"time"
)

type OrderStatus string

// Закрытый набор статусов. Клиент переходы не проверяет, статус нужен для подписи и для карты.
const (
	StatusChinaStore     OrderStatus = "China_Store"
	StatusChinaWarehouse OrderStatus = "China_Warehouse"
	StatusEnRoute        OrderStatus = "En_Route"
	StatusLibyaWarehouse OrderStatus = "Libya_Warehouse"
	StatusOutForDelivery OrderStatus = "Out_for_Delivery"
	StatusDelivered      OrderStatus = "Delivered"
)

var statusLabels = map[OrderStatus]string{
	StatusChinaStore:     "Pending Shipment",
	StatusChinaWarehouse: "In China Warehouse",
	StatusEnRoute:        "En Route",
	StatusLibyaWarehouse: "In Libya Warehouse",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
}

// AllStatuses returns the closed status set in lifecycle order.
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		StatusChinaStore,
		StatusChinaWarehouse,
		StatusEnRoute,
		StatusLibyaWarehouse,
		StatusOutForDelivery,
		StatusDelivered,
	}
}

// Label returns the display text; unknown statuses are shown as is.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Location is a point on the map. nil *Location means "not known yet", not (0,0).
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Order struct {
	ID                      string      `json:"id"`
	OrderCode               string      `json:"orderCode" validate:"required"`
	CustomerName            string      `json:"customerName"`
	CustomerPhone           string      `json:"customerPhone"`
	CustomerAddress         string      `json:"customerAddress"`
	ProductName             string      `json:"productName"`
	Quantity                int         `json:"quantity" validate:"gt=0"`
	TotalPrice              float64     `json:"totalPrice" validate:"gte=0"`
	Status                  OrderStatus `json:"status" validate:"required,order_status"`
	CurrentPhysicalLocation string      `json:"currentPhysicalLocation"`
	CustomerLocation        *Location   `json:"customerLocation,omitempty"`
	DriverLocation          *Location   `json:"driverLocation,omitempty"`
	UpdatedAt               time.Time   `json:"updatedAt"`
}

// NormalizeCode приводит код к виду, в котором коды сравниваются: без пробелов по краям, в верхнем регистре.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Party selects which coordinate pair of an order a location update targets.
type Party string

const (
	PartyDriver   Party = "driver"
	PartyCustomer Party = "customer"
)

func (p Party) Valid() bool {
	return p == PartyDriver || p == PartyCustomer
}
