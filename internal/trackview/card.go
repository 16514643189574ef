package trackview

import (
	"strconv"

	"github.com/BearBump/LogiTrack/internal/models"
)

const currency = "LYD"

// Card is the result card of a found shipment, ready for display.
type Card struct {
	Code         string `json:"code"`
	Status       string `json:"status"`
	StatusLabel  string `json:"statusLabel"`
	Product      string `json:"product"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	ReceiverName string `json:"receiverName"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	LastLocation string `json:"lastLocation"`
	LiveTracking bool   `json:"liveTracking"`
}

func NewCard(o *models.Order, live bool) Card {
	return Card{
		Code:         o.OrderCode,
		Status:       string(o.Status),
		StatusLabel:  o.Status.Label(),
		Product:      orDefault(o.ProductName, "N/A"),
		Quantity:     o.Quantity,
		Price:        FormatPrice(o.TotalPrice),
		ReceiverName: o.CustomerName,
		Phone:        orDefault(o.CustomerPhone, "---"),
		Address:      orDefault(o.CustomerAddress, "No address"),
		LastLocation: orDefault(o.CurrentPhysicalLocation, o.Status.Label()),
		LiveTracking: live,
	}
}

// FormatPrice prints the shortest decimal form, 150.5 -> "150.5 LYD".
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + " " + currency
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
