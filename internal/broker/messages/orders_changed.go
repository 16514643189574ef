package messages

import "time"

// OrdersChanged says "the remote orders table was written", nothing more. Consumers refetch.
type OrdersChanged struct {
	Origin    string    `json:"origin"`
	OrderCode string    `json:"order_code,omitempty"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changed_at"`
}

const (
	ReasonSync     = "sync"
	ReasonLocation = "location"
	ReasonDelete   = "delete"
)
