package models

import "time"

type Notification struct {
	ID        string    `json:"id"`
	OrderCode string    `json:"orderCode"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	Timestamp time.Time `json:"timestamp"`
}

type NotificationCreateInput struct {
	OrderCode string
	Title     string
	Body      string
}
