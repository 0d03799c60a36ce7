package domain

import "time"

const EventTypeOrderSubmitted = "ORDER_SUBMITTED"

type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderSubmittedEvent struct {
	BaseEvent
	OrderID   uint                `json:"order_id"`
	UserID    uint                `json:"user_id"`
	TotalCost int64               `json:"total_cost"`
	Items     []SubmittedItemData `json:"items"`
}

type SubmittedItemData struct {
	ProductID uint  `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Cost      int64 `json:"cost"`
}
