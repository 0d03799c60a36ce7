package domain

import "time"

type Order struct {
	ID        uint
	UserID    uint
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	OrderStatusOpen      = "OPEN"
	OrderStatusSubmitted = "SUBMITTED"
)

func (o Order) IsOpen() bool {
	return o.Status == OrderStatusOpen
}

// UserSummary is the owner data shown alongside an order.
type UserSummary struct {
	ID       uint
	Username string
}

// LineItem is an item joined with its product for display.
type LineItem struct {
	Item    Item
	Product Product
}

func (l LineItem) Subtotal() int64 {
	return l.Product.Cost * int64(l.Item.Quantity)
}

type OrderDetails struct {
	Order Order
	User  UserSummary
	Items []LineItem
}

func (d OrderDetails) Total() int64 {
	var total int64
	for _, li := range d.Items {
		total += li.Subtotal()
	}
	return total
}
