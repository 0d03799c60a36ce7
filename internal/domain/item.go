package domain

import "time"

const (
	MinItemQuantity = 1
	MaxItemQuantity = 10000
)

type Item struct {
	ID        uint
	OrderID   uint
	ProductID uint
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i Item) WithQuantity(quantity int) Item {
	i.Quantity = quantity
	return i
}

func ValidQuantity(quantity int) bool {
	return quantity >= MinItemQuantity && quantity <= MaxItemQuantity
}
