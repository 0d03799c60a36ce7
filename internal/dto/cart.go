package dto

import (
	"time"

	"cartline/internal/domain"
)

type AddItemRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type EditItemRequest struct {
	Quantity int `json:"quantity"`
}

type ItemResponse struct {
	ID        uint      `json:"id"`
	OrderID   uint      `json:"orderId"`
	ProductID uint      `json:"productId"`
	Quantity  int       `json:"quantity"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

func NewItemResponse(i domain.Item) ItemResponse {
	return ItemResponse{
		ID:        i.ID,
		OrderID:   i.OrderID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Created:   i.CreatedAt,
		Updated:   i.UpdatedAt,
	}
}

// LineItemResponse is an item with its product nested, as listed under an order.
type LineItemResponse struct {
	ItemResponse
	Subtotal int64           `json:"subtotal"`
	Product  ProductResponse `json:"product"`
}

func NewLineItemResponses(items []domain.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(items))
	for i, li := range items {
		out[i] = LineItemResponse{
			ItemResponse: NewItemResponse(li.Item),
			Subtotal:     li.Subtotal(),
			Product:      NewProductResponse(li.Product),
		}
	}
	return out
}

type OrderUserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type OrderResponse struct {
	ID      uint               `json:"id"`
	Status  string             `json:"status"`
	User    OrderUserResponse  `json:"user"`
	Items   []LineItemResponse `json:"items,omitempty"`
	Total   *int64             `json:"total,omitempty"`
	Created time.Time          `json:"created"`
	Updated time.Time          `json:"updated"`
}

// NewOrderResponse renders an order. Items and total are included only when withItems is set.
func NewOrderResponse(d domain.OrderDetails, withItems bool) OrderResponse {
	resp := OrderResponse{
		ID:      d.Order.ID,
		Status:  d.Order.Status,
		User:    OrderUserResponse{ID: d.User.ID, Username: d.User.Username},
		Created: d.Order.CreatedAt,
		Updated: d.Order.UpdatedAt,
	}
	if withItems {
		total := d.Total()
		resp.Items = NewLineItemResponses(d.Items)
		resp.Total = &total
	}
	return resp
}

func NewOrderResponses(orders []domain.OrderDetails) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = NewOrderResponse(o, false)
	}
	return out
}
