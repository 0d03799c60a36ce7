package dto

import (
	"time"

	"cartline/internal/domain"
)

// ProductRequest is the body of product create and update. On update, absent
// fields keep their stored value.
type ProductRequest struct {
	ItemID   *int    `json:"itemId"`
	Name     *string `json:"name"`
	NameEng  *string `json:"nameEng"`
	Cost     *int64  `json:"cost"`
	Effect   *string `json:"effect"`
	Text     *string `json:"text"`
	Sprite   *string `json:"sprite"`
	Category *string `json:"category"`
}

func (r ProductRequest) ToUpdate() domain.ProductUpdate {
	return domain.ProductUpdate{
		ItemID:   r.ItemID,
		Name:     r.Name,
		NameEng:  r.NameEng,
		Cost:     r.Cost,
		Effect:   r.Effect,
		Text:     r.Text,
		Sprite:   r.Sprite,
		Category: r.Category,
	}
}

type ProductResponse struct {
	ID       uint      `json:"id"`
	ItemID   int       `json:"itemId"`
	Name     string    `json:"name"`
	NameEng  string    `json:"nameEng"`
	Cost     int64     `json:"cost"`
	Effect   string    `json:"effect"`
	Text     string    `json:"text"`
	Sprite   string    `json:"sprite"`
	Category string    `json:"category"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

func NewProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		ItemID:   p.ItemID,
		Name:     p.Name,
		NameEng:  p.NameEng,
		Cost:     p.Cost,
		Effect:   p.Effect,
		Text:     p.Text,
		Sprite:   p.Sprite,
		Category: p.Category,
		Created:  p.CreatedAt,
		Updated:  p.UpdatedAt,
	}
}

func NewProductResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = NewProductResponse(p)
	}
	return out
}
