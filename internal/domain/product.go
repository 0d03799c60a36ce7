package domain

import "time"

type Product struct {
	ID        uint
	ItemID    int
	Name      string
	NameEng   string
	Cost      int64
	Effect    string
	Text      string
	Sprite    string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductUpdate lists the catalog fields an update may change. Nil fields are left as they are.
type ProductUpdate struct {
	ItemID   *int
	Name     *string
	NameEng  *string
	Cost     *int64
	Effect   *string
	Text     *string
	Sprite   *string
	Category *string
}

func (p Product) Apply(u ProductUpdate) Product {
	if u.ItemID != nil {
		p.ItemID = *u.ItemID
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.NameEng != nil {
		p.NameEng = *u.NameEng
	}
	if u.Cost != nil {
		p.Cost = *u.Cost
	}
	if u.Effect != nil {
		p.Effect = *u.Effect
	}
	if u.Text != nil {
		p.Text = *u.Text
	}
	if u.Sprite != nil {
		p.Sprite = *u.Sprite
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	return p
}
