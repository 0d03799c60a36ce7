package domain

import "time"

type User struct {
	ID             uint
	Username       string
	PasswordHash   string
	IsOrdering     bool
	CurrentOrderID *uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasOpenOrder reports whether the user is building a cart.
// A user that is ordering always references the open order.
func (u User) HasOpenOrder() bool {
	return u.IsOrdering && u.CurrentOrderID != nil
}

// StartOrdering moves the user into the ordering state for orderID.
func (u User) StartOrdering(orderID uint) User {
	u.IsOrdering = true
	u.CurrentOrderID = &orderID
	return u
}

// FinishOrdering leaves CurrentOrderID pointing at the submitted order.
func (u User) FinishOrdering() User {
	u.IsOrdering = false
	return u
}
