package dto

import (
	"time"

	"cartline/internal/domain"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	IsOrdering     bool      `json:"isOrdering"`
	CurrentOrderID *uint     `json:"currentOrderId"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`
}

func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		IsOrdering:     u.IsOrdering,
		CurrentOrderID: u.CurrentOrderID,
		Created:        u.CreatedAt,
		Updated:        u.UpdatedAt,
	}
}

func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = NewUserResponse(u)
	}
	return out
}

type SessionResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}
